package services

import (
	"context"
	"sync"

	"github.com/Lllllllleong/intakeledger/internal/gcp"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

var _ objectStore = &objectStoreMock{}

type objectStoreMock struct {
	GetFunc  func(ctx context.Context, key string, maxBytes int64) (gcp.Object, error)
	PutFunc  func(ctx context.Context, key string, data []byte, metadata map[string]string) (bool, error)
	StatFunc func(ctx context.Context, key string) (gcp.ObjectInfo, error)

	calls struct {
		Get []struct {
			Ctx      context.Context
			Key      string
			MaxBytes int64
		}
		Put []struct {
			Ctx      context.Context
			Key      string
			Data     []byte
			Metadata map[string]string
		}
		Stat []struct {
			Ctx context.Context
			Key string
		}
	}
	lockGet  sync.RWMutex
	lockPut  sync.RWMutex
	lockStat sync.RWMutex
}

func (mock *objectStoreMock) Get(ctx context.Context, key string, maxBytes int64) (gcp.Object, error) {
	if mock.GetFunc == nil {
		panic("objectStoreMock.GetFunc: method is nil but objectStore.Get was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Key      string
		MaxBytes int64
	}{Ctx: ctx, Key: key, MaxBytes: maxBytes}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, key, maxBytes)
}

func (mock *objectStoreMock) GetCalls() []struct {
	Ctx      context.Context
	Key      string
	MaxBytes int64
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *objectStoreMock) Put(ctx context.Context, key string, data []byte, metadata map[string]string) (bool, error) {
	if mock.PutFunc == nil {
		panic("objectStoreMock.PutFunc: method is nil but objectStore.Put was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Key      string
		Data     []byte
		Metadata map[string]string
	}{Ctx: ctx, Key: key, Data: data, Metadata: metadata}
	mock.lockPut.Lock()
	mock.calls.Put = append(mock.calls.Put, callInfo)
	mock.lockPut.Unlock()
	return mock.PutFunc(ctx, key, data, metadata)
}

func (mock *objectStoreMock) PutCalls() []struct {
	Ctx      context.Context
	Key      string
	Data     []byte
	Metadata map[string]string
} {
	mock.lockPut.RLock()
	calls := mock.calls.Put
	mock.lockPut.RUnlock()
	return calls
}

func (mock *objectStoreMock) Stat(ctx context.Context, key string) (gcp.ObjectInfo, error) {
	if mock.StatFunc == nil {
		panic("objectStoreMock.StatFunc: method is nil but objectStore.Stat was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
	}{Ctx: ctx, Key: key}
	mock.lockStat.Lock()
	mock.calls.Stat = append(mock.calls.Stat, callInfo)
	mock.lockStat.Unlock()
	return mock.StatFunc(ctx, key)
}

func (mock *objectStoreMock) StatCalls() []struct {
	Ctx context.Context
	Key string
} {
	mock.lockStat.RLock()
	calls := mock.calls.Stat
	mock.lockStat.RUnlock()
	return calls
}

var _ customerResolver = &customerResolverMock{}

type customerResolverMock struct {
	ResolveFunc func(ctx context.Context, address string) (models.CustomerRecord, error)

	calls struct {
		Resolve []struct {
			Ctx     context.Context
			Address string
		}
	}
	lockResolve sync.RWMutex
}

func (mock *customerResolverMock) Resolve(ctx context.Context, address string) (models.CustomerRecord, error) {
	if mock.ResolveFunc == nil {
		panic("customerResolverMock.ResolveFunc: method is nil but customerResolver.Resolve was just called")
	}
	callInfo := struct {
		Ctx     context.Context
		Address string
	}{Ctx: ctx, Address: address}
	mock.lockResolve.Lock()
	mock.calls.Resolve = append(mock.calls.Resolve, callInfo)
	mock.lockResolve.Unlock()
	return mock.ResolveFunc(ctx, address)
}

func (mock *customerResolverMock) ResolveCalls() []struct {
	Ctx     context.Context
	Address string
} {
	mock.lockResolve.RLock()
	calls := mock.calls.Resolve
	mock.lockResolve.RUnlock()
	return calls
}

var _ mailSource = &mailSourceMock{}

type mailSourceMock struct {
	DownloadFunc func(ctx context.Context, messageID string, att gcp.MailAttachment) ([]byte, error)
	ResolveFunc  func(ctx context.Context, messageID string) (gcp.MailMessage, error)

	calls struct {
		Download []struct {
			Ctx       context.Context
			MessageID string
			Att       gcp.MailAttachment
		}
		Resolve []struct {
			Ctx       context.Context
			MessageID string
		}
	}
	lockDownload sync.RWMutex
	lockResolve  sync.RWMutex
}

func (mock *mailSourceMock) Download(ctx context.Context, messageID string, att gcp.MailAttachment) ([]byte, error) {
	if mock.DownloadFunc == nil {
		panic("mailSourceMock.DownloadFunc: method is nil but mailSource.Download was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		MessageID string
		Att       gcp.MailAttachment
	}{Ctx: ctx, MessageID: messageID, Att: att}
	mock.lockDownload.Lock()
	mock.calls.Download = append(mock.calls.Download, callInfo)
	mock.lockDownload.Unlock()
	return mock.DownloadFunc(ctx, messageID, att)
}

func (mock *mailSourceMock) DownloadCalls() []struct {
	Ctx       context.Context
	MessageID string
	Att       gcp.MailAttachment
} {
	mock.lockDownload.RLock()
	calls := mock.calls.Download
	mock.lockDownload.RUnlock()
	return calls
}

func (mock *mailSourceMock) Resolve(ctx context.Context, messageID string) (gcp.MailMessage, error) {
	if mock.ResolveFunc == nil {
		panic("mailSourceMock.ResolveFunc: method is nil but mailSource.Resolve was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		MessageID string
	}{Ctx: ctx, MessageID: messageID}
	mock.lockResolve.Lock()
	mock.calls.Resolve = append(mock.calls.Resolve, callInfo)
	mock.lockResolve.Unlock()
	return mock.ResolveFunc(ctx, messageID)
}

func (mock *mailSourceMock) ResolveCalls() []struct {
	Ctx       context.Context
	MessageID string
} {
	mock.lockResolve.RLock()
	calls := mock.calls.Resolve
	mock.lockResolve.RUnlock()
	return calls
}

var _ statusUpdater = &statusUpdaterMock{}

type statusUpdaterMock struct {
	UpdateStatusFunc func(ctx context.Context, customerID string, status string) (models.CustomerRecord, error)

	calls struct {
		UpdateStatus []struct {
			Ctx        context.Context
			CustomerID string
			Status     string
		}
	}
	lockUpdateStatus sync.RWMutex
}

func (mock *statusUpdaterMock) UpdateStatus(ctx context.Context, customerID string, status string) (models.CustomerRecord, error) {
	if mock.UpdateStatusFunc == nil {
		panic("statusUpdaterMock.UpdateStatusFunc: method is nil but statusUpdater.UpdateStatus was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		CustomerID string
		Status     string
	}{Ctx: ctx, CustomerID: customerID, Status: status}
	mock.lockUpdateStatus.Lock()
	mock.calls.UpdateStatus = append(mock.calls.UpdateStatus, callInfo)
	mock.lockUpdateStatus.Unlock()
	return mock.UpdateStatusFunc(ctx, customerID, status)
}

func (mock *statusUpdaterMock) UpdateStatusCalls() []struct {
	Ctx        context.Context
	CustomerID string
	Status     string
} {
	mock.lockUpdateStatus.RLock()
	calls := mock.calls.UpdateStatus
	mock.lockUpdateStatus.RUnlock()
	return calls
}
