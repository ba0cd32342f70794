package httpapi

import (
	"context"
	"sync"

	"github.com/Lllllllleong/intakeledger/internal/models"
	"github.com/Lllllllleong/intakeledger/internal/services"
)

var _ uploadProcessor = &uploadProcessorMock{}

type uploadProcessorMock struct {
	ProcessFunc func(ctx context.Context, sub services.Submission) (*models.PipelineResult, error)

	calls struct {
		Process []struct {
			Ctx context.Context
			Sub services.Submission
		}
	}
	lockProcess sync.RWMutex
}

func (mock *uploadProcessorMock) Process(ctx context.Context, sub services.Submission) (*models.PipelineResult, error) {
	if mock.ProcessFunc == nil {
		panic("uploadProcessorMock.ProcessFunc: method is nil but uploadProcessor.Process was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Sub services.Submission
	}{Ctx: ctx, Sub: sub}
	mock.lockProcess.Lock()
	mock.calls.Process = append(mock.calls.Process, callInfo)
	mock.lockProcess.Unlock()
	return mock.ProcessFunc(ctx, sub)
}

func (mock *uploadProcessorMock) ProcessCalls() []struct {
	Ctx context.Context
	Sub services.Submission
} {
	mock.lockProcess.RLock()
	calls := mock.calls.Process
	mock.lockProcess.RUnlock()
	return calls
}

var _ pointerProcessor = &pointerProcessorMock{}

type pointerProcessorMock struct {
	ProcessFunc func(ctx context.Context, req models.StoragePointerRequest) (*models.PipelineResult, error)

	calls struct {
		Process []struct {
			Ctx context.Context
			Req models.StoragePointerRequest
		}
	}
	lockProcess sync.RWMutex
}

func (mock *pointerProcessorMock) Process(ctx context.Context, req models.StoragePointerRequest) (*models.PipelineResult, error) {
	if mock.ProcessFunc == nil {
		panic("pointerProcessorMock.ProcessFunc: method is nil but pointerProcessor.Process was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req models.StoragePointerRequest
	}{Ctx: ctx, Req: req}
	mock.lockProcess.Lock()
	mock.calls.Process = append(mock.calls.Process, callInfo)
	mock.lockProcess.Unlock()
	return mock.ProcessFunc(ctx, req)
}

func (mock *pointerProcessorMock) ProcessCalls() []struct {
	Ctx context.Context
	Req models.StoragePointerRequest
} {
	mock.lockProcess.RLock()
	calls := mock.calls.Process
	mock.lockProcess.RUnlock()
	return calls
}

var _ mailProcessor = &mailProcessorMock{}

type mailProcessorMock struct {
	ProcessFunc func(ctx context.Context, n models.MailNotification) (*models.IntakeResponse, error)

	calls struct {
		Process []struct {
			Ctx context.Context
			N   models.MailNotification
		}
	}
	lockProcess sync.RWMutex
}

func (mock *mailProcessorMock) Process(ctx context.Context, n models.MailNotification) (*models.IntakeResponse, error) {
	if mock.ProcessFunc == nil {
		panic("mailProcessorMock.ProcessFunc: method is nil but mailProcessor.Process was just called")
	}
	callInfo := struct {
		Ctx context.Context
		N   models.MailNotification
	}{Ctx: ctx, N: n}
	mock.lockProcess.Lock()
	mock.calls.Process = append(mock.calls.Process, callInfo)
	mock.lockProcess.Unlock()
	return mock.ProcessFunc(ctx, n)
}

func (mock *mailProcessorMock) ProcessCalls() []struct {
	Ctx context.Context
	N   models.MailNotification
} {
	mock.lockProcess.RLock()
	calls := mock.calls.Process
	mock.lockProcess.RUnlock()
	return calls
}

var _ billingProcessor = &billingProcessorMock{}

type billingProcessorMock struct {
	ProcessFunc func(ctx context.Context, req models.BillingStatusRequest) (models.BillingDecision, error)

	calls struct {
		Process []struct {
			Ctx context.Context
			Req models.BillingStatusRequest
		}
	}
	lockProcess sync.RWMutex
}

func (mock *billingProcessorMock) Process(ctx context.Context, req models.BillingStatusRequest) (models.BillingDecision, error) {
	if mock.ProcessFunc == nil {
		panic("billingProcessorMock.ProcessFunc: method is nil but billingProcessor.Process was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req models.BillingStatusRequest
	}{Ctx: ctx, Req: req}
	mock.lockProcess.Lock()
	mock.calls.Process = append(mock.calls.Process, callInfo)
	mock.lockProcess.Unlock()
	return mock.ProcessFunc(ctx, req)
}

func (mock *billingProcessorMock) ProcessCalls() []struct {
	Ctx context.Context
	Req models.BillingStatusRequest
} {
	mock.lockProcess.RLock()
	calls := mock.calls.Process
	mock.lockProcess.RUnlock()
	return calls
}

var _ pushVerifier = &pushVerifierMock{}

type pushVerifierMock struct {
	VerifyFunc func(ctx context.Context, authorization string) error

	calls struct {
		Verify []struct {
			Ctx           context.Context
			Authorization string
		}
	}
	lockVerify sync.RWMutex
}

func (mock *pushVerifierMock) Verify(ctx context.Context, authorization string) error {
	if mock.VerifyFunc == nil {
		panic("pushVerifierMock.VerifyFunc: method is nil but pushVerifier.Verify was just called")
	}
	callInfo := struct {
		Ctx           context.Context
		Authorization string
	}{Ctx: ctx, Authorization: authorization}
	mock.lockVerify.Lock()
	mock.calls.Verify = append(mock.calls.Verify, callInfo)
	mock.lockVerify.Unlock()
	return mock.VerifyFunc(ctx, authorization)
}

func (mock *pushVerifierMock) VerifyCalls() []struct {
	Ctx           context.Context
	Authorization string
} {
	mock.lockVerify.RLock()
	calls := mock.calls.Verify
	mock.lockVerify.RUnlock()
	return calls
}
