package audit

import (
	"context"
	"sync"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

var _ writer = &writerMock{}

type writerMock struct {
	WriteFunc func(ctx context.Context, rec models.AuditRecord) error

	calls struct {
		Write []struct {
			Ctx context.Context
			Rec models.AuditRecord
		}
	}
	lockWrite sync.RWMutex
}

func (mock *writerMock) Write(ctx context.Context, rec models.AuditRecord) error {
	if mock.WriteFunc == nil {
		panic("writerMock.WriteFunc: method is nil but writer.Write was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Rec models.AuditRecord
	}{Ctx: ctx, Rec: rec}
	mock.lockWrite.Lock()
	mock.calls.Write = append(mock.calls.Write, callInfo)
	mock.lockWrite.Unlock()
	return mock.WriteFunc(ctx, rec)
}

func (mock *writerMock) WriteCalls() []struct {
	Ctx context.Context
	Rec models.AuditRecord
} {
	mock.lockWrite.RLock()
	calls := mock.calls.Write
	mock.lockWrite.RUnlock()
	return calls
}
