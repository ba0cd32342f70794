package directory

import (
	"context"
	"sync"
)

var _ table = &tableMock{}

type tableMock struct {
	ReadFunc  func(ctx context.Context, spreadsheetID string, rng string) ([][]string, error)
	WriteFunc func(ctx context.Context, spreadsheetID string, rng string, values []string) error

	calls struct {
		Read []struct {
			Ctx           context.Context
			SpreadsheetID string
			Rng           string
		}
		Write []struct {
			Ctx           context.Context
			SpreadsheetID string
			Rng           string
			Values        []string
		}
	}
	lockRead  sync.RWMutex
	lockWrite sync.RWMutex
}

func (mock *tableMock) Read(ctx context.Context, spreadsheetID string, rng string) ([][]string, error) {
	if mock.ReadFunc == nil {
		panic("tableMock.ReadFunc: method is nil but table.Read was just called")
	}
	callInfo := struct {
		Ctx           context.Context
		SpreadsheetID string
		Rng           string
	}{Ctx: ctx, SpreadsheetID: spreadsheetID, Rng: rng}
	mock.lockRead.Lock()
	mock.calls.Read = append(mock.calls.Read, callInfo)
	mock.lockRead.Unlock()
	return mock.ReadFunc(ctx, spreadsheetID, rng)
}

func (mock *tableMock) ReadCalls() []struct {
	Ctx           context.Context
	SpreadsheetID string
	Rng           string
} {
	mock.lockRead.RLock()
	calls := mock.calls.Read
	mock.lockRead.RUnlock()
	return calls
}

func (mock *tableMock) Write(ctx context.Context, spreadsheetID string, rng string, values []string) error {
	if mock.WriteFunc == nil {
		panic("tableMock.WriteFunc: method is nil but table.Write was just called")
	}
	callInfo := struct {
		Ctx           context.Context
		SpreadsheetID string
		Rng           string
		Values        []string
	}{Ctx: ctx, SpreadsheetID: spreadsheetID, Rng: rng, Values: values}
	mock.lockWrite.Lock()
	mock.calls.Write = append(mock.calls.Write, callInfo)
	mock.lockWrite.Unlock()
	return mock.WriteFunc(ctx, spreadsheetID, rng, values)
}

func (mock *tableMock) WriteCalls() []struct {
	Ctx           context.Context
	SpreadsheetID string
	Rng           string
	Values        []string
} {
	mock.lockWrite.RLock()
	calls := mock.calls.Write
	mock.lockWrite.RUnlock()
	return calls
}
