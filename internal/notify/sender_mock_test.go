package notify

import (
	"context"
	"sync"
)

var _ Sender = &SenderMock{}

type SenderMock struct {
	SendFunc func(ctx context.Context, msg Message) error

	calls struct {
		Send []struct {
			Ctx context.Context
			Msg Message
		}
	}
	lockSend sync.RWMutex
}

func (mock *SenderMock) Send(ctx context.Context, msg Message) error {
	if mock.SendFunc == nil {
		panic("SenderMock.SendFunc: method is nil but Sender.Send was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Msg Message
	}{Ctx: ctx, Msg: msg}
	mock.lockSend.Lock()
	mock.calls.Send = append(mock.calls.Send, callInfo)
	mock.lockSend.Unlock()
	return mock.SendFunc(ctx, msg)
}

func (mock *SenderMock) SendCalls() []struct {
	Ctx context.Context
	Msg Message
} {
	mock.lockSend.RLock()
	calls := mock.calls.Send
	mock.lockSend.RUnlock()
	return calls
}
