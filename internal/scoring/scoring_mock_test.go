package scoring

import (
	"context"
	"sync"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

var _ Scorer = &ScorerMock{}

type ScorerMock struct {
	GenerateFunc func(ctx context.Context, text string, rubric string) (string, error)

	calls struct {
		Generate []struct {
			Ctx    context.Context
			Text   string
			Rubric string
		}
	}
	lockGenerate sync.RWMutex
}

func (mock *ScorerMock) Generate(ctx context.Context, text string, rubric string) (string, error) {
	if mock.GenerateFunc == nil {
		panic("ScorerMock.GenerateFunc: method is nil but Scorer.Generate was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Text   string
		Rubric string
	}{Ctx: ctx, Text: text, Rubric: rubric}
	mock.lockGenerate.Lock()
	mock.calls.Generate = append(mock.calls.Generate, callInfo)
	mock.lockGenerate.Unlock()
	return mock.GenerateFunc(ctx, text, rubric)
}

func (mock *ScorerMock) GenerateCalls() []struct {
	Ctx    context.Context
	Text   string
	Rubric string
} {
	mock.lockGenerate.RLock()
	calls := mock.calls.Generate
	mock.lockGenerate.RUnlock()
	return calls
}

var _ rubricSource = &rubricSourceMock{}

type rubricSourceMock struct {
	RubricFunc func(ctx context.Context, customerID string) (string, error)

	calls struct {
		Rubric []struct {
			Ctx        context.Context
			CustomerID string
		}
	}
	lockRubric sync.RWMutex
}

func (mock *rubricSourceMock) Rubric(ctx context.Context, customerID string) (string, error) {
	if mock.RubricFunc == nil {
		panic("rubricSourceMock.RubricFunc: method is nil but rubricSource.Rubric was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		CustomerID string
	}{Ctx: ctx, CustomerID: customerID}
	mock.lockRubric.Lock()
	mock.calls.Rubric = append(mock.calls.Rubric, callInfo)
	mock.lockRubric.Unlock()
	return mock.RubricFunc(ctx, customerID)
}

func (mock *rubricSourceMock) RubricCalls() []struct {
	Ctx        context.Context
	CustomerID string
} {
	mock.lockRubric.RLock()
	calls := mock.calls.Rubric
	mock.lockRubric.RUnlock()
	return calls
}

var _ seenChecker = &seenCheckerMock{}

type seenCheckerMock struct {
	SeenFunc func(ctx context.Context, customer models.CustomerRecord, day string, token string) (bool, error)

	calls struct {
		Seen []struct {
			Ctx      context.Context
			Customer models.CustomerRecord
			Day      string
			Token    string
		}
	}
	lockSeen sync.RWMutex
}

func (mock *seenCheckerMock) Seen(ctx context.Context, customer models.CustomerRecord, day string, token string) (bool, error) {
	if mock.SeenFunc == nil {
		panic("seenCheckerMock.SeenFunc: method is nil but seenChecker.Seen was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Customer models.CustomerRecord
		Day      string
		Token    string
	}{Ctx: ctx, Customer: customer, Day: day, Token: token}
	mock.lockSeen.Lock()
	mock.calls.Seen = append(mock.calls.Seen, callInfo)
	mock.lockSeen.Unlock()
	return mock.SeenFunc(ctx, customer, day, token)
}

func (mock *seenCheckerMock) SeenCalls() []struct {
	Ctx      context.Context
	Customer models.CustomerRecord
	Day      string
	Token    string
} {
	mock.lockSeen.RLock()
	calls := mock.calls.Seen
	mock.lockSeen.RUnlock()
	return calls
}
