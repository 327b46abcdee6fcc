package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/questledger/questledger/internal/domain/quest"
)

// MockRepository is a mock implementation of quest.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, q *quest.Quest) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockRepository) GetByKey(ctx context.Context, questKey int64) (*quest.Quest, error) {
	args := m.Called(ctx, questKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quest.Quest), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter quest.Filter, limit, offset int) ([]*quest.Quest, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*quest.Quest), args.Error(1)
}

func (m *MockRepository) AcquirePending(ctx context.Context, questKey int64, expected quest.Status) error {
	args := m.Called(ctx, questKey, expected)
	return args.Error(0)
}

func (m *MockRepository) ReleasePending(ctx context.Context, questKey int64) error {
	args := m.Called(ctx, questKey)
	return args.Error(0)
}

func (m *MockRepository) RecordTx(ctx context.Context, questKey int64, field quest.TxField, txRef string) error {
	args := m.Called(ctx, questKey, field, txRef)
	return args.Error(0)
}

func (m *MockRepository) CompleteTransition(ctx context.Context, questKey int64, target quest.Status, field quest.TxField, txRef string, window *quest.PhaseWindow) error {
	args := m.Called(ctx, questKey, target, field, txRef, window)
	return args.Error(0)
}

func (m *MockRepository) SetAnswers(ctx context.Context, questKey int64, answers []int64) error {
	args := m.Called(ctx, questKey, answers)
	return args.Error(0)
}

func (m *MockRepository) SetSelectedAnswer(ctx context.Context, questKey int64, answerKey int64) error {
	args := m.Called(ctx, questKey, answerKey)
	return args.Error(0)
}
