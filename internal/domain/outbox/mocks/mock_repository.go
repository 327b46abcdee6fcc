package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/questledger/questledger/internal/domain/outbox"
)

// MockRepository is a mock implementation of outbox.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *outbox.PendingTransaction) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*outbox.PendingTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.PendingTransaction), args.Error(1)
}

func (m *MockRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*outbox.PendingTransaction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.PendingTransaction), args.Error(1)
}

func (m *MockRepository) ListTracking(ctx context.Context, limit int) ([]*outbox.PendingTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.PendingTransaction), args.Error(1)
}

func (m *MockRepository) Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextPollAt time.Time) error {
	args := m.Called(ctx, id, attempts, nextPollAt)
	return args.Error(0)
}

func (m *MockRepository) Close(ctx context.Context, id uuid.UUID, state outbox.State, resolvedAt time.Time) error {
	args := m.Called(ctx, id, state, resolvedAt)
	return args.Error(0)
}

func (m *MockRepository) HasTracking(ctx context.Context, questKey int64) (bool, error) {
	args := m.Called(ctx, questKey)
	return args.Bool(0), args.Error(1)
}
