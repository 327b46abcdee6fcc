package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/questledger/questledger/internal/domain/vote"
)

// MockRepository is a mock implementation of vote.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, v *vote.Vote) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRepository) GetByQuestAndVoter(ctx context.Context, questKey int64, voter string) (*vote.Vote, error) {
	args := m.Called(ctx, questKey, voter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vote.Vote), args.Error(1)
}

func (m *MockRepository) ListByQuest(ctx context.Context, questKey int64) ([]*vote.Vote, error) {
	args := m.Called(ctx, questKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vote.Vote), args.Error(1)
}

func (m *MockRepository) RecordPhase(ctx context.Context, questKey int64, voter string, rec vote.PhaseRecord) error {
	args := m.Called(ctx, questKey, voter, rec)
	return args.Error(0)
}

func (m *MockRepository) SetReward(ctx context.Context, questKey int64, voter string, reward int64) error {
	args := m.Called(ctx, questKey, voter, reward)
	return args.Error(0)
}

func (m *MockRepository) Archive(ctx context.Context, questKey int64) error {
	args := m.Called(ctx, questKey)
	return args.Error(0)
}
