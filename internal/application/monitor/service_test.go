package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	auditMocks "github.com/questledger/questledger/internal/domain/audit/mocks"
	"github.com/questledger/questledger/internal/domain/ledger"
	ledgerMocks "github.com/questledger/questledger/internal/domain/ledger/mocks"
	"github.com/questledger/questledger/internal/domain/outbox"
	outboxMocks "github.com/questledger/questledger/internal/domain/outbox/mocks"
	"github.com/questledger/questledger/internal/domain/quest"
	questMocks "github.com/questledger/questledger/internal/domain/quest/mocks"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
)

type fixture struct {
	repo      *outboxMocks.MockRepository
	questRepo *questMocks.MockRepository
	gateway   *ledgerMocks.MockGateway
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := new(outboxMocks.MockRepository)
	questRepo := new(questMocks.MockRepository)
	gateway := ledgerMocks.NewMockGateway(ctrl)

	auditRepo := new(auditMocks.MockRepository)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	auditSvc := appAudit.NewService(auditRepo, zerolog.Nop(), nil)

	svc := NewService(repo, questRepo, gateway, auditSvc, metrics.New(), time.Second, 3, zerolog.Nop())
	return &fixture{repo: repo, questRepo: questRepo, gateway: gateway, svc: svc}
}

func trackingEntry(questKey int64) *outbox.PendingTransaction {
	return &outbox.PendingTransaction{
		ID:           uuid.New(),
		QuestKey:     questKey,
		Operation:    ledger.OpFinish,
		TxRef:        "tx-1",
		TargetStatus: quest.StatusFinish,
		TxField:      quest.TxFinish,
		MaxAttempts:  3,
		State:        outbox.StateTracking,
	}
}

func TestService_Track(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p *outbox.PendingTransaction) bool {
		return p.QuestKey == 42 &&
			p.Operation == ledger.OpFinish &&
			p.TxRef == "tx-1" &&
			p.TargetStatus == quest.StatusFinish &&
			p.State == outbox.StateTracking &&
			p.MaxAttempts == 3 &&
			p.Window == nil
	})).Return(nil)

	err := f.svc.Track(context.Background(), 42, ledger.OpFinish, "tx-1", quest.StatusFinish, quest.TxFinish, nil)

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestService_Track_PersistsWindow(t *testing.T) {
	f := newFixture(t)
	start := time.Now().UTC()
	end := start.Add(time.Hour)
	window := &quest.PhaseWindow{Phase: quest.WindowDecision, StartAt: &start, EndAt: &end}

	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p *outbox.PendingTransaction) bool {
		return p.Window != nil &&
			p.Window.Phase == quest.WindowDecision &&
			p.Window.StartAt.Equal(start) &&
			p.Window.EndAt.Equal(end)
	})).Return(nil)

	err := f.svc.Track(context.Background(), 42, ledger.OpStartDecision, "tx-1", quest.StatusApprove, quest.TxDraft, window)

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestService_ProcessDue(t *testing.T) {
	t.Run("confirmed entry applies the deferred transition", func(t *testing.T) {
		f := newFixture(t)
		entry := trackingEntry(42)

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxConfirmed, nil)
		f.questRepo.On("CompleteTransition", mock.Anything, int64(42), quest.StatusFinish, quest.TxFinish, "tx-1", (*quest.PhaseWindow)(nil)).Return(nil)
		f.repo.On("Close", mock.Anything, entry.ID, outbox.StateResolved, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.questRepo.AssertExpectations(t)
		f.repo.AssertExpectations(t)
	})

	t.Run("confirmed entry restores the deferred voting window", func(t *testing.T) {
		f := newFixture(t)
		start := time.Now().UTC()
		end := start.Add(time.Hour)
		entry := trackingEntry(42)
		entry.Operation = ledger.OpStartDecision
		entry.TargetStatus = quest.StatusApprove
		entry.TxField = quest.TxDraft
		entry.Window = &quest.PhaseWindow{Phase: quest.WindowDecision, StartAt: &start, EndAt: &end}

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxConfirmed, nil)
		f.questRepo.On("CompleteTransition", mock.Anything, int64(42), quest.StatusApprove, quest.TxDraft, "tx-1", entry.Window).Return(nil)
		f.repo.On("Close", mock.Anything, entry.ID, outbox.StateResolved, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.questRepo.AssertExpectations(t)
	})

	t.Run("failed entry releases the pending flag", func(t *testing.T) {
		f := newFixture(t)
		entry := trackingEntry(42)

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxFailed, nil)
		f.questRepo.On("ReleasePending", mock.Anything, int64(42)).Return(nil)
		f.repo.On("Close", mock.Anything, entry.ID, outbox.StateFailed, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.questRepo.AssertNotCalled(t, "CompleteTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pending entry is rescheduled", func(t *testing.T) {
		f := newFixture(t)
		entry := trackingEntry(42)
		entry.Attempts = 1

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxPending, nil)
		f.repo.On("Reschedule", mock.Anything, entry.ID, 2, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("attempt budget exhausted times out and releases", func(t *testing.T) {
		f := newFixture(t)
		entry := trackingEntry(42)
		entry.Attempts = 2

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxPending, nil)
		f.questRepo.On("ReleasePending", mock.Anything, int64(42)).Return(nil)
		f.repo.On("Close", mock.Anything, entry.ID, outbox.StateTimedOut, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("status query failure counts as an attempt", func(t *testing.T) {
		f := newFixture(t)
		entry := trackingEntry(42)

		f.repo.On("ListDue", mock.Anything, mock.Anything, 50).Return([]*outbox.PendingTransaction{entry}, nil)
		f.gateway.EXPECT().TransactionStatus(gomock.Any(), "tx-1").Return(ledger.TxUnknown, assert.AnError)
		f.repo.On("Reschedule", mock.Anything, entry.ID, 1, mock.Anything).Return(nil)

		err := f.svc.ProcessDue(context.Background())

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})
}

func TestService_RecoverPending(t *testing.T) {
	f := newFixture(t)
	entry := trackingEntry(42)

	pending := true
	stuckTracked := &quest.Quest{QuestKey: 42, Status: quest.StatusMarketSuccess, Pending: true}
	stuckOrphan := &quest.Quest{QuestKey: 77, Status: quest.StatusDraft, Pending: true}

	f.repo.On("ListTracking", mock.Anything, 0).Return([]*outbox.PendingTransaction{entry}, nil)
	f.repo.On("Reschedule", mock.Anything, entry.ID, entry.Attempts, mock.Anything).Return(nil)
	f.questRepo.On("List", mock.Anything, quest.Filter{Pending: &pending}, 0, 0).Return([]*quest.Quest{stuckTracked, stuckOrphan}, nil)
	f.questRepo.On("ReleasePending", mock.Anything, int64(77)).Return(nil)

	err := f.svc.RecoverPending(context.Background())

	require.NoError(t, err)
	// The quest with a tracking entry keeps its lock.
	f.questRepo.AssertNotCalled(t, "ReleasePending", mock.Anything, int64(42))
	f.questRepo.AssertExpectations(t)
}
