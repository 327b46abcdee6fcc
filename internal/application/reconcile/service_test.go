package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	auditMocks "github.com/questledger/questledger/internal/domain/audit/mocks"
	"github.com/questledger/questledger/internal/domain/ledger"
	ledgerMocks "github.com/questledger/questledger/internal/domain/ledger/mocks"
	outboxMocks "github.com/questledger/questledger/internal/domain/outbox/mocks"
	"github.com/questledger/questledger/internal/domain/quest"
	questMocks "github.com/questledger/questledger/internal/domain/quest/mocks"
	"github.com/questledger/questledger/internal/domain/vote"
	voteMocks "github.com/questledger/questledger/internal/domain/vote/mocks"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
)

type fixture struct {
	questRepo  *questMocks.MockRepository
	voteRepo   *voteMocks.MockRepository
	outboxRepo *outboxMocks.MockRepository
	gateway    *ledgerMocks.MockGateway
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	questRepo := new(questMocks.MockRepository)
	voteRepo := new(voteMocks.MockRepository)
	outboxRepo := new(outboxMocks.MockRepository)
	gateway := ledgerMocks.NewMockGateway(ctrl)

	auditRepo := new(auditMocks.MockRepository)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	auditSvc := appAudit.NewService(auditRepo, zerolog.Nop(), nil)

	svc := NewService(questRepo, voteRepo, outboxRepo, gateway, auditSvc, metrics.New(), zerolog.Nop())
	return &fixture{questRepo: questRepo, voteRepo: voteRepo, outboxRepo: outboxRepo, gateway: gateway, svc: svc}
}

func (f *fixture) expectEmptyTallies(questKey int64) {
	f.gateway.EXPECT().
		FetchVoteTallies(gomock.Any(), questKey).
		Return(&ledger.VoteTallies{QuestKey: questKey, OptionTotals: map[int64]int64{}}, nil)
}

func TestService_ReconcileQuest(t *testing.T) {
	t.Run("backfills a store that lags one edge", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusDraft, DraftTx: "tx-draft"}

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{QuestKey: 5, Exists: true, DecisionStarted: true}, nil)
		f.expectEmptyTallies(5)
		f.questRepo.On("CompleteTransition", mock.Anything, int64(5), quest.StatusApprove, quest.TxDraft, "tx-draft", (*quest.PhaseWindow)(nil)).Return(nil)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Backfilled)
		assert.Empty(t, report.Unsyncable)
		f.questRepo.AssertExpectations(t)
	})

	t.Run("skips quests owned by the monitor", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusDraft, Pending: true}

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.outboxRepo.On("HasTracking", mock.Anything, int64(5)).Return(true, nil)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Zero(t, report.Backfilled)
	})

	t.Run("skips a store ahead of the provable flags", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusMarketSuccess}

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{QuestKey: 5, Exists: true, Published: true, Finalized: true}, nil)
		f.expectEmptyTallies(5)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Empty(t, report.Unsyncable)
	})

	t.Run("flags a store more than one edge behind", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusDraft}

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{QuestKey: 5, Exists: true, DecisionStarted: true, Published: true}, nil)
		f.expectEmptyTallies(5)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, []int64{5}, report.Unsyncable)
		f.questRepo.AssertNotCalled(t, "CompleteTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("backfills the selected answer", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusPublish, Answers: []int64{10, 20}}
		selected := int64(20)

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{
				QuestKey:       5,
				Exists:         true,
				Published:      true,
				SelectedAnswer: &selected,
			}, nil)
		f.expectEmptyTallies(5)
		f.questRepo.On("SetSelectedAnswer", mock.Anything, int64(5), int64(20)).Return(nil)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		f.questRepo.AssertExpectations(t)
	})

	t.Run("backfills vote records the store is missing", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusDraft}
		option := int64(1)

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{QuestKey: 5, Exists: true}, nil)
		f.gateway.EXPECT().
			FetchVoteTallies(gomock.Any(), int64(5)).
			Return(&ledger.VoteTallies{
				QuestKey: 5,
				Records: []ledger.VoteRecord{
					{Voter: "alice", Phase: ledger.OpVoteDraft, Option: 1, Power: 30},
					{Voter: "bob", Phase: ledger.OpVoteDraft, Option: 2, Power: 10},
					{Voter: "mallory", Phase: ledger.OpVoteDecision, Option: 1, Power: 5},
				},
				OptionTotals: map[int64]int64{1: 30, 2: 10},
			}, nil)

		// alice already has her draft vote; bob's is missing; mallory has no
		// local row at all, so her decision-round record cannot be placed.
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(5), "alice").
			Return(&vote.Vote{QuestKey: 5, Voter: "alice", DraftOption: &option}, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(5), "bob").Return(nil, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(5), "mallory").Return(nil, nil)
		f.voteRepo.On("Create", mock.Anything, mock.MatchedBy(func(v *vote.Vote) bool {
			return v.QuestKey == 5 && v.Voter == "bob" && v.Power == 10
		})).Return(nil)
		f.voteRepo.On("RecordPhase", mock.Anything, int64(5), "bob", mock.MatchedBy(func(rec vote.PhaseRecord) bool {
			return rec.Phase == vote.PhaseDraft && rec.Option == 2 && rec.Power == 10
		})).Return(nil)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.VotesBackfilled)
		assert.Equal(t, 1, report.UnsyncableVotes)
		f.voteRepo.AssertExpectations(t)
		f.voteRepo.AssertNotCalled(t, "RecordPhase", mock.Anything, int64(5), "alice", mock.Anything)
	})

	t.Run("store-only quest with no ledger record is skipped", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 5, Status: quest.StatusDraft}

		f.questRepo.On("GetByKey", mock.Anything, int64(5)).Return(q, nil)
		f.gateway.EXPECT().
			FetchGovernanceItem(gomock.Any(), int64(5)).
			Return(&ledger.GovernanceItem{QuestKey: 5, Exists: false}, nil)

		report, err := f.svc.ReconcileQuest(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
	})
}
