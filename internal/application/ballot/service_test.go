package ballot

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	auditMocks "github.com/questledger/questledger/internal/domain/audit/mocks"
	"github.com/questledger/questledger/internal/domain/ledger"
	ledgerMocks "github.com/questledger/questledger/internal/domain/ledger/mocks"
	"github.com/questledger/questledger/internal/domain/quest"
	questMocks "github.com/questledger/questledger/internal/domain/quest/mocks"
	"github.com/questledger/questledger/internal/domain/vote"
	voteMocks "github.com/questledger/questledger/internal/domain/vote/mocks"
)

type fixture struct {
	voteRepo  *voteMocks.MockRepository
	questRepo *questMocks.MockRepository
	gateway   *ledgerMocks.MockGateway
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	voteRepo := new(voteMocks.MockRepository)
	questRepo := new(questMocks.MockRepository)
	gateway := ledgerMocks.NewMockGateway(ctrl)

	auditRepo := new(auditMocks.MockRepository)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	auditSvc := appAudit.NewService(auditRepo, zerolog.Nop(), nil)

	svc := NewService(voteRepo, questRepo, gateway, auditSvc, zerolog.Nop())
	return &fixture{voteRepo: voteRepo, questRepo: questRepo, gateway: gateway, svc: svc}
}

func testAuthority() ledger.Authority {
	return ledger.Authority{ID: "ops"}
}

func openWindow() (*time.Time, *time.Time) {
	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	return &start, &end
}

func TestService_Cast(t *testing.T) {
	t.Run("records a draft vote", func(t *testing.T) {
		f := newFixture(t)
		start, end := openWindow()
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusDraft, DraftStartAt: start, DraftEndAt: end}
		option := int64(2)

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(nil, nil).Once()
		f.gateway.EXPECT().
			VoteDraft(gomock.Any(), gomock.Any(), int64(1), "bob", int64(2), int64(10)).
			Return(ledger.SubmitResult{TxRef: "tx-vote", Confirmed: true}, nil)
		f.voteRepo.On("Create", mock.Anything, mock.MatchedBy(func(v *vote.Vote) bool {
			return v.QuestKey == 1 && v.Voter == "bob" && v.Power == 10
		})).Return(nil)
		f.voteRepo.On("RecordPhase", mock.Anything, int64(1), "bob", vote.PhaseRecord{
			Phase:  vote.PhaseDraft,
			Option: 2,
			Power:  10,
			TxRef:  "tx-vote",
		}).Return(nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(&vote.Vote{
			QuestKey:    1,
			Voter:       "bob",
			DraftOption: &option,
			Power:       10,
			DraftTx:     "tx-vote",
		}, nil).Once()

		v, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 2, Power: 10,
		})

		require.NoError(t, err)
		require.NotNil(t, v.DraftOption)
		assert.Equal(t, int64(2), *v.DraftOption)
		f.voteRepo.AssertExpectations(t)
	})

	t.Run("rejects a success vote before the draft vote", func(t *testing.T) {
		f := newFixture(t)
		start, end := openWindow()
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusApprove, DecisionStartAt: start, DecisionEndAt: end}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(nil, nil)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseSuccess, Option: 1, Power: 5,
		})

		require.ErrorIs(t, err, vote.ErrPhaseOrder)
	})

	t.Run("rejects the wrong status for the phase", func(t *testing.T) {
		f := newFixture(t)
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusPublish}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 1, Power: 5,
		})

		require.ErrorIs(t, err, quest.ErrInvalidStatus)
	})

	t.Run("rejects a closed window", func(t *testing.T) {
		f := newFixture(t)
		start := time.Now().UTC().Add(-2 * time.Hour)
		end := time.Now().UTC().Add(-time.Hour)
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusDraft, DraftStartAt: &start, DraftEndAt: &end}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 1, Power: 5,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})

	t.Run("rejects a duplicate phase vote", func(t *testing.T) {
		f := newFixture(t)
		start, end := openWindow()
		option := int64(1)
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusDraft, DraftStartAt: start, DraftEndAt: end}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(&vote.Vote{
			QuestKey: 1, Voter: "bob", DraftOption: &option,
		}, nil)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 2, Power: 5,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, vote.ErrDuplicate)
	})

	t.Run("rejects an answer vote outside the answer set", func(t *testing.T) {
		f := newFixture(t)
		start, end := openWindow()
		draftOpt, successOpt := int64(1), int64(1)
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusPublish, Answers: []int64{10, 20}, AnswerStartAt: start, AnswerEndAt: end}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(&vote.Vote{
			QuestKey: 1, Voter: "bob", DraftOption: &draftOpt, SuccessOption: &successOpt,
		}, nil)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseAnswer, Option: 99, Power: 5,
		})

		var cerr *ledger.ContractError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "AnswerNotInSet", cerr.Code)
	})

	t.Run("ledger already has the vote", func(t *testing.T) {
		f := newFixture(t)
		start, end := openWindow()
		option := int64(2)
		q := &quest.Quest{QuestKey: 1, Status: quest.StatusDraft, DraftStartAt: start, DraftEndAt: end}

		f.questRepo.On("GetByKey", mock.Anything, int64(1)).Return(q, nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(nil, nil).Once()
		f.gateway.EXPECT().
			VoteDraft(gomock.Any(), gomock.Any(), int64(1), "bob", int64(2), int64(10)).
			Return(ledger.SubmitResult{}, &ledger.ContractError{Op: ledger.OpVoteDraft, Code: "DuplicateVote", Detail: "vote already in use"})
		f.voteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.voteRepo.On("RecordPhase", mock.Anything, int64(1), "bob", mock.Anything).Return(nil)
		f.voteRepo.On("GetByQuestAndVoter", mock.Anything, int64(1), "bob").Return(&vote.Vote{
			QuestKey: 1, Voter: "bob", DraftOption: &option,
		}, nil).Once()

		v, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 2, Power: 10,
		})

		require.NoError(t, err)
		require.NotNil(t, v)
	})

	t.Run("rejects non-positive power", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Cast(context.Background(), testAuthority(), Request{
			QuestKey: 1, Voter: "bob", Phase: vote.PhaseDraft, Option: 1, Power: 0,
		})

		require.Error(t, err)
	})
}
