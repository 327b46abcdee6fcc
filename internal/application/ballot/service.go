package ballot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	"github.com/questledger/questledger/internal/domain/audit"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/quest"
	"github.com/questledger/questledger/internal/domain/vote"
)

// Request is one vote submission.
type Request struct {
	QuestKey int64
	Voter    string
	Phase    vote.Phase
	Option   int64
	Power    int64
}

// Service is the vote write path. Each phase maps to one quest status and
// one ledger vote operation; per-voter phase ordering is strict.
type Service struct {
	voteRepo  vote.Repository
	questRepo quest.Repository
	gateway   ledger.Gateway
	auditSvc  *appAudit.Service
	logger    zerolog.Logger
}

// NewService creates a ballot service.
func NewService(
	voteRepo vote.Repository,
	questRepo quest.Repository,
	gateway ledger.Gateway,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		voteRepo:  voteRepo,
		questRepo: questRepo,
		gateway:   gateway,
		auditSvc:  auditSvc,
		logger:    logger.With().Str("service", "ballot").Logger(),
	}
}

// Cast records a vote on the ledger and in the store. The quest must be in
// the status the phase votes on, inside the matching window.
func (s *Service) Cast(ctx context.Context, auth ledger.Authority, req Request) (*vote.Vote, error) {
	if req.Power <= 0 {
		return nil, fmt.Errorf("vote power must be positive")
	}
	q, err := s.questRepo.GetByKey(ctx, req.QuestKey)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, quest.ErrNotFound
	}
	if err := s.checkPhase(q, req.Phase); err != nil {
		return nil, err
	}

	existing, err := s.voteRepo.GetByQuestAndVoter(ctx, req.QuestKey, req.Voter)
	if err != nil {
		return nil, err
	}
	if err := existing.CanRecord(req.Phase); err != nil {
		return nil, err
	}
	if recorded(existing, req.Phase) {
		return nil, fmt.Errorf("%w: voter %s in the %s phase", vote.ErrDuplicate, req.Voter, req.Phase)
	}
	if req.Phase == vote.PhaseAnswer && !answerInSet(q.Answers, req.Option) {
		return nil, &ledger.ContractError{Op: ledger.OpVoteAnswer, Code: "AnswerNotInSet", Detail: fmt.Sprintf("answer %d is not in the quest answer set", req.Option)}
	}

	res, err := s.submit(ctx, auth, req)
	if err != nil {
		if ledger.Classify(err) == ledger.ClassAlreadyApplied {
			// The ledger has the vote; fall through and record it locally.
			res = ledger.SubmitResult{Confirmed: true}
		} else {
			return nil, err
		}
	}

	if existing == nil {
		v := &vote.Vote{
			QuestKey:  req.QuestKey,
			Voter:     req.Voter,
			Power:     req.Power,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.voteRepo.Create(ctx, v); err != nil {
			return nil, err
		}
	}
	rec := vote.PhaseRecord{Phase: req.Phase, Option: req.Option, Power: req.Power, TxRef: res.TxRef}
	if err := s.voteRepo.RecordPhase(ctx, req.QuestKey, req.Voter, rec); err != nil {
		s.logger.Error().Err(err).
			Int64("quest_key", req.QuestKey).
			Str("voter", req.Voter).
			Str("phase", string(req.Phase)).
			Str("tx_ref", res.TxRef).
			Msg("vote recorded on ledger but local store update failed")
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeVote,
		EntityID:   fmt.Sprintf("%d:%s", req.QuestKey, req.Voter),
		Action:     audit.ActionVote,
		Actor:      req.Voter,
		TxRef:      res.TxRef,
		Detail:     map[string]interface{}{"phase": req.Phase, "option": req.Option, "power": req.Power},
	})
	return s.voteRepo.GetByQuestAndVoter(ctx, req.QuestKey, req.Voter)
}

// Get returns one voter's record for a quest.
func (s *Service) Get(ctx context.Context, questKey int64, voter string) (*vote.Vote, error) {
	v, err := s.voteRepo.GetByQuestAndVoter(ctx, questKey, voter)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, vote.ErrNotFound
	}
	return v, nil
}

// ListByQuest returns all vote records for a quest, archived included.
func (s *Service) ListByQuest(ctx context.Context, questKey int64) ([]*vote.Vote, error) {
	return s.voteRepo.ListByQuest(ctx, questKey)
}

// SetReward records a voter's payout.
func (s *Service) SetReward(ctx context.Context, questKey int64, voter string, reward int64) error {
	if reward < 0 {
		return fmt.Errorf("reward must not be negative")
	}
	return s.voteRepo.SetReward(ctx, questKey, voter, reward)
}

// checkPhase ties each voting phase to the quest status and window it runs
// in.
func (s *Service) checkPhase(q *quest.Quest, phase vote.Phase) error {
	now := time.Now().UTC()
	switch phase {
	case vote.PhaseDraft:
		if q.Status != quest.StatusDraft {
			return fmt.Errorf("%w: draft votes require DRAFT, got %s", quest.ErrInvalidStatus, q.Status)
		}
		return checkWindow(now, q.DraftStartAt, q.DraftEndAt)
	case vote.PhaseSuccess:
		if q.Status != quest.StatusApprove {
			return fmt.Errorf("%w: success votes require APPROVE, got %s", quest.ErrInvalidStatus, q.Status)
		}
		return checkWindow(now, q.DecisionStartAt, q.DecisionEndAt)
	case vote.PhaseAnswer:
		if q.Status != quest.StatusPublish {
			return fmt.Errorf("%w: answer votes require PUBLISH, got %s", quest.ErrInvalidStatus, q.Status)
		}
		return checkWindow(now, q.AnswerStartAt, q.AnswerEndAt)
	}
	return fmt.Errorf("unknown vote phase %q", phase)
}

func (s *Service) submit(ctx context.Context, auth ledger.Authority, req Request) (ledger.SubmitResult, error) {
	switch req.Phase {
	case vote.PhaseDraft:
		return s.gateway.VoteDraft(ctx, auth, req.QuestKey, req.Voter, req.Option, req.Power)
	case vote.PhaseSuccess:
		return s.gateway.VoteDecision(ctx, auth, req.QuestKey, req.Voter, req.Option, req.Power)
	case vote.PhaseAnswer:
		return s.gateway.VoteAnswer(ctx, auth, req.QuestKey, req.Voter, req.Option, req.Power)
	}
	return ledger.SubmitResult{}, fmt.Errorf("unknown vote phase %q", req.Phase)
}

func checkWindow(now time.Time, start, end *time.Time) error {
	if start != nil && now.Before(*start) {
		return fmt.Errorf("voting window has not opened")
	}
	if end != nil && now.After(*end) {
		return fmt.Errorf("voting window has closed")
	}
	return nil
}

func answerInSet(answers []int64, key int64) bool {
	for _, a := range answers {
		if a == key {
			return true
		}
	}
	return false
}

func recorded(v *vote.Vote, phase vote.Phase) bool {
	if v == nil {
		return false
	}
	switch phase {
	case vote.PhaseDraft:
		return v.DraftOption != nil
	case vote.PhaseSuccess:
		return v.SuccessOption != nil
	case vote.PhaseAnswer:
		return v.AnswerKey != nil
	}
	return false
}
