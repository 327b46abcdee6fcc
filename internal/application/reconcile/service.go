package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	"github.com/questledger/questledger/internal/domain/audit"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/outbox"
	"github.com/questledger/questledger/internal/domain/quest"
	"github.com/questledger/questledger/internal/domain/vote"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
)

// Report summarizes one reconciliation pass.
type Report struct {
	Examined        int      `json:"examined"`
	Backfilled      int      `json:"backfilled"`
	VotesBackfilled int      `json:"votesBackfilled"`
	Skipped         int      `json:"skipped"`
	Unsyncable      []int64  `json:"unsyncable,omitempty"`
	UnsyncableVotes int      `json:"unsyncableVotes,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// Service repairs store rows that lag the ledger: the ledger is the source
// of truth for applied operations, the store for everything else. It only
// moves quests forward, one step per pass, and never touches a quest with
// an in-flight transition.
type Service struct {
	questRepo  quest.Repository
	voteRepo   vote.Repository
	outboxRepo outbox.Repository
	gateway    ledger.Gateway
	auditSvc   *appAudit.Service
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewService creates a reconciliation service.
func NewService(
	questRepo quest.Repository,
	voteRepo vote.Repository,
	outboxRepo outbox.Repository,
	gateway ledger.Gateway,
	auditSvc *appAudit.Service,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		questRepo:  questRepo,
		voteRepo:   voteRepo,
		outboxRepo: outboxRepo,
		gateway:    gateway,
		auditSvc:   auditSvc,
		metrics:    m,
		logger:     logger.With().Str("service", "reconcile").Logger(),
	}
}

// ReconcileQuest repairs a single quest against its governance item.
func (s *Service) ReconcileQuest(ctx context.Context, questKey int64) (*Report, error) {
	q, err := s.questRepo.GetByKey(ctx, questKey)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, quest.ErrNotFound
	}
	report := &Report{}
	s.reconcileOne(ctx, q, report)
	return report, nil
}

// Reconcile repairs every non-terminal quest.
func (s *Service) Reconcile(ctx context.Context) (*Report, error) {
	report := &Report{}
	for _, status := range []quest.Status{
		quest.StatusDraft,
		quest.StatusApprove,
		quest.StatusPublish,
		quest.StatusDaoSuccess,
		quest.StatusMarketSuccess,
	} {
		st := status
		quests, err := s.questRepo.List(ctx, quest.Filter{Status: &st}, 0, 0)
		if err != nil {
			return report, fmt.Errorf("list %s quests: %w", status, err)
		}
		for _, q := range quests {
			s.reconcileOne(ctx, q, report)
		}
	}
	s.logger.Info().
		Int("examined", report.Examined).
		Int("backfilled", report.Backfilled).
		Int("skipped", report.Skipped).
		Int("unsyncable", len(report.Unsyncable)).
		Msg("reconciliation pass completed")
	return report, nil
}

func (s *Service) reconcileOne(ctx context.Context, q *quest.Quest, report *Report) {
	report.Examined++

	// A quest with an in-flight transition belongs to the monitor.
	if q.Pending {
		if tracking, err := s.outboxRepo.HasTracking(ctx, q.QuestKey); err != nil || tracking {
			report.Skipped++
			return
		}
	}

	item, err := s.gateway.FetchGovernanceItem(ctx, q.QuestKey)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("quest %d: %v", q.QuestKey, err))
		return
	}
	if item == nil || !item.Exists {
		// Nothing on the ledger yet; DRAFT and REJECT rows are store-only.
		report.Skipped++
		return
	}

	s.reconcileVotes(ctx, q.QuestKey, report)

	target, ok := s.ledgerStatus(item)
	if !ok {
		report.Unsyncable = append(report.Unsyncable, q.QuestKey)
		s.metrics.ReconcileUnsyncableTotal.Inc()
		s.logger.Warn().
			Int64("quest_key", q.QuestKey).
			Str("status", string(q.Status)).
			Msg("governance item state has no mappable quest status")
		return
	}

	if statusRank(target) <= statusRank(q.Status) {
		// The store already reflects everything the ledger flags can prove.
		// Success and finish leave no flag, so a store ahead of the mapping
		// is normal, not a divergence.
		s.backfillSelectedAnswer(ctx, q, item)
		report.Skipped++
		return
	}
	if !q.CanTransitionTo(target) {
		// The store is more than one step behind or on a diverged branch.
		// Advancing would skip edges, so this is surfaced, not repaired.
		report.Unsyncable = append(report.Unsyncable, q.QuestKey)
		s.metrics.ReconcileUnsyncableTotal.Inc()
		s.logger.Warn().
			Int64("quest_key", q.QuestKey).
			Str("store_status", string(q.Status)).
			Str("ledger_status", string(target)).
			Msg("store and ledger status cannot be reconciled by one transition")
		return
	}

	field, txRef := s.edgeField(q, target)
	if err := s.questRepo.CompleteTransition(ctx, q.QuestKey, target, field, txRef, nil); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("quest %d: backfill: %v", q.QuestKey, err))
		return
	}
	s.backfillSelectedAnswer(ctx, q, item)
	report.Backfilled++
	s.metrics.ReconcileBackfilledTotal.Inc()
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeQuest,
		EntityID:   fmt.Sprintf("%d", q.QuestKey),
		Action:     audit.ActionReconcile,
		Actor:      "reconcile",
		Reason:     fmt.Sprintf("status backfilled %s to %s from ledger", q.Status, target),
	})
	s.logger.Info().
		Int64("quest_key", q.QuestKey).
		Str("from", string(q.Status)).
		Str("to", string(target)).
		Msg("quest status backfilled from ledger")
}

// ledgerStatus maps a governance item's flags to the furthest quest status
// they prove. Flags are cumulative on the ledger, so the checks run from
// latest to earliest.
func (s *Service) ledgerStatus(item *ledger.GovernanceItem) (quest.Status, bool) {
	switch {
	case item.Adjourned:
		return quest.StatusAdjourn, true
	case item.Finalized:
		return quest.StatusDaoSuccess, true
	case item.Published:
		return quest.StatusPublish, true
	case item.DecisionStarted:
		return quest.StatusApprove, true
	case item.Exists:
		return quest.StatusDraft, true
	}
	return "", false
}

// edgeField picks the tx column for a backfilled edge. The reference is
// whatever the store already recorded for the phase, which may be empty
// when the submission happened out of band.
func (s *Service) edgeField(q *quest.Quest, target quest.Status) (quest.TxField, string) {
	var field quest.TxField
	switch target {
	case quest.StatusApprove:
		field = quest.TxDraft
	case quest.StatusPublish:
		field = quest.TxPublish
	case quest.StatusDaoSuccess:
		field = quest.TxAnswer
	case quest.StatusMarketSuccess:
		field = quest.TxSuccess
	case quest.StatusFinish:
		field = quest.TxFinish
	case quest.StatusAdjourn:
		field = quest.TxAdjourn
	default:
		return "", ""
	}
	return field, q.TxRef(field)
}

// statusRank orders the happy-path statuses for forward-only repair.
// Terminal side states rank above everything so they are never regressed.
func statusRank(s quest.Status) int {
	switch s {
	case quest.StatusDraft:
		return 0
	case quest.StatusApprove:
		return 1
	case quest.StatusPublish:
		return 2
	case quest.StatusDaoSuccess:
		return 3
	case quest.StatusMarketSuccess:
		return 4
	case quest.StatusFinish:
		return 5
	default:
		return 6
	}
}

// reconcileVotes inserts vote records the ledger tallies carry but the store
// is missing. Draft records may create a row; later rounds lean on the
// RecordPhase prior-phase guard, so a record whose prior phase never made it
// into the store is reported, not forced in out of order.
func (s *Service) reconcileVotes(ctx context.Context, questKey int64, report *Report) {
	tallies, err := s.gateway.FetchVoteTallies(ctx, questKey)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("quest %d: fetch tallies: %v", questKey, err))
		return
	}
	for _, rec := range tallies.Records {
		phase, option, ok := votePhase(rec)
		if !ok {
			continue
		}
		v, err := s.voteRepo.GetByQuestAndVoter(ctx, questKey, rec.Voter)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("quest %d: voter %s: %v", questKey, rec.Voter, err))
			continue
		}
		if phaseRecorded(v, phase) {
			continue
		}
		if v == nil {
			if phase != vote.PhaseDraft {
				report.UnsyncableVotes++
				continue
			}
			now := time.Now().UTC()
			v = &vote.Vote{QuestKey: questKey, Voter: rec.Voter, Power: rec.Power, CreatedAt: now, UpdatedAt: now}
			if err := s.voteRepo.Create(ctx, v); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("quest %d: voter %s: create: %v", questKey, rec.Voter, err))
				continue
			}
		}
		pr := vote.PhaseRecord{Phase: phase, Option: option, Power: rec.Power}
		if err := s.voteRepo.RecordPhase(ctx, questKey, rec.Voter, pr); err != nil {
			if errors.Is(err, vote.ErrPhaseOrder) {
				report.UnsyncableVotes++
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("quest %d: voter %s: record %s: %v", questKey, rec.Voter, phase, err))
			continue
		}
		report.VotesBackfilled++
		s.logger.Info().
			Int64("quest_key", questKey).
			Str("voter", rec.Voter).
			Str("phase", string(phase)).
			Msg("vote record backfilled from ledger")
	}
}

func votePhase(rec ledger.VoteRecord) (vote.Phase, int64, bool) {
	switch rec.Phase {
	case ledger.OpVoteDraft:
		return vote.PhaseDraft, rec.Option, true
	case ledger.OpVoteDecision:
		return vote.PhaseSuccess, rec.Option, true
	case ledger.OpVoteAnswer:
		return vote.PhaseAnswer, rec.AnswerKey, true
	}
	return "", 0, false
}

func phaseRecorded(v *vote.Vote, phase vote.Phase) bool {
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

func (s *Service) backfillSelectedAnswer(ctx context.Context, q *quest.Quest, item *ledger.GovernanceItem) {
	if item.SelectedAnswer == nil || q.SelectedAnswer != nil {
		return
	}
	if err := s.questRepo.SetSelectedAnswer(ctx, q.QuestKey, *item.SelectedAnswer); err != nil {
		s.logger.Warn().Err(err).Int64("quest_key", q.QuestKey).Msg("failed to backfill selected answer")
	}
}
