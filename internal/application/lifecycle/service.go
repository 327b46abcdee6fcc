package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	"github.com/questledger/questledger/internal/domain/audit"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/quest"
	"github.com/questledger/questledger/internal/domain/vote"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
)

// Tracker hands unconfirmed transaction references to the transaction
// monitor together with the store update the synchronous path would have
// applied on confirmation.
type Tracker interface {
	Track(ctx context.Context, questKey int64, op ledger.Operation, txRef string, target quest.Status, field quest.TxField, window *quest.PhaseWindow) error
}

// RetryPolicy bounds the decision-phase fallback chain.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy attempts the alternate operation variant once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: 500 * time.Millisecond}
}

// Service is the transition orchestrator. It is the only component allowed
// to mutate quest status; the monitor and reconciliation only correct or
// complete work an orchestrator call began.
type Service struct {
	questRepo quest.Repository
	voteRepo  vote.Repository
	gateway   ledger.Gateway
	tracker   Tracker
	auditSvc  *appAudit.Service
	metrics   *metrics.Metrics
	retry     RetryPolicy
	logger    zerolog.Logger
}

// NewService creates a lifecycle service.
func NewService(
	questRepo quest.Repository,
	voteRepo vote.Repository,
	gateway ledger.Gateway,
	tracker Tracker,
	auditSvc *appAudit.Service,
	m *metrics.Metrics,
	retry RetryPolicy,
	logger zerolog.Logger,
) *Service {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &Service{
		questRepo: questRepo,
		voteRepo:  voteRepo,
		gateway:   gateway,
		tracker:   tracker,
		auditSvc:  auditSvc,
		metrics:   m,
		retry:     retry,
		logger:    logger.With().Str("service", "lifecycle").Logger(),
	}
}

// step is one ledger submission within a lifecycle edge. Edges with more
// than one submission keep the pending lock across all of them; only the
// final step advances status and releases the lock.
type step struct {
	op       ledger.Operation
	field    quest.TxField
	target   quest.Status
	window   *quest.PhaseWindow
	final    bool
	precheck func(ctx context.Context) (bool, error)
	submit   func(ctx context.Context) (ledger.SubmitResult, error)
}

// CreateQuest registers a new quest in DRAFT and opens its draft voting
// window. quest_key is caller-assigned and never reused.
func (s *Service) CreateQuest(ctx context.Context, questKey int64, title, creator string, draftDuration time.Duration) (*quest.Quest, error) {
	now := time.Now().UTC()
	end := now.Add(draftDuration)
	q := &quest.Quest{
		QuestKey:     questKey,
		Title:        title,
		Status:       quest.StatusDraft,
		Creator:      creator,
		DraftStartAt: &now,
		DraftEndAt:   &end,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.questRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeQuest,
		EntityID:   fmt.Sprintf("%d", questKey),
		Action:     audit.ActionCreate,
		Actor:      creator,
	})
	return q, nil
}

// GetQuest retrieves a quest by key.
func (s *Service) GetQuest(ctx context.Context, questKey int64) (*quest.Quest, error) {
	q, err := s.questRepo.GetByKey(ctx, questKey)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, quest.ErrNotFound
	}
	return q, nil
}

// ListQuests returns quests matching the filter.
func (s *Service) ListQuests(ctx context.Context, filter quest.Filter, limit, offset int) ([]*quest.Quest, error) {
	return s.questRepo.List(ctx, filter, limit, offset)
}

// AdvanceToDecision moves a DRAFT quest to APPROVE by closing the draft
// round on the ledger. When the primary variant is rejected because the
// draft tallies are exactly equal, the tie-break variant is attempted under
// the bounded retry policy.
func (s *Service) AdvanceToDecision(ctx context.Context, auth ledger.Authority, questKey int64, decisionDuration time.Duration) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusDraft)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	end := now.Add(decisionDuration)
	window := &quest.PhaseWindow{Phase: quest.WindowDecision, StartAt: &now, EndAt: &end}

	st := step{
		op:     ledger.OpStartDecision,
		field:  quest.TxDraft,
		target: quest.StatusApprove,
		window: window,
		final:  true,
		precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
			return item.DecisionStarted
		}),
		submit: func(ctx context.Context) (ledger.SubmitResult, error) {
			return s.submitDecision(ctx, auth, questKey, ledger.Window{StartAt: now, EndAt: end})
		},
	}
	return s.run(ctx, q, ledger.OpStartDecision, audit.ActionDecision, auth.ID, []step{st})
}

// submitDecision tries the primary decision variant and falls back to the
// tie-break variant when the draft tallies are exactly equal. The tie-break
// choice mirrors observed behavior of the ledger program and has not been
// confirmed as a business rule.
func (s *Service) submitDecision(ctx context.Context, auth ledger.Authority, questKey int64, window ledger.Window) (ledger.SubmitResult, error) {
	res, err := s.gateway.StartDecision(ctx, auth, questKey, window)
	if err == nil || ledger.Classify(err) != ledger.ClassFatal || !isDecisionPrecondition(err) {
		return res, err
	}

	tallies, terr := s.gateway.FetchVoteTallies(ctx, questKey)
	if terr != nil {
		s.logger.Warn().Err(terr).Int64("quest_key", questKey).Msg("tally fetch failed; keeping primary error")
		return res, err
	}
	if !tallies.Tied() {
		return res, err
	}

	for attempt := 1; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.retry.Backoff):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}
		s.logger.Info().
			Int64("quest_key", questKey).
			Int("attempt", attempt).
			Msg("draft tallies tied; attempting tie-break variant")
		res, err = s.gateway.MakeDecision(ctx, auth, questKey)
		if err == nil || ledger.Classify(err) != ledger.ClassFatal {
			return res, err
		}
	}
	return res, err
}

// PublishMarket moves an APPROVE quest to PUBLISH: records the decision
// outcome, then publishes the market with its answer set and opens the
// answer voting window.
func (s *Service) PublishMarket(ctx context.Context, auth ledger.Authority, questKey int64, answers []int64, answerDuration time.Duration) (*Outcome, error) {
	if len(answers) == 0 {
		return nil, &ledger.ContractError{Op: ledger.OpPublish, Code: "NoAnswersProvided", Detail: "no answers provided"}
	}
	q, err := s.begin(ctx, questKey, quest.StatusApprove)
	if err != nil {
		return nil, err
	}

	// Answers are fixed once set.
	if len(q.Answers) == 0 {
		if err := s.questRepo.SetAnswers(ctx, questKey, answers); err != nil {
			s.release(ctx, questKey)
			return nil, err
		}
		q.Answers = answers
	} else {
		answers = q.Answers
	}

	tallies, err := s.gateway.FetchVoteTallies(ctx, questKey)
	if err != nil {
		s.release(ctx, questKey)
		return nil, fmt.Errorf("fetch tallies: %w", err)
	}
	winning, ok := tallies.Leader()
	if !ok {
		// No leader at publish time: either the tallies are tied and the
		// ledger resolved the tie during the decision phase, or nobody voted.
		// The recorded decision wins; without one there is nothing to record.
		if item, ierr := s.gateway.FetchGovernanceItem(ctx, questKey); ierr == nil && item != nil && item.SelectedAnswer != nil {
			winning = *item.SelectedAnswer
			ok = true
		}
	}
	if !ok {
		s.release(ctx, questKey)
		return nil, &ledger.ContractError{
			Op:     ledger.OpSetDecision,
			Code:   "NoWinningOption",
			Detail: fmt.Sprintf("quest %d has no leading draft option and no recorded decision", questKey),
		}
	}

	now := time.Now().UTC()
	end := now.Add(answerDuration)
	window := &quest.PhaseWindow{Phase: quest.WindowAnswer, StartAt: &now, EndAt: &end}

	steps := []step{
		{
			op:     ledger.OpSetDecision,
			field:  quest.TxDecision,
			target: quest.StatusApprove,
			precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
				return item.DecisionRecorded
			}),
			submit: func(ctx context.Context) (ledger.SubmitResult, error) {
				return s.gateway.SetDecision(ctx, auth, questKey, winning)
			},
		},
		{
			op:     ledger.OpPublish,
			field:  quest.TxPublish,
			target: quest.StatusPublish,
			window: window,
			final:  true,
			precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
				return item.Published
			}),
			submit: func(ctx context.Context) (ledger.SubmitResult, error) {
				return s.gateway.Publish(ctx, auth, questKey, answers)
			},
		},
	}
	return s.run(ctx, q, ledger.OpPublish, audit.ActionPublish, auth.ID, steps)
}

// SelectAnswer moves a PUBLISH quest to DAO_SUCCESS: selects the answer on
// the ledger, then finalizes it. Both submissions short-circuit when the
// ledger already reflects them, so the edge is safely re-invokable.
func (s *Service) SelectAnswer(ctx context.Context, auth ledger.Authority, questKey, answerKey int64) (*Outcome, error) {
	q, err := s.questRepo.GetByKey(ctx, questKey)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, quest.ErrNotFound
	}
	if !containsAnswer(q.Answers, answerKey) {
		return nil, &ledger.ContractError{Op: ledger.OpSetAnswer, Code: "AnswerNotInSet", Detail: fmt.Sprintf("answer %d is not in the quest answer set", answerKey)}
	}
	q, err = s.begin(ctx, questKey, quest.StatusPublish)
	if err != nil {
		return nil, err
	}

	steps := []step{
		{
			op:     ledger.OpSetAnswer,
			field:  quest.TxAnswer,
			target: quest.StatusPublish,
			precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
				return item.AnswerSelected
			}),
			submit: func(ctx context.Context) (ledger.SubmitResult, error) {
				return s.gateway.SetAnswer(ctx, auth, questKey, answerKey)
			},
		},
		{
			op:     ledger.OpFinalizeAnswer,
			field:  quest.TxAnswer,
			target: quest.StatusDaoSuccess,
			final:  true,
			precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
				return item.Finalized
			}),
			submit: func(ctx context.Context) (ledger.SubmitResult, error) {
				return s.gateway.FinalizeAnswer(ctx, auth, questKey)
			},
		},
	}
	return s.run(ctx, q, ledger.OpSetAnswer, audit.ActionAnswer, auth.ID, steps)
}

// MarkMarketSuccess moves a DAO_SUCCESS quest to MARKET_SUCCESS.
func (s *Service) MarkMarketSuccess(ctx context.Context, auth ledger.Authority, questKey int64) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusDaoSuccess)
	if err != nil {
		return nil, err
	}
	st := step{
		op:     ledger.OpSuccess,
		field:  quest.TxSuccess,
		target: quest.StatusMarketSuccess,
		final:  true,
		submit: func(ctx context.Context) (ledger.SubmitResult, error) {
			return s.gateway.Success(ctx, auth, questKey)
		},
	}
	return s.run(ctx, q, ledger.OpSuccess, audit.ActionSuccess, auth.ID, []step{st})
}

// Finish moves a MARKET_SUCCESS quest to its terminal FINISH state.
func (s *Service) Finish(ctx context.Context, auth ledger.Authority, questKey int64) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusMarketSuccess)
	if err != nil {
		return nil, err
	}
	st := step{
		op:     ledger.OpFinish,
		field:  quest.TxFinish,
		target: quest.StatusFinish,
		final:  true,
		submit: func(ctx context.Context) (ledger.SubmitResult, error) {
			return s.gateway.Finish(ctx, auth, questKey)
		},
	}
	return s.run(ctx, q, ledger.OpFinish, audit.ActionFinish, auth.ID, []step{st})
}

// Adjourn aborts a non-terminal quest. Votes are archived, never deleted.
func (s *Service) Adjourn(ctx context.Context, auth ledger.Authority, questKey int64) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusDraft, quest.StatusApprove, quest.StatusPublish, quest.StatusDaoSuccess)
	if err != nil {
		return nil, err
	}
	st := step{
		op:     ledger.OpAdjourn,
		field:  quest.TxAdjourn,
		target: quest.StatusAdjourn,
		final:  true,
		precheck: s.itemCheck(questKey, func(item *ledger.GovernanceItem) bool {
			return item.Adjourned
		}),
		submit: func(ctx context.Context) (ledger.SubmitResult, error) {
			return s.gateway.Adjourn(ctx, auth, questKey)
		},
	}
	out, err := s.run(ctx, q, ledger.OpAdjourn, audit.ActionAdjourn, auth.ID, []step{st})
	if err == nil && out.Applied() {
		if aerr := s.voteRepo.Archive(ctx, questKey); aerr != nil {
			s.logger.Warn().Err(aerr).Int64("quest_key", questKey).Msg("failed to archive votes after adjourn")
		}
	}
	return out, err
}

// Reject declines a DRAFT quest. Drafts have no governance item yet, so the
// edge is store-only.
func (s *Service) Reject(ctx context.Context, auth ledger.Authority, questKey int64) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusDraft)
	if err != nil {
		return nil, err
	}
	if err := s.questRepo.CompleteTransition(ctx, questKey, quest.StatusReject, "", "", nil); err != nil {
		s.release(ctx, questKey)
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeQuest,
		EntityID:   fmt.Sprintf("%d", q.QuestKey),
		Action:     audit.ActionReject,
		Actor:      auth.ID,
	})
	s.metrics.TransitionsTotal.WithLabelValues(string(audit.ActionReject), string(OutcomeApplied)).Inc()
	return &Outcome{Status: OutcomeApplied}, nil
}

// Retrieve settles creator funds on a FINISH quest. Terminal: the status
// does not change and the edge is idempotent.
func (s *Service) Retrieve(ctx context.Context, auth ledger.Authority, questKey int64) (*Outcome, error) {
	q, err := s.begin(ctx, questKey, quest.StatusFinish)
	if err != nil {
		return nil, err
	}
	if q.RetrieveTx != "" {
		s.release(ctx, questKey)
		return &Outcome{Status: OutcomeAlreadyApplied, TxRef: q.RetrieveTx}, nil
	}
	st := step{
		op:     ledger.OpRetrieve,
		field:  quest.TxRetrieve,
		target: quest.StatusFinish,
		final:  true,
		submit: func(ctx context.Context) (ledger.SubmitResult, error) {
			return s.gateway.Retrieve(ctx, auth, questKey)
		},
	}
	return s.run(ctx, q, ledger.OpRetrieve, audit.ActionRetrieve, auth.ID, []step{st})
}

// BuildUnsigned encodes a lifecycle call for a caller-held authority to
// countersign and submit out of band.
func (s *Service) BuildUnsigned(ctx context.Context, op ledger.Operation, questKey int64, params map[string]interface{}) (*ledger.UnsignedPayload, error) {
	if _, err := s.GetQuest(ctx, questKey); err != nil {
		return nil, err
	}
	return s.gateway.BuildUnsigned(ctx, op, questKey, params)
}

// begin re-reads the quest immediately before the ledger call and acquires
// the single-flight lock with one atomic conditional update.
func (s *Service) begin(ctx context.Context, questKey int64, allowed ...quest.Status) (*quest.Quest, error) {
	q, err := s.questRepo.GetByKey(ctx, questKey)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, quest.ErrNotFound
	}
	ok := false
	for _, st := range allowed {
		if q.Status == st {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", quest.ErrInvalidStatus, q.Status)
	}
	if err := s.questRepo.AcquirePending(ctx, questKey, q.Status); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) run(ctx context.Context, q *quest.Quest, edgeOp ledger.Operation, action audit.Action, actor string, steps []step) (*Outcome, error) {
	submitted := false
	var lastRef string

	for _, st := range steps {
		if st.precheck != nil {
			applied, err := st.precheck(ctx)
			if err != nil {
				s.logger.Warn().Err(err).
					Int64("quest_key", q.QuestKey).
					Str("operation", string(st.op)).
					Msg("idempotency check failed; submitting anyway")
			} else if applied {
				// Verified idempotent short-circuit: no resubmission.
				ref := q.TxRef(st.field)
				if out := s.record(ctx, q, st, ref); out != nil {
					return out, nil
				}
				lastRef = ref
				continue
			}
		}

		res, err := st.submit(ctx)
		if err != nil {
			out, ferr := s.settleFailure(ctx, q, st, err)
			if out != nil || ferr != nil {
				if out != nil && out.Status == OutcomePending {
					s.metrics.TransitionsTotal.WithLabelValues(string(action), string(OutcomePending)).Inc()
				}
				return out, ferr
			}
			// AlreadyApplied on the wire: proceed as if the call returned
			// normally.
			if out := s.record(ctx, q, st, q.TxRef(st.field)); out != nil {
				return out, nil
			}
			lastRef = q.TxRef(st.field)
			continue
		}

		if !res.Confirmed {
			// Accepted but not final: hand the reference to the monitor.
			return s.handoff(ctx, q, st, res.TxRef, action)
		}

		submitted = true
		lastRef = res.TxRef
		if out := s.record(ctx, q, st, res.TxRef); out != nil {
			return out, nil
		}
	}

	status := OutcomeAlreadyApplied
	if submitted {
		status = OutcomeApplied
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeQuest,
		EntityID:   fmt.Sprintf("%d", q.QuestKey),
		Action:     action,
		Actor:      actor,
		TxRef:      lastRef,
	})
	s.metrics.TransitionsTotal.WithLabelValues(string(action), string(status)).Inc()
	s.logger.Info().
		Int64("quest_key", q.QuestKey).
		Str("operation", string(edgeOp)).
		Str("outcome", string(status)).
		Str("tx_ref", lastRef).
		Msg("lifecycle transition completed")
	return &Outcome{Status: status, TxRef: lastRef}, nil
}

// settleFailure classifies a submission error. It returns a non-nil outcome
// or error when the edge must stop; both nil means the failure was
// AlreadyApplied and the edge continues.
func (s *Service) settleFailure(ctx context.Context, q *quest.Quest, st step, err error) (*Outcome, error) {
	class := ledger.Classify(err)
	s.metrics.LedgerFailuresTotal.WithLabelValues(string(class)).Inc()

	switch class {
	case ledger.ClassAlreadyApplied:
		return nil, nil
	case ledger.ClassTimeout:
		ref := ledger.InFlightRef(err)
		if terr := s.tracker.Track(ctx, q.QuestKey, st.op, ref, st.target, st.field, st.window); terr != nil {
			// The monitor could not take ownership; release the lock so the
			// quest is not stranded, and surface the tracking failure.
			s.release(ctx, q.QuestKey)
			return nil, fmt.Errorf("track pending transaction: %w", terr)
		}
		s.logger.Info().
			Int64("quest_key", q.QuestKey).
			Str("operation", string(st.op)).
			Str("tx_ref", ref).
			Msg("submission unconfirmed; handed to transaction monitor")
		return &Outcome{Status: OutcomePending, TxRef: ref}, nil
	default:
		// FatalContract, and Unknown treated conservatively as fatal.
		s.release(ctx, q.QuestKey)
		return nil, err
	}
}

// handoff is the no-error variant of the timeout path: the gateway accepted
// the submission but could not confirm it synchronously.
func (s *Service) handoff(ctx context.Context, q *quest.Quest, st step, txRef string, action audit.Action) (*Outcome, error) {
	if terr := s.tracker.Track(ctx, q.QuestKey, st.op, txRef, st.target, st.field, st.window); terr != nil {
		s.release(ctx, q.QuestKey)
		return nil, fmt.Errorf("track pending transaction: %w", terr)
	}
	s.metrics.TransitionsTotal.WithLabelValues(string(action), string(OutcomePending)).Inc()
	return &Outcome{Status: OutcomePending, TxRef: txRef}, nil
}

// record persists a completed step. Ledger writes are irreversible, so a
// store failure after ledger success is reported as success-with-warning
// and left to reconciliation; it is never retried here.
func (s *Service) record(ctx context.Context, q *quest.Quest, st step, txRef string) *Outcome {
	var err error
	if st.final {
		err = s.questRepo.CompleteTransition(ctx, q.QuestKey, st.target, st.field, txRef, st.window)
	} else {
		err = s.questRepo.RecordTx(ctx, q.QuestKey, st.field, txRef)
	}
	if err == nil {
		return nil
	}
	s.logger.Error().Err(err).
		Int64("quest_key", q.QuestKey).
		Str("operation", string(st.op)).
		Str("tx_ref", txRef).
		Msg("ledger call succeeded but local store update failed")
	s.release(ctx, q.QuestKey)
	return &Outcome{
		Status:  OutcomeApplied,
		TxRef:   txRef,
		Warning: "ledger operation applied but the local record could not be updated; reconciliation required",
	}
}

func (s *Service) release(ctx context.Context, questKey int64) {
	if err := s.questRepo.ReleasePending(ctx, questKey); err != nil {
		s.logger.Error().Err(err).Int64("quest_key", questKey).Msg("failed to release pending flag")
	}
}

func (s *Service) itemCheck(questKey int64, applied func(*ledger.GovernanceItem) bool) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		item, err := s.gateway.FetchGovernanceItem(ctx, questKey)
		if err != nil {
			return false, err
		}
		if item == nil || !item.Exists {
			return false, nil
		}
		return applied(item), nil
	}
}

var decisionPreconditionFragments = []string{
	"voting period not ended",
	"period not ended",
	"votes tied",
	"tally tie",
	"equal tally",
}

func isDecisionPrecondition(err error) bool {
	var cerr *ledger.ContractError
	if !errors.As(err, &cerr) {
		return false
	}
	detail := strings.ToLower(cerr.Detail)
	for _, f := range decisionPreconditionFragments {
		if strings.Contains(detail, f) || cerr.HasLog(f) {
			return true
		}
	}
	return false
}

func containsAnswer(answers []int64, key int64) bool {
	for _, a := range answers {
		if a == key {
			return true
		}
	}
	return false
}
