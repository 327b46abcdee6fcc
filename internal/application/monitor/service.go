package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	"github.com/questledger/questledger/internal/domain/audit"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/outbox"
	"github.com/questledger/questledger/internal/domain/quest"
	"github.com/questledger/questledger/internal/infrastructure/metrics"
)

// Service polls unconfirmed ledger transactions to a terminal state and
// applies the store update the synchronous path deferred. Entries are
// durable rows, so restarts resume tracking instead of stranding quests
// behind a pending flag nobody will clear.
type Service struct {
	repo        outbox.Repository
	questRepo   quest.Repository
	gateway     ledger.Gateway
	auditSvc    *appAudit.Service
	metrics     *metrics.Metrics
	interval    time.Duration
	maxAttempts int
	batchSize   int
	logger      zerolog.Logger
}

// Option configures the monitor.
type Option func(*Service)

// WithBatchSize caps how many due entries one sweep processes.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewService creates a transaction monitor.
func NewService(
	repo outbox.Repository,
	questRepo quest.Repository,
	gateway ledger.Gateway,
	auditSvc *appAudit.Service,
	m *metrics.Metrics,
	interval time.Duration,
	maxAttempts int,
	logger zerolog.Logger,
	opts ...Option,
) *Service {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	s := &Service{
		repo:        repo,
		questRepo:   questRepo,
		gateway:     gateway,
		auditSvc:    auditSvc,
		metrics:     m,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   50,
		logger:      logger.With().Str("service", "monitor").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track registers an unconfirmed transaction for polling. The quest's
// pending flag stays set until the entry resolves.
func (s *Service) Track(ctx context.Context, questKey int64, op ledger.Operation, txRef string, target quest.Status, field quest.TxField, window *quest.PhaseWindow) error {
	entry := &outbox.PendingTransaction{
		ID:           uuid.New(),
		QuestKey:     questKey,
		Operation:    op,
		TxRef:        txRef,
		TargetStatus: target,
		TxField:      field,
		Window:       window,
		MaxAttempts:  s.maxAttempts,
		NextPollAt:   time.Now().UTC().Add(s.interval),
		State:        outbox.StateTracking,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create pending transaction: %w", err)
	}
	s.metrics.MonitorTrackedTotal.Inc()
	s.metrics.MonitorQueueDepth.Inc()
	s.logger.Info().
		Int64("quest_key", questKey).
		Str("operation", string(op)).
		Str("tx_ref", txRef).
		Msg("tracking unconfirmed transaction")
	return nil
}

// Run polls due entries on a fixed interval until the context is canceled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ProcessDue(ctx); err != nil {
				s.logger.Error().Err(err).Msg("monitor sweep failed")
			}
		}
	}
}

// ProcessDue resolves every entry whose poll time has arrived. One entry
// failing does not abort the sweep.
func (s *Service) ProcessDue(ctx context.Context) error {
	due, err := s.repo.ListDue(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return fmt.Errorf("list due transactions: %w", err)
	}
	for _, entry := range due {
		if err := s.resolve(ctx, entry); err != nil {
			s.logger.Error().Err(err).
				Str("id", entry.ID.String()).
				Int64("quest_key", entry.QuestKey).
				Msg("failed to resolve tracked transaction")
		}
	}
	return nil
}

// RecoverPending is the startup sweep: it re-arms every unresolved entry
// and clears pending flags that have no tracking entry backing them, which
// happens when a crash landed between lock acquisition and tracking.
func (s *Service) RecoverPending(ctx context.Context) error {
	tracking, err := s.repo.ListTracking(ctx, 0)
	if err != nil {
		return fmt.Errorf("list tracking transactions: %w", err)
	}
	tracked := make(map[int64]bool, len(tracking))
	now := time.Now().UTC()
	for _, entry := range tracking {
		tracked[entry.QuestKey] = true
		if err := s.repo.Reschedule(ctx, entry.ID, entry.Attempts, now); err != nil {
			s.logger.Error().Err(err).Str("id", entry.ID.String()).Msg("failed to re-arm tracking entry")
			continue
		}
		s.metrics.MonitorQueueDepth.Inc()
	}

	pending := true
	stuck, err := s.questRepo.List(ctx, quest.Filter{Pending: &pending}, 0, 0)
	if err != nil {
		return fmt.Errorf("list pending quests: %w", err)
	}
	for _, q := range stuck {
		if tracked[q.QuestKey] {
			continue
		}
		if err := s.questRepo.ReleasePending(ctx, q.QuestKey); err != nil {
			s.logger.Error().Err(err).Int64("quest_key", q.QuestKey).Msg("failed to release orphaned pending flag")
			continue
		}
		s.logger.Warn().Int64("quest_key", q.QuestKey).Msg("released pending flag with no tracking entry")
	}
	s.logger.Info().
		Int("rearmed", len(tracking)).
		Int("pending_quests", len(stuck)).
		Msg("pending recovery sweep completed")
	return nil
}

func (s *Service) resolve(ctx context.Context, entry *outbox.PendingTransaction) error {
	status, err := s.gateway.TransactionStatus(ctx, entry.TxRef)
	if err != nil {
		s.logger.Warn().Err(err).Str("tx_ref", entry.TxRef).Msg("transaction status query failed")
		status = ledger.TxUnknown
	}

	switch status {
	case ledger.TxConfirmed:
		return s.close(ctx, entry, outbox.StateResolved, true)
	case ledger.TxFailed:
		return s.close(ctx, entry, outbox.StateFailed, false)
	default:
		attempts := entry.Attempts + 1
		if attempts >= entry.MaxAttempts {
			// Unresolvable within the budget. Release the quest so operators
			// can retry the edge; the tx ref stays on the closed row.
			return s.close(ctx, entry, outbox.StateTimedOut, false)
		}
		return s.repo.Reschedule(ctx, entry.ID, attempts, time.Now().UTC().Add(s.interval))
	}
}

// close marks the entry terminal and always clears the quest's pending
// flag. On confirmation the deferred store update is applied first.
func (s *Service) close(ctx context.Context, entry *outbox.PendingTransaction, state outbox.State, confirmed bool) error {
	if confirmed {
		if err := s.questRepo.CompleteTransition(ctx, entry.QuestKey, entry.TargetStatus, entry.TxField, entry.TxRef, entry.Window); err != nil {
			// Leave the entry open; the next sweep retries the store write.
			return fmt.Errorf("apply deferred transition: %w", err)
		}
	} else {
		if err := s.questRepo.ReleasePending(ctx, entry.QuestKey); err != nil {
			return fmt.Errorf("release pending flag: %w", err)
		}
	}
	if err := s.repo.Close(ctx, entry.ID, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("close tracking entry: %w", err)
	}
	s.metrics.MonitorResolvedTotal.WithLabelValues(string(state)).Inc()
	s.metrics.MonitorQueueDepth.Dec()

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeQuest,
		EntityID:   fmt.Sprintf("%d", entry.QuestKey),
		Action:     audit.ActionReconcile,
		Actor:      "monitor",
		TxRef:      entry.TxRef,
		Reason:     fmt.Sprintf("tracked %s resolved as %s", entry.Operation, state),
	})
	s.logger.Info().
		Int64("quest_key", entry.QuestKey).
		Str("operation", string(entry.Operation)).
		Str("tx_ref", entry.TxRef).
		Str("state", string(state)).
		Msg("tracked transaction resolved")
	return nil
}
