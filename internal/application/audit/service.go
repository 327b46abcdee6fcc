package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/questledger/questledger/internal/domain/audit"
)

// Service handles audit log operations.
type Service struct {
	repo    audit.Repository
	signKey []byte
	logger  zerolog.Logger
}

// NewService creates a new audit service.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log creates a new audit log entry asynchronously.
func (s *Service) Log(ctx context.Context, entry *audit.Entry) {
	go func() {
		if err := s.LogSync(context.Background(), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", string(entry.EntityType)).
				Str("entityId", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync creates a new audit log entry synchronously.
func (s *Service) LogSync(ctx context.Context, entry *audit.Entry) error {
	log, err := audit.NewLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.Sign(log, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		log.Signature = sig
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", log.AuditID.String()).
		Str("entityType", string(log.EntityType)).
		Str("entityId", log.EntityID).
		Str("action", string(log.Action)).
		Str("actor", log.Actor).
		Msg("audit log created")

	return nil
}

// ListByEntity returns audit logs for an entity.
func (s *Service) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string, limit, offset int) ([]*audit.Log, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}
