package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questledger/questledger/internal/domain/outbox"
	"github.com/questledger/questledger/internal/domain/quest"
)

const pendingTxColumns = `id, quest_key, operation, tx_ref, target_status, tx_field,
	window_phase, window_start_at, window_end_at,
	attempts, max_attempts, next_poll_at, state, created_at, resolved_at`

// OutboxRepository implements outbox.Repository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Create(ctx context.Context, p *outbox.PendingTransaction) error {
	var windowPhase string
	var windowStart, windowEnd *time.Time
	if p.Window != nil {
		windowPhase = string(p.Window.Phase)
		windowStart = p.Window.StartAt
		windowEnd = p.Window.EndAt
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_transactions
		(id, quest_key, operation, tx_ref, target_status, tx_field, window_phase, window_start_at, window_end_at, attempts, max_attempts, next_poll_at, state, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, p.ID, p.QuestKey, p.Operation, p.TxRef, p.TargetStatus, p.TxField, windowPhase, windowStart, windowEnd, p.Attempts, p.MaxAttempts, p.NextPollAt, p.State, p.CreatedAt)
	return err
}

func (r *OutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*outbox.PendingTransaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+pendingTxColumns+`
		FROM pending_transactions WHERE id=$1
	`, id)
	return scanPendingTx(row)
}

func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*outbox.PendingTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pendingTxColumns+`
		FROM pending_transactions
		WHERE state='TRACKING' AND next_poll_at <= $1
		ORDER BY next_poll_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPendingTx(rows)
}

func (r *OutboxRepository) ListTracking(ctx context.Context, limit int) ([]*outbox.PendingTransaction, error) {
	query := `
		SELECT ` + pendingTxColumns + `
		FROM pending_transactions
		WHERE state='TRACKING'
		ORDER BY created_at ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPendingTx(rows)
}

func (r *OutboxRepository) Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextPollAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pending_transactions SET attempts=$1, next_poll_at=$2 WHERE id=$3 AND state='TRACKING'
	`, attempts, nextPollAt, id)
	return err
}

func (r *OutboxRepository) Close(ctx context.Context, id uuid.UUID, state outbox.State, resolvedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pending_transactions SET state=$1, resolved_at=$2 WHERE id=$3 AND state='TRACKING'
	`, state, resolvedAt, id)
	return err
}

func (r *OutboxRepository) HasTracking(ctx context.Context, questKey int64) (bool, error) {
	var exists bool
	row := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM pending_transactions WHERE quest_key=$1 AND state='TRACKING')
	`, questKey)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func collectPendingTx(rows pgx.Rows) ([]*outbox.PendingTransaction, error) {
	var entries []*outbox.PendingTransaction
	for rows.Next() {
		p, err := scanPendingTx(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

func scanPendingTx(row pgx.Row) (*outbox.PendingTransaction, error) {
	var p outbox.PendingTransaction
	var windowPhase string
	var windowStart, windowEnd *time.Time
	if err := row.Scan(
		&p.ID, &p.QuestKey, &p.Operation, &p.TxRef, &p.TargetStatus, &p.TxField,
		&windowPhase, &windowStart, &windowEnd,
		&p.Attempts, &p.MaxAttempts, &p.NextPollAt, &p.State, &p.CreatedAt, &p.ResolvedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if windowPhase != "" {
		p.Window = &quest.PhaseWindow{
			Phase:   quest.WindowPhase(windowPhase),
			StartAt: windowStart,
			EndAt:   windowEnd,
		}
	}
	return &p, nil
}
