package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/quest"
)

// State is the resolution state of a tracked transaction.
type State string

const (
	StateTracking State = "TRACKING"
	StateResolved State = "RESOLVED"
	StateFailed   State = "FAILED"
	StateTimedOut State = "TIMED_OUT"
)

// PendingTransaction is a submitted-but-unconfirmed ledger transaction.
// Rows are durable: a process restart re-arms every TRACKING row instead of
// stranding its quest in pending=true.
type PendingTransaction struct {
	ID        uuid.UUID        `json:"id"`
	QuestKey  int64            `json:"questKey"`
	Operation ledger.Operation `json:"operation"`
	TxRef     string           `json:"txRef"`

	// The store update the synchronous path would have applied on
	// confirmation, including the voting window the edge would have opened.
	TargetStatus quest.Status       `json:"targetStatus"`
	TxField      quest.TxField      `json:"txField"`
	Window       *quest.PhaseWindow `json:"window,omitempty"`

	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	NextPollAt  time.Time  `json:"nextPollAt"`
	State       State      `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// Repository defines pending-transaction persistence.
type Repository interface {
	Create(ctx context.Context, p *PendingTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*PendingTransaction, error)
	// ListDue returns TRACKING rows with next_poll_at <= now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*PendingTransaction, error)
	// ListTracking returns all unresolved rows, for the startup recovery sweep.
	ListTracking(ctx context.Context, limit int) ([]*PendingTransaction, error)
	// Reschedule bumps the attempt counter and the next poll time.
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextPollAt time.Time) error
	// Close marks a row terminal.
	Close(ctx context.Context, id uuid.UUID, state State, resolvedAt time.Time) error
	// HasTracking reports whether a quest has an unresolved entry.
	HasTracking(ctx context.Context, questKey int64) (bool, error)
}
