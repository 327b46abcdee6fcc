package quest

import (
	"context"
	"time"
)

// Filter narrows quest listing.
type Filter struct {
	Status  *Status
	Creator *string
	Pending *bool
}

// WindowPhase names the voting window a transition opens.
type WindowPhase string

const (
	WindowDraft    WindowPhase = "DRAFT"
	WindowDecision WindowPhase = "DECISION"
	WindowAnswer   WindowPhase = "ANSWER"
)

// PhaseWindow carries optional voting-window timestamps recorded with a
// transition.
type PhaseWindow struct {
	Phase   WindowPhase
	StartAt *time.Time
	EndAt   *time.Time
}

// Repository defines quest persistence.
//
// AcquirePending and CompleteTransition are single atomic statements: the
// pending flag is an advisory lock over concurrent writers, so it must be
// compare-and-swapped together with the expected status, never read then
// written.
type Repository interface {
	Create(ctx context.Context, q *Quest) error
	GetByKey(ctx context.Context, questKey int64) (*Quest, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Quest, error)

	// AcquirePending sets pending=true iff the quest exists with the expected
	// status and pending=false. Returns ErrNotFound, ErrInvalidStatus or
	// ErrPending accordingly.
	AcquirePending(ctx context.Context, questKey int64, expected Status) error

	// ReleasePending clears the pending flag without touching status.
	ReleasePending(ctx context.Context, questKey int64) error

	// RecordTx stores an intermediate transaction reference without touching
	// status or the pending flag. Used between the steps of a multi-submission
	// edge while the lock is still held.
	RecordTx(ctx context.Context, questKey int64, field TxField, txRef string) error

	// CompleteTransition atomically records the target status, the phase
	// transaction reference and window, and clears the pending flag. A target
	// equal to the current status records the tx ref only (retrieve edge, or
	// a monitor-resolved intermediate step). An empty field skips the tx
	// column (store-only reject edge).
	CompleteTransition(ctx context.Context, questKey int64, target Status, field TxField, txRef string, window *PhaseWindow) error

	// SetAnswers fixes the ordered answer set. Answers are immutable once set.
	SetAnswers(ctx context.Context, questKey int64, answers []int64) error

	// SetSelectedAnswer updates the vote-derived selected answer. Used only by
	// reconciliation; never regresses a non-nil value to nil.
	SetSelectedAnswer(ctx context.Context, questKey int64, answerKey int64) error
}
