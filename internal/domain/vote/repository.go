package vote

import "context"

// PhaseRecord is one phase write for a voter.
type PhaseRecord struct {
	Phase  Phase
	Option int64
	Power  int64
	TxRef  string
}

// Repository defines vote persistence. Phase ordering is enforced by the
// caller against the current row; RecordPhase itself re-checks the prior
// phase column in its WHERE clause so a concurrent writer cannot slip an
// out-of-order update through.
type Repository interface {
	Create(ctx context.Context, v *Vote) error
	GetByQuestAndVoter(ctx context.Context, questKey int64, voter string) (*Vote, error)
	ListByQuest(ctx context.Context, questKey int64) ([]*Vote, error)

	// RecordPhase updates the voter's row for one phase. Returns ErrPhaseOrder
	// when the guarding prior-phase column is still null.
	RecordPhase(ctx context.Context, questKey int64, voter string, rec PhaseRecord) error

	// SetReward records the payout for a voter.
	SetReward(ctx context.Context, questKey int64, voter string, reward int64) error

	// Archive soft-deletes all votes for a quest.
	Archive(ctx context.Context, questKey int64) error
}
