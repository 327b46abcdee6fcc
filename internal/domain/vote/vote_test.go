package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVote_CanRecord(t *testing.T) {
	opt := int64(1)

	t.Run("draft never requires a prior phase", func(t *testing.T) {
		var v *Vote
		require.NoError(t, v.CanRecord(PhaseDraft))
	})

	t.Run("success requires a draft vote", func(t *testing.T) {
		var v *Vote
		assert.ErrorIs(t, v.CanRecord(PhaseSuccess), ErrPhaseOrder)

		v = &Vote{}
		assert.ErrorIs(t, v.CanRecord(PhaseSuccess), ErrPhaseOrder)

		v.DraftOption = &opt
		assert.NoError(t, v.CanRecord(PhaseSuccess))
	})

	t.Run("answer requires a success vote", func(t *testing.T) {
		v := &Vote{DraftOption: &opt}
		assert.ErrorIs(t, v.CanRecord(PhaseAnswer), ErrPhaseOrder)

		v.SuccessOption = &opt
		assert.NoError(t, v.CanRecord(PhaseAnswer))
	})

	t.Run("unknown phase is rejected", func(t *testing.T) {
		v := &Vote{DraftOption: &opt, SuccessOption: &opt}
		assert.ErrorIs(t, v.CanRecord(Phase("BOGUS")), ErrPhaseOrder)
	})
}
