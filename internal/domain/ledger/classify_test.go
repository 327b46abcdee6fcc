package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o wait" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassUnknown},
		{"context deadline", context.DeadlineExceeded, ClassTimeout},
		{"wrapped context deadline", fmt.Errorf("submit: %w", context.DeadlineExceeded), ClassTimeout},
		{"net timeout", timeoutNetError{}, ClassTimeout},
		{
			"expired block reference",
			&SubmitError{Op: OpPublish, Message: "block reference expired", TxRef: "tx-1"},
			ClassTimeout,
		},
		{
			"connection refused",
			&SubmitError{Op: OpFinish, Message: "dial: connection refused"},
			ClassTimeout,
		},
		{
			"already finalized contract error",
			&ContractError{Op: OpFinalizeAnswer, Code: "E042", Detail: "answer already finalized"},
			ClassAlreadyApplied,
		},
		{
			"already applied in program logs",
			&ContractError{Op: OpPublish, Detail: "instruction failed", Logs: []string{"program log: market already published"}},
			ClassAlreadyApplied,
		},
		{
			"business rejection",
			&ContractError{Op: OpSetAnswer, Code: "InvalidAnswer", Detail: "answer not in set"},
			ClassFatal,
		},
		{
			"opaque submit failure",
			&SubmitError{Op: OpAdjourn, Message: "node returned 500"},
			ClassUnknown,
		},
		{"plain error", errors.New("something odd"), ClassUnknown},
		{"plain timeout text", errors.New("request timed out"), ClassTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestInFlightRef(t *testing.T) {
	assert.Equal(t, "tx-9", InFlightRef(&SubmitError{Op: OpFinish, Message: "timed out", TxRef: "tx-9"}))
	assert.Empty(t, InFlightRef(&ContractError{Op: OpFinish, Detail: "nope"}))
	assert.Empty(t, InFlightRef(errors.New("plain")))
}

func TestVoteTallies_TiedAndLeader(t *testing.T) {
	t.Run("clear leader", func(t *testing.T) {
		tallies := &VoteTallies{OptionTotals: map[int64]int64{1: 30, 2: 10}}
		assert.False(t, tallies.Tied())
		leader, ok := tallies.Leader()
		assert.True(t, ok)
		assert.Equal(t, int64(1), leader)
	})

	t.Run("exact tie", func(t *testing.T) {
		tallies := &VoteTallies{OptionTotals: map[int64]int64{1: 10, 2: 10}}
		assert.True(t, tallies.Tied())
		_, ok := tallies.Leader()
		assert.False(t, ok)
	})

	t.Run("single option", func(t *testing.T) {
		tallies := &VoteTallies{OptionTotals: map[int64]int64{1: 10}}
		assert.False(t, tallies.Tied())
		leader, ok := tallies.Leader()
		assert.True(t, ok)
		assert.Equal(t, int64(1), leader)
	})

	t.Run("no votes", func(t *testing.T) {
		tallies := &VoteTallies{OptionTotals: map[int64]int64{}}
		assert.False(t, tallies.Tied())
		_, ok := tallies.Leader()
		assert.False(t, ok)
	})

	t.Run("tie below the leader", func(t *testing.T) {
		tallies := &VoteTallies{OptionTotals: map[int64]int64{1: 30, 2: 10, 3: 10}}
		assert.False(t, tallies.Tied())
		leader, ok := tallies.Leader()
		assert.True(t, ok)
		assert.Equal(t, int64(1), leader)
	})
}
