package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuest_CanTransitionTo(t *testing.T) {
	allStatuses := []Status{
		StatusDraft, StatusApprove, StatusPublish, StatusDaoSuccess,
		StatusMarketSuccess, StatusFinish, StatusReject, StatusAdjourn,
	}
	allowed := map[Status][]Status{
		StatusDraft:         {StatusApprove, StatusAdjourn, StatusReject},
		StatusApprove:       {StatusPublish, StatusAdjourn},
		StatusPublish:       {StatusDaoSuccess, StatusAdjourn},
		StatusDaoSuccess:    {StatusMarketSuccess, StatusAdjourn},
		StatusMarketSuccess: {StatusFinish},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			q := &Quest{Status: from}
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, q.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestQuest_Terminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusDraft, false},
		{StatusApprove, false},
		{StatusPublish, false},
		{StatusDaoSuccess, false},
		{StatusMarketSuccess, false},
		{StatusFinish, true},
		{StatusReject, true},
		{StatusAdjourn, true},
	}
	for _, tt := range tests {
		q := &Quest{Status: tt.status}
		assert.Equal(t, tt.terminal, q.Terminal(), string(tt.status))
	}
}

func TestQuest_TxRef(t *testing.T) {
	q := &Quest{
		DraftTx:    "a",
		DecisionTx: "b",
		AnswerTx:   "c",
		PublishTx:  "d",
		SuccessTx:  "e",
		AdjournTx:  "f",
		FinishTx:   "g",
		RetrieveTx: "h",
	}
	assert.Equal(t, "a", q.TxRef(TxDraft))
	assert.Equal(t, "b", q.TxRef(TxDecision))
	assert.Equal(t, "c", q.TxRef(TxAnswer))
	assert.Equal(t, "d", q.TxRef(TxPublish))
	assert.Equal(t, "e", q.TxRef(TxSuccess))
	assert.Equal(t, "f", q.TxRef(TxAdjourn))
	assert.Equal(t, "g", q.TxRef(TxFinish))
	assert.Equal(t, "h", q.TxRef(TxRetrieve))
	assert.Empty(t, q.TxRef(TxField("unknown")))
}
