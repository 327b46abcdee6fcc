package vote

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("vote not found")
	// ErrPhaseOrder is returned when a phase write arrives before the prior
	// phase exists for the voter: success requires draft, answer requires
	// success.
	ErrPhaseOrder = errors.New("vote phase out of order")
	// ErrDuplicate is returned when a voter already has a record for the
	// phase being written.
	ErrDuplicate = errors.New("vote already recorded for this phase")
)

// Phase identifies a voting round.
type Phase string

const (
	PhaseDraft   Phase = "DRAFT"
	PhaseSuccess Phase = "SUCCESS"
	PhaseAnswer  Phase = "ANSWER"
)

// Vote is one voter's record for a quest across all phases. Identity is the
// (quest_key, voter) pair; rows are archived, never deleted.
type Vote struct {
	ID       int64  `json:"id"`
	QuestKey int64  `json:"questKey"`
	Voter    string `json:"voter"`

	DraftOption   *int64 `json:"draftOption,omitempty"`
	SuccessOption *int64 `json:"successOption,omitempty"`
	AnswerKey     *int64 `json:"answerKey,omitempty"`
	Power         int64  `json:"power"`

	DraftTx   string `json:"draftTx,omitempty"`
	SuccessTx string `json:"successTx,omitempty"`
	AnswerTx  string `json:"answerTx,omitempty"`

	Reward   int64 `json:"reward"`
	Archived bool  `json:"archived"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanRecord validates the strict per-voter phase ordering before a write.
func (v *Vote) CanRecord(phase Phase) error {
	switch phase {
	case PhaseDraft:
		return nil
	case PhaseSuccess:
		if v == nil || v.DraftOption == nil {
			return ErrPhaseOrder
		}
		return nil
	case PhaseAnswer:
		if v == nil || v.SuccessOption == nil {
			return ErrPhaseOrder
		}
		return nil
	}
	return ErrPhaseOrder
}
