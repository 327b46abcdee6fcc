package quest

import (
	"errors"
	"time"
)

// Status represents quest lifecycle status.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusApprove       Status = "APPROVE"
	StatusPublish       Status = "PUBLISH"
	StatusDaoSuccess    Status = "DAO_SUCCESS"
	StatusMarketSuccess Status = "MARKET_SUCCESS"
	StatusFinish        Status = "FINISH"
	StatusReject        Status = "REJECT"
	StatusAdjourn       Status = "ADJOURN"
)

var (
	ErrNotFound          = errors.New("quest not found")
	ErrInvalidStatus     = errors.New("invalid quest status")
	ErrPending           = errors.New("quest has a transition in flight")
	ErrInvalidTransition = errors.New("invalid quest status transition")
)

// TxField names a per-phase transaction reference column.
type TxField string

const (
	TxDraft    TxField = "draft_tx"
	TxDecision TxField = "decision_tx"
	TxAnswer   TxField = "answer_tx"
	TxPublish  TxField = "publish_tx"
	TxSuccess  TxField = "success_tx"
	TxAdjourn  TxField = "adjourn_tx"
	TxFinish   TxField = "finish_tx"
	TxRetrieve TxField = "retrieve_tx"
)

// Quest is the unit of work progressing through the governance lifecycle.
// quest_key is assigned at creation and never reused; rows are never
// physically deleted so terminal states remain for audit.
type Quest struct {
	ID       int64  `json:"id"`
	QuestKey int64  `json:"questKey"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	// Pending is the per-quest single-flight flag. It is true only while an
	// orchestrator call is executing or a submitted transaction is unresolved.
	Pending bool    `json:"pending"`
	Creator string  `json:"creator"`
	Answers []int64 `json:"answers,omitempty"`
	// SelectedAnswer is vote-derived and owned by reconciliation.
	SelectedAnswer *int64 `json:"selectedAnswer,omitempty"`

	DraftTx    string `json:"draftTx,omitempty"`
	DecisionTx string `json:"decisionTx,omitempty"`
	AnswerTx   string `json:"answerTx,omitempty"`
	PublishTx  string `json:"publishTx,omitempty"`
	SuccessTx  string `json:"successTx,omitempty"`
	AdjournTx  string `json:"adjournTx,omitempty"`
	FinishTx   string `json:"finishTx,omitempty"`
	RetrieveTx string `json:"retrieveTx,omitempty"`

	DraftStartAt    *time.Time `json:"draftStartAt,omitempty"`
	DraftEndAt      *time.Time `json:"draftEndAt,omitempty"`
	DecisionStartAt *time.Time `json:"decisionStartAt,omitempty"`
	DecisionEndAt   *time.Time `json:"decisionEndAt,omitempty"`
	AnswerStartAt   *time.Time `json:"answerStartAt,omitempty"`
	AnswerEndAt     *time.Time `json:"answerEndAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanTransitionTo validates a quest status transition.
func (q *Quest) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusDraft:         {StatusApprove, StatusAdjourn, StatusReject},
		StatusApprove:       {StatusPublish, StatusAdjourn},
		StatusPublish:       {StatusDaoSuccess, StatusAdjourn},
		StatusDaoSuccess:    {StatusMarketSuccess, StatusAdjourn},
		StatusMarketSuccess: {StatusFinish},
		StatusFinish:        {},
		StatusReject:        {},
		StatusAdjourn:       {},
	}
	allowed := transitions[q.Status]
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the quest can no longer change status.
func (q *Quest) Terminal() bool {
	switch q.Status {
	case StatusFinish, StatusReject, StatusAdjourn:
		return true
	}
	return false
}

// TxRef returns the recorded transaction reference for a phase.
func (q *Quest) TxRef(field TxField) string {
	switch field {
	case TxDraft:
		return q.DraftTx
	case TxDecision:
		return q.DecisionTx
	case TxAnswer:
		return q.AnswerTx
	case TxPublish:
		return q.PublishTx
	case TxSuccess:
		return q.SuccessTx
	case TxAdjourn:
		return q.AdjournTx
	case TxFinish:
		return q.FinishTx
	case TxRetrieve:
		return q.RetrieveTx
	}
	return ""
}
