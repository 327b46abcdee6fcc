package ledger

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_gateway.go -package=mocks . Gateway

import (
	"context"
	"crypto/ed25519"
	"time"
)

// Operation names a ledger program instruction.
type Operation string

const (
	OpPublish        Operation = "publish"
	OpVoteDraft      Operation = "vote-draft"
	OpVoteDecision   Operation = "vote-decision"
	OpVoteAnswer     Operation = "vote-answer"
	OpStartDecision  Operation = "start-decision"
	OpSetDecision    Operation = "set-decision"
	OpMakeDecision   Operation = "make-decision"
	OpSetAnswer      Operation = "set-answer"
	OpFinalizeAnswer Operation = "finalize-answer"
	OpFinish         Operation = "finish"
	OpSuccess        Operation = "success"
	OpAdjourn        Operation = "adjourn"
	OpRetrieve       Operation = "retrieve"
)

// Authority is the signing identity for a submission. It is passed
// explicitly on every call; the gateway holds no keys of its own.
type Authority struct {
	ID  string
	Key ed25519.PrivateKey
}

// Sign signs an encoded call payload.
func (a Authority) Sign(message []byte) []byte {
	return ed25519.Sign(a.Key, message)
}

// Public returns the authority's public key bytes.
func (a Authority) Public() []byte {
	return a.Key.Public().(ed25519.PublicKey)
}

// SubmitResult is the synchronous outcome of a submission. Confirmed=false
// means the transaction was accepted but not yet final; the reference must be
// handed to the transaction monitor.
type SubmitResult struct {
	TxRef     string
	Confirmed bool
}

// TxStatus is the terminal-or-not state of a submitted transaction.
type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxConfirmed TxStatus = "CONFIRMED"
	TxFailed    TxStatus = "FAILED"
	TxUnknown   TxStatus = "UNKNOWN"
)

// Window is a voting-round time window.
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// ProgramConfig is the decoded on-ledger program configuration account.
type ProgramConfig struct {
	SchemaVersion uint8
	Authority     string
	FeeBps        uint16
	Paused        bool
}

// GovernanceItem is the decoded on-ledger record for one quest.
type GovernanceItem struct {
	SchemaVersion    uint8
	QuestKey         int64
	Exists           bool
	DecisionStarted  bool
	DecisionRecorded bool
	Published        bool
	AnswerSelected   bool
	SelectedAnswer   *int64
	Finalized        bool
	Adjourned        bool
}

// VoteRecord is one decoded on-ledger vote.
type VoteRecord struct {
	Voter     string
	Phase     Operation // OpVoteDraft, OpVoteDecision or OpVoteAnswer
	Option    int64
	AnswerKey int64
	Power     int64
}

// VoteTallies aggregates the on-ledger votes for a quest.
type VoteTallies struct {
	QuestKey     int64
	Records      []VoteRecord
	OptionTotals map[int64]int64
}

// Tied reports whether the two leading draft options hold exactly equal
// power. A single option is never tied.
func (t *VoteTallies) Tied() bool {
	if len(t.OptionTotals) < 2 {
		return false
	}
	var first, second int64 = -1, -1
	for _, power := range t.OptionTotals {
		if power > first {
			second = first
			first = power
		} else if power > second {
			second = power
		}
	}
	return first == second
}

// Leader returns the option holding strictly more power than every other
// option. ok is false when there are no votes or the lead is tied.
func (t *VoteTallies) Leader() (int64, bool) {
	if len(t.OptionTotals) == 0 {
		return 0, false
	}
	var leader int64
	var best int64 = -1
	tied := false
	for option, power := range t.OptionTotals {
		switch {
		case power > best:
			leader = option
			best = power
			tied = false
		case power == best:
			tied = true
		}
	}
	if tied {
		return 0, false
	}
	return leader, true
}

// UnsignedPayload is an encoded call returned to callers that must
// countersign and submit through their own channel.
type UnsignedPayload struct {
	Operation Operation `json:"operation"`
	QuestKey  int64     `json:"questKey"`
	Address   string    `json:"address"`
	Message   []byte    `json:"message"`
}

// Gateway is the typed operation surface over the external program: pure RPC
// and serialization, no business logic. Every submit either returns a
// transaction reference or raises a classifiable error.
type Gateway interface {
	Publish(ctx context.Context, auth Authority, questKey int64, answers []int64) (SubmitResult, error)
	StartDecision(ctx context.Context, auth Authority, questKey int64, window Window) (SubmitResult, error)
	SetDecision(ctx context.Context, auth Authority, questKey int64, option int64) (SubmitResult, error)
	MakeDecision(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)
	SetAnswer(ctx context.Context, auth Authority, questKey int64, answerKey int64) (SubmitResult, error)
	FinalizeAnswer(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)
	Success(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)
	Finish(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)
	Adjourn(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)
	Retrieve(ctx context.Context, auth Authority, questKey int64) (SubmitResult, error)

	VoteDraft(ctx context.Context, auth Authority, questKey int64, voter string, option, power int64) (SubmitResult, error)
	VoteDecision(ctx context.Context, auth Authority, questKey int64, voter string, option, power int64) (SubmitResult, error)
	VoteAnswer(ctx context.Context, auth Authority, questKey int64, voter string, answerKey, power int64) (SubmitResult, error)

	// BuildUnsigned encodes a call for a caller-held authority to countersign.
	// Nothing is submitted.
	BuildUnsigned(ctx context.Context, op Operation, questKey int64, params map[string]interface{}) (*UnsignedPayload, error)

	FetchConfig(ctx context.Context) (*ProgramConfig, error)
	FetchGovernanceItem(ctx context.Context, questKey int64) (*GovernanceItem, error)
	FetchVoteTallies(ctx context.Context, questKey int64) (*VoteTallies, error)
	TransactionStatus(ctx context.Context, txRef string) (TxStatus, error)
}
