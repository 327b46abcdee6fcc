package lifecycle

// OutcomeStatus classifies how a transition concluded.
type OutcomeStatus string

const (
	// OutcomeApplied: at least one ledger submission was made and confirmed.
	OutcomeApplied OutcomeStatus = "APPLIED"
	// OutcomeAlreadyApplied: the ledger already reflected the desired
	// end-state; no new submission was needed.
	OutcomeAlreadyApplied OutcomeStatus = "ALREADY_APPLIED"
	// OutcomePending: a submission did not confirm synchronously. The quest
	// stays locked and the transaction monitor owns resolution.
	OutcomePending OutcomeStatus = "PENDING"
)

// Outcome is the result of a lifecycle operation.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	TxRef  string        `json:"txRef,omitempty"`
	// Warning is set when the ledger call succeeded but the local store
	// update failed. The ledger write is irreversible, so this is reported
	// as success with an eventual-consistency warning; reconciliation is the
	// recovery path.
	Warning string `json:"warning,omitempty"`
}

// Applied reports whether the edge reached its end-state synchronously.
func (o *Outcome) Applied() bool {
	return o.Status == OutcomeApplied || o.Status == OutcomeAlreadyApplied
}
