package ledger

import (
	"fmt"
	"strings"
)

// ContractError is a ledger-layer rejection. Detail is the human-readable
// program message; Logs holds raw program log lines for diagnostics and is
// surfaced to clients only in non-production configuration.
type ContractError struct {
	Op     Operation
	Code   string
	Detail string
	Logs   []string
}

func (e *ContractError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("contract error %s: %s (%s)", e.Op, e.Detail, e.Code)
	}
	return fmt.Sprintf("contract error %s: %s", e.Op, e.Detail)
}

// HasLog reports whether any program log line contains the fragment.
func (e *ContractError) HasLog(fragment string) bool {
	for _, line := range e.Logs {
		if strings.Contains(strings.ToLower(line), strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// SubmitError is a transport-level submission failure (RPC error, expired
// reference, network timeout).
type SubmitError struct {
	Op      Operation
	Message string
	// TxRef is the in-flight reference when the submission reached the ledger
	// before confirmation was lost; empty otherwise.
	TxRef string
	Cause error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit %s: %s", e.Op, e.Message)
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}
