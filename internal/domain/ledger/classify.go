package ledger

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Class is the recovery category of a ledger failure.
type Class string

const (
	// ClassTimeout: the submission may still land. The caller must not treat
	// this as failure; the in-flight reference goes to the monitor and the
	// quest stays pending.
	ClassTimeout Class = "TIMEOUT"
	// ClassAlreadyApplied: the ledger already reflects the desired end-state.
	// Treated as success.
	ClassAlreadyApplied Class = "ALREADY_APPLIED"
	// ClassFatal: business-rule rejection. The operation failed.
	ClassFatal Class = "FATAL"
	// ClassUnknown: unclassifiable; callers treat it as fatal.
	ClassUnknown Class = "UNKNOWN"
)

var timeoutFragments = []string{
	"blockhash not found",
	"block reference expired",
	"reference expired",
	"deadline exceeded",
	"timed out",
	"timeout",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
}

var alreadyAppliedFragments = []string{
	"already in use",
	"already applied",
	"already finalized",
	"already selected",
	"already published",
	"already retrieved",
	"already adjourned",
	"duplicate instruction",
}

// Classify maps a gateway failure to a recovery class. Pure function.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var cerr *ContractError
	if errors.As(err, &cerr) {
		if matchesAny(cerr.Detail, alreadyAppliedFragments) {
			return ClassAlreadyApplied
		}
		for _, line := range cerr.Logs {
			if matchesAny(line, alreadyAppliedFragments) {
				return ClassAlreadyApplied
			}
		}
		if matchesAny(cerr.Detail, timeoutFragments) {
			return ClassTimeout
		}
		return ClassFatal
	}

	var serr *SubmitError
	if errors.As(err, &serr) {
		if matchesAny(serr.Message, timeoutFragments) {
			return ClassTimeout
		}
		if matchesAny(serr.Message, alreadyAppliedFragments) {
			return ClassAlreadyApplied
		}
		return ClassUnknown
	}

	msg := err.Error()
	switch {
	case matchesAny(msg, timeoutFragments):
		return ClassTimeout
	case matchesAny(msg, alreadyAppliedFragments):
		return ClassAlreadyApplied
	}
	return ClassUnknown
}

func matchesAny(s string, fragments []string) bool {
	lower := strings.ToLower(s)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// InFlightRef extracts the in-flight transaction reference from a
// timeout-classified error, if the submission got far enough to have one.
func InFlightRef(err error) string {
	var serr *SubmitError
	if errors.As(err, &serr) {
		return serr.TxRef
	}
	return ""
}
