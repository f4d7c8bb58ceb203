// Package auth drives the login and activation-code exchange that yields
// the shell's session, and classifies the router's rejections.
package auth

import (
	"fmt"
	"strings"
)

// RejectionPrefix is the namespace of authentication failures raised by
// the router. The next dot-separated segment is the reason code.
const RejectionPrefix = "fabric.auth-failed."

// Reason is a decoded authentication rejection.
type Reason int

// Rejection reasons.
const (
	ReasonUnrecognized Reason = iota
	ReasonNewUserCodeSent
	ReasonRegisteredUserCodeSent
	ReasonPendingActivation
	ReasonNoPendingActivation
	ReasonEmailFailure
	ReasonInvalidActivationCode
)

var reasonCodes = map[string]Reason{
	"new-user-auth-code-sent":        ReasonNewUserCodeSent,
	"registered-user-auth-code-sent": ReasonRegisteredUserCodeSent,
	"pending-activation":             ReasonPendingActivation,
	"no-pending-activation":          ReasonNoPendingActivation,
	"email-failure":                  ReasonEmailFailure,
	"invalid-activation-code":        ReasonInvalidActivationCode,
}

// DecodeRejection splits a rejection URI into its reason. ok is false when
// uri is outside RejectionPrefix; code is the raw reason segment.
func DecodeRejection(uri string) (reason Reason, code string, ok bool) {
	if !strings.HasPrefix(uri, RejectionPrefix) {
		return ReasonUnrecognized, "", false
	}
	code, _, _ = strings.Cut(strings.TrimPrefix(uri, RejectionPrefix), ".")
	reason, known := reasonCodes[code]
	if !known {
		reason = ReasonUnrecognized
	}
	return reason, code, true
}

// String returns the reason code.
func (r Reason) String() string {
	for code, reason := range reasonCodes {
		if reason == r {
			return code
		}
	}
	return "unrecognized"
}

// Informational reports whether the rejection ends the attempt without
// being a failure.
func (r Reason) Informational() bool {
	switch r {
	case ReasonNewUserCodeSent, ReasonRegisteredUserCodeSent, ReasonPendingActivation:
		return true
	default:
		return false
	}
}

// ExitCode is the process exit code for a rejection with this reason.
func (r Reason) ExitCode() int {
	if r.Informational() {
		return 0
	}
	return 1
}

// State is the terminal state a rejection with this reason leads to.
func (r Reason) State() State {
	switch r {
	case ReasonNewUserCodeSent:
		return StateCodeSentNewUser
	case ReasonRegisteredUserCodeSent:
		return StateCodeSentRegisteredUser
	case ReasonPendingActivation:
		return StateAwaitingActivation
	default:
		return StateFailed
	}
}

// RejectedError is a classified authentication rejection.
type RejectedError struct {
	Reason Reason
	// Code is the raw reason segment, kept for unrecognized reasons.
	Code    string
	URI     string
	Message string
}

// Error implements error.
func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication rejected [%s]", e.URI)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.URI)
}
