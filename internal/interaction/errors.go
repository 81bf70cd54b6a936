package interaction

import (
	"errors"
	"fmt"
	"time"
)

// Validation failure codes reported to the requester.
const (
	CodeUnknownKind = "unknown_kind"
	CodeNoActor     = "no_actor"
	CodeNoTarget    = "no_target"
	CodeBadTarget   = "bad_target"
	CodeOutOfRange  = "out_of_range"
	CodeConflict    = "conflict"
)

// ValidationError rejects a start request. Non-fatal: it is reported to the
// requester only and never creates a durable session.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("interaction: %s: %s", e.Code, e.Message)
}

func validationf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CooldownError rejects a request made before a cooldown expires. Expected,
// not exceptional: the client UI treats it as silence, not an error dialog.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("interaction: on cooldown for %s", e.Remaining)
}

// TargetMissingError marks a target that vanished mid-session. Triggers
// cancellation of the session, never a crash.
type TargetMissingError struct {
	TargetID string
}

func (e *TargetMissingError) Error() string {
	return fmt.Sprintf("interaction: target %s no longer exists", e.TargetID)
}

// Silent reports whether an error is one the client contract treats as
// expected background noise (cooldowns, vanished targets).
func Silent(err error) bool {
	var cd *CooldownError
	var tm *TargetMissingError
	return errors.As(err, &cd) || errors.As(err, &tm)
}
