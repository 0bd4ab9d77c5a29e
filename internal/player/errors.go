package player

import (
	"errors"
	"fmt"
)

// Usage error codes (P301-P399)
const (
	ErrInvalidBundle    = "P301" // bundle failed structural validation
	ErrNotInChoice      = "P302" // ChooseBranch outside the choice stage
	ErrUnknownChoice    = "P303" // target is not an offered choice
	ErrUnknownEventType = "P304" // Subscribe with an unknown event type
	ErrNilListener      = "P305" // Subscribe with a nil listener
	ErrNilScheduler     = "P306" // NewController without a scheduler
)

// UsageError reports a controller operation called in an invalid way.
type UsageError struct {
	Code    string
	Op      string
	Message string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Message)
}

// InvalidBundleError reports a bundle the controller refuses to play.
type InvalidBundleError struct {
	NodeID  string
	Message string
}

// Error implements the error interface.
func (e *InvalidBundleError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] invalid bundle: %s (node=%s)", ErrInvalidBundle, e.Message, e.NodeID)
	}
	return fmt.Sprintf("[%s] invalid bundle: %s", ErrInvalidBundle, e.Message)
}

// HasCode reports whether err is a UsageError or InvalidBundleError with code.
func HasCode(err error, code string) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	var be *InvalidBundleError
	if errors.As(err, &be) {
		return code == ErrInvalidBundle
	}
	return false
}

func usageError(code, op, format string, args ...any) *UsageError {
	return &UsageError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidBundle(nodeID, format string, args ...any) *InvalidBundleError {
	return &InvalidBundleError{NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}
