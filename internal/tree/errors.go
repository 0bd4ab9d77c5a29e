package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Assembly error codes (T101-T199)
const (
	ErrMissingID          = "T101" // record without an id
	ErrDuplicateID        = "T102" // two records share an id
	ErrNoRoot             = "T103" // no record without a parent
	ErrMultipleRoots      = "T104" // more than one record without a parent
	ErrDanglingParent     = "T105" // parent id not present in the record set
	ErrCycle              = "T106" // record is its own ancestor
	ErrOrphan             = "T107" // record unreachable from the root
	ErrBranchPromptEmpty  = "T108" // branch point without a choice prompt
	ErrBranchNoChildren   = "T109" // branch point without children
	ErrChoiceLabelMissing = "T110" // child of a branch point without a choice label
)

// AssemblyError reports a structural problem in the scenelet records.
type AssemblyError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	IDs     []string `json:"ids,omitempty"`
}

// Error implements the error interface.
func (e *AssemblyError) Error() string {
	if len(e.IDs) > 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(e.IDs, ", "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// HasCode reports whether err is an AssemblyError with the given code.
func HasCode(err error, code string) bool {
	var ae *AssemblyError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func newError(code, message string, ids ...string) *AssemblyError {
	return &AssemblyError{Code: code, Message: message, IDs: ids}
}
