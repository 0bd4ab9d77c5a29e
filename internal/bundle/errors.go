package bundle

import (
	"errors"
	"fmt"
)

// Integrity error codes (B201-B299)
const (
	ErrEmptyStoryID         = "B201" // story id is blank
	ErrStoryNotFound        = "B202" // source has no such story
	ErrNoScenelets          = "B203" // story has zero scenelets
	ErrNoRoot               = "B204" // no scenelet without a parent
	ErrMultipleRoots        = "B205" // more than one scenelet without a parent
	ErrRootUnplayable       = "B206" // root has no image or real audio
	ErrBranchPromptEmpty    = "B207" // branch point without a choice prompt
	ErrBranchTooFewChildren = "B208" // branch point with fewer than two declared children
	ErrChoiceLabelMissing   = "B209" // selected branch child without a choice label
	ErrLinearLeaf           = "B210" // non-terminal scenelet without children
	ErrAmbiguousFanOut      = "B211" // linear scenelet with several playable children
	ErrAudioDesignInvalid   = "B212" // audio-design document fails schema validation
	ErrDuplicateScenelet    = "B213" // two records share an id
)

// IntegrityError reports upstream content that cannot be bundled.
type IntegrityError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	SceneletID string `json:"scenelet_id,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.SceneletID != "" {
		msg += fmt.Sprintf(" (scenelet=%s)", e.SceneletID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is an IntegrityError with the given code.
func HasCode(err error, code string) bool {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

func integrityError(code, sceneletID, format string, args ...any) *IntegrityError {
	return &IntegrityError{Code: code, SceneletID: sceneletID, Message: fmt.Sprintf(format, args...)}
}
