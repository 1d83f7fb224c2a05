package models

import (
	"errors"
	"fmt"
)

// DomainError is a business-rule rejection with a stable machine-readable
// code. The calling layer is responsible for localizing it; this package
// never formats user-facing prose.
type DomainError struct {
	Code   string
	Params []interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if len(e.Params) == 0 {
		return e.Code
	}
	return fmt.Sprintf("%s %v", e.Code, e.Params)
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// ErrCode extracts the domain error code from err, or "" if err is not a
// DomainError.
func ErrCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Domain errors thrown by the privilege resolver and the lifecycle engine.
var (
	ErrNoTopic              = &DomainError{Code: "no-topic"}
	ErrNoPrivileges         = &DomainError{Code: "no-privileges"}
	ErrTopicAlreadyDeleted  = &DomainError{Code: "topic-already-deleted"}
	ErrTopicAlreadyRestored = &DomainError{Code: "topic-already-restored"}
	ErrCantPinScheduled     = &DomainError{Code: "cant-pin-scheduled"}
	ErrCantMoveSameCategory = &DomainError{Code: "cant-move-topic-to-same-category"}
	ErrInvalidData          = &DomainError{Code: "invalid-data"}
)

// NewDeleteThresholdError reports that a topic has accumulated too many
// replies to be deleted by a non-moderator. The code is pluralized on the
// configured threshold and the threshold is carried as a parameter.
func NewDeleteThresholdError(threshold int) *DomainError {
	code := "cant-delete-topic-has-replies"
	if threshold == 1 {
		code = "cant-delete-topic-has-reply"
	}
	return &DomainError{Code: code, Params: []interface{}{threshold}}
}
