package util

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable label the UI maps onto messages and recovery
// behaviour. Kinds survive wrapping; use Kind to classify.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindAlreadyAttempted ErrorKind = "already_attempted"
	KindAlreadySubmitted ErrorKind = "already_submitted"
	KindNotFound         ErrorKind = "not_found"
	KindAuthorization    ErrorKind = "authorization_error"
	KindInvalidBlockType ErrorKind = "invalid_block_type"
	KindInternal         ErrorKind = "internal_error"
)

var (
	ErrBlockNotFound      = &EngineError{Kind: KindNotFound, Message: "content block not found"}
	ErrAttemptNotFound    = &EngineError{Kind: KindNotFound, Message: "attempt not found"}
	ErrSubmissionNotFound = &EngineError{Kind: KindNotFound, Message: "submission not found"}
	ErrAlreadyAttempted   = &EngineError{Kind: KindAlreadyAttempted, Message: "examination already attempted"}
	ErrAttemptLimit       = &EngineError{Kind: KindAlreadyAttempted, Message: "attempt limit reached"}
	ErrAlreadySubmitted   = &EngineError{Kind: KindAlreadySubmitted, Message: "assignment already submitted"}
	ErrAlreadyGraded      = &EngineError{Kind: KindValidation, Message: "submission already graded"}
	ErrAttemptClosed      = &EngineError{Kind: KindValidation, Message: "attempt already submitted"}
	ErrNegativeTime       = &EngineError{Kind: KindValidation, Message: "timeSpentSeconds must not be negative"}
	ErrNotAssessable      = &EngineError{Kind: KindInvalidBlockType, Message: "block type does not support attempts"}
	ErrNotAssignment      = &EngineError{Kind: KindInvalidBlockType, Message: "block type does not accept submissions"}
	ErrAssessedCompletion = &EngineError{Kind: KindValidation, Message: "assessed blocks are completed through grading, not directly"}
	ErrStaffOnly          = &EngineError{Kind: KindAuthorization, Message: "grading requires a staff role"}
)

// EngineError carries the error taxonomy of the assessment engine.
type EngineError struct {
	Kind    ErrorKind
	Message string
}

func (e *EngineError) Error() string { return e.Message }

func Validationf(format string, args ...interface{}) error {
	return &EngineError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Kind classifies any error, unwrapping as needed. Unknown errors are
// internal: store failures bubble up unchanged and unclassified.
func Kind(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}
