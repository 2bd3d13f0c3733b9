package domain

import (
	"errors"
	"strings"
)

var (
	// ErrChallengeNotFound is returned when a challenge id does not resolve.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrDocumentNotFound is returned by document stores for unknown ids.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrQuestionNotFound indicates a question index outside the challenge.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPermissionDenied is returned when a non-owner tries to delete a challenge.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrStorage matches every StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrUnauthenticated is returned when no valid identity is attached to a request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAlreadySubmitted is returned when a play session is changed after submission.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrNotSubmitted is returned when recording is requested before scoring.
	ErrNotSubmitted = errors.New("attempt not submitted")
)

// ValidationError describes one malformed field of a challenge draft.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects every problem found in one draft.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failure of the document store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError wraps err unless it already is a StorageError or a not-found signal.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
