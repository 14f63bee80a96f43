package models

import "fmt"

// ErrorKind classifies failures surfaced by the core so handlers can map
// them to HTTP statuses without string matching.
type ErrorKind string

const (
	ErrKindValidation        ErrorKind = "validation"
	ErrKindPromptMismatch    ErrorKind = "prompt_mismatch"
	ErrKindDuplicateAnswer   ErrorKind = "duplicate_answer"
	ErrKindUnknownOption     ErrorKind = "unknown_option"
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindForbidden         ErrorKind = "forbidden"
	ErrKindUnauthenticated   ErrorKind = "unauthenticated"
	ErrKindIntegrityConflict ErrorKind = "integrity_conflict"
)

// DomainError carries a kind plus optional field-level detail for
// validation failures.
type DomainError struct {
	Kind   ErrorKind
	Field  string
	Detail string
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func NewValidationError(field, detail string) *DomainError {
	return &DomainError{Kind: ErrKindValidation, Field: field, Detail: detail}
}

func NewPromptMismatchError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindPromptMismatch, Field: "prompt", Detail: detail}
}

func NewDuplicateAnswerError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindDuplicateAnswer, Field: "prompt", Detail: detail}
}

func NewUnknownOptionError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindUnknownOption, Field: "value", Detail: detail}
}

func NewNotFoundError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindNotFound, Detail: detail}
}

func NewForbiddenError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindForbidden, Detail: detail}
}

func NewUnauthenticatedError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindUnauthenticated, Detail: detail}
}

func NewIntegrityConflictError(detail string) *DomainError {
	return &DomainError{Kind: ErrKindIntegrityConflict, Detail: detail}
}
