package app

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match. The message is shown to end users and deliberately does not say
	// whether the email exists.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	ErrUserExists    = errors.New("User with this email or username already exists")
	ErrUsernameTaken = errors.New("Username already taken")

	ErrUserNotFound   = errors.New("User not found")
	ErrBookNotFound   = errors.New("Book not found")
	ErrReviewNotFound = errors.New("Review not found")

	ErrDuplicateReview = errors.New("You have already reviewed this book")

	ErrNotReviewOwner  = errors.New("Not authorized to modify this review")
	ErrNotProfileOwner = errors.New("Not authorized to update this profile")

	// ErrRefinementFailed wraps completion collaborator failures so the HTTP
	// layer can map them to 502 without leaking provider internals.
	ErrRefinementFailed = errors.New("Failed to refine review")
)

// FieldError points at a single offending request field.
type FieldError struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ValidationError carries every offending field of a request, not just the
// first one found.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Path+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func validationError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
