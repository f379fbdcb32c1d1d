package service

import (
	"errors"
	"fmt"
	"strings"

	"reviewhub/internal/permissions"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient permissions")

	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCommentNotFound  = errors.New("comment not found")

	ErrReviewExists = errors.New("you have already reviewed this title")
	ErrSlugInUse    = errors.New("slug already in use")
)

// ValidationError collects per-field messages so the caller sees every
// problem at once instead of an opaque failure.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(messages, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ConflictError reports uniqueness collisions (signup with a username or
// email already bound to a different pair) with per-field messages.
type ConflictError struct {
	Fields map[string][]string
}

func NewConflictError() *ConflictError {
	return &ConflictError{Fields: make(map[string][]string)}
}

func (e *ConflictError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ConflictError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(messages, "; ")))
	}
	return "conflict: " + strings.Join(parts, ", ")
}

// decisionError maps a permission decision to the matching sentinel.
func decisionError(d permissions.Decision) error {
	switch d {
	case permissions.Allow:
		return nil
	case permissions.Unauthorized:
		return ErrUnauthorized
	default:
		return ErrForbidden
	}
}
