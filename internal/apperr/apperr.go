// Package apperr defines the typed failures returned by repositories and
// use cases. Callers classify them with errors.As or the Is* helpers.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is returned when input fails its constraints.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidation creates a ValidationError with optional field details.
func NewValidation(message string, fields map[string]string) *ValidationError {
	if message == "" {
		message = "validation failed"
	}
	return &ValidationError{Message: message, Fields: fields}
}

// InvalidField creates a ValidationError for a single field.
func InvalidField(field, reason string) *ValidationError {
	return NewValidation("validation failed", map[string]string{field: reason})
}

// NotFoundError is returned when an entity does not exist, or when the caller
// is not allowed to know that it exists.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AuthorizationError is returned when the caller may see a resource but not
// perform the requested action on it.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	if e.Action == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Action
}

func Forbidden(action string) *AuthorizationError {
	return &AuthorizationError{Action: action}
}

// AuthenticationError is returned for bad credentials or invalid sessions.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return e.Message
}

func Unauthenticated(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// ConflictError is returned when a write collides with existing state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Conflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// UnavailableError is returned when an optional backend such as object
// storage or the AI provider is not configured.
type UnavailableError struct {
	Service string
}

func (e *UnavailableError) Error() string {
	return e.Service + " is not configured"
}

func Unavailable(service string) *UnavailableError {
	return &UnavailableError{Service: service}
}

// Domain names the repository that produced a RepositoryError.
type Domain string

const (
	DomainOkr     Domain = "okr"
	DomainTeam    Domain = "team"
	DomainUser    Domain = "user"
	DomainRole    Domain = "role"
	DomainSession Domain = "session"
)

// RepositoryError wraps a storage failure. The cause is kept for logging and
// never rendered to API clients.
type RepositoryError struct {
	Domain Domain
	Op     string
	Err    error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s repository: %s: %v", e.Domain, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Repository wraps err as a RepositoryError. Typed application errors pass
// through unchanged and a nil err stays nil.
func Repository(domain Domain, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	return &RepositoryError{Domain: domain, Op: op, Err: err}
}

// IsTyped reports whether err already belongs to the taxonomy.
func IsTyped(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsAuthorization(err) ||
		IsAuthentication(err) || IsConflict(err) || IsUnavailable(err) || IsRepository(err)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}

func IsRepository(err error) bool {
	var target *RepositoryError
	return errors.As(err, &target)
}
