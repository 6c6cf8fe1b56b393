package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Typed errors below match these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrStateConflict     = errors.New("state conflict")
	ErrAlreadyConverted  = errors.New("demand already converted")
	ErrDependentActivity = errors.New("dependent activity exists")
	ErrStore             = errors.New("store failure")
)

// Auth errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
)

// ValidationError reports malformed input caught before any write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing entity
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StateConflictError is returned when an action is illegal from the current status
type StateConflictError struct {
	DemandID string
	Action   Action
	Current  DemandStatus
	Required []DemandStatus
}

func (e *StateConflictError) Error() string {
	req := make([]string, len(e.Required))
	for i, s := range e.Required {
		req[i] = string(s)
	}
	return fmt.Sprintf("cannot %s demand %s: status is %s, requires one of [%s]",
		strings.ToLower(string(e.Action)), e.DemandID, e.Current, strings.Join(req, ", "))
}

func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// AlreadyConvertedError is the StateConflictError for a demand whose contract is set
type AlreadyConvertedError struct {
	DemandID   string
	ContractID string
	Current    DemandStatus
}

func (e *AlreadyConvertedError) Error() string {
	return fmt.Sprintf("demand %s already converted to contract %s", e.DemandID, e.ContractID)
}

func (e *AlreadyConvertedError) Is(target error) bool {
	return target == ErrAlreadyConverted || target == ErrStateConflict
}

// DependentActivityError blocks a contract deletion
type DependentActivityError struct {
	ContractID string
	Activity   ContractActivity
}

func (e *DependentActivityError) Error() string {
	return fmt.Sprintf("contract %s has activity: %d payments, %d support items, %d early refunds",
		e.ContractID, e.Activity.Payments, e.Activity.SupportItems, e.Activity.EarlyRefunds)
}

func (e *DependentActivityError) Is(target error) bool {
	return target == ErrDependentActivity
}

// StoreError wraps a persistence failure. The core never retries it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Store wraps err as a StoreError, nil stays nil
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// ConversionIncompleteError is returned when the contract was created but the
// demand could not be linked to it. Retrying Convert resumes from the link step.
type ConversionIncompleteError struct {
	DemandID   string
	ContractID string
	Err        error
}

func (e *ConversionIncompleteError) Error() string {
	return fmt.Sprintf("contract %s created but demand %s not linked: %v", e.ContractID, e.DemandID, e.Err)
}

func (e *ConversionIncompleteError) Unwrap() error {
	return e.Err
}

func (e *ConversionIncompleteError) Is(target error) bool {
	return target == ErrStore
}

// ErrStaleWrite is returned by a store when a conditional status write
// matched no row because the record changed since it was read.
var ErrStaleWrite = errors.New("status precondition failed")

// ErrDuplicateID is returned by a store when the primary key already exists
var ErrDuplicateID = errors.New("duplicate identifier")
