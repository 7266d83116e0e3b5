package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies an application error class.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"

	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeMinerNotFound       ErrorCode = "MINER_NOT_FOUND"
	ErrCodeTransactionNotFound ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeUnknownMinerType    ErrorCode = "UNKNOWN_MINER_TYPE"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeMissingPayoutTarget ErrorCode = "MISSING_PAYOUT_TARGET"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// AppError is a typed application error carrying a machine-readable code.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error denotes a missing resource.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeUserNotFound ||
		e.Code == ErrCodeMinerNotFound ||
		e.Code == ErrCodeTransactionNotFound
}

// IsInternal reports whether the error should be treated as a server fault.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeDatabaseError
}

// WithDetail attaches structured context to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap attaches a cause to a new application error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the errors the mining core raises.

func NewUserNotFoundError(userID string) *AppError {
	return New(ErrCodeUserNotFound, fmt.Sprintf("User not found: %s", userID)).
		WithDetail("user_id", userID)
}

func NewMinerNotFoundError(userID, minerID string) *AppError {
	return New(ErrCodeMinerNotFound, fmt.Sprintf("Miner not found: %s", minerID)).
		WithDetail("user_id", userID).
		WithDetail("miner_id", minerID)
}

func NewTransactionNotFoundError(userID, txID string) *AppError {
	return New(ErrCodeTransactionNotFound, fmt.Sprintf("Transaction not found: %s", txID)).
		WithDetail("user_id", userID).
		WithDetail("transaction_id", txID)
}

func NewUnknownMinerTypeError(minerType string) *AppError {
	return New(ErrCodeUnknownMinerType, fmt.Sprintf("Unknown miner type: %s", minerType)).
		WithDetail("miner_type", minerType)
}

func NewInsufficientBalanceError(balance, amount float64) *AppError {
	return New(ErrCodeInsufficientBalance, "Balance is insufficient for this transaction").
		WithDetail("balance", balance).
		WithDetail("amount", amount)
}

func NewMissingPayoutTargetError(userID string) *AppError {
	return New(ErrCodeMissingPayoutTarget, "No payout address configured for user").
		WithDetail("user_id", userID)
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource).
		WithDetail("reason", reason)
}

// AsAppError extracts an AppError from err if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
