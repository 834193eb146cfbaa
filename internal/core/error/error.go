package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a Redis key is missing.
	RedisNotFoundMessage = "redis key not found"
	// StoreErrorMessage describes vector store failures.
	StoreErrorMessage = "vector store operation failed"
	// ProductNotFoundMessage is returned when a catalog lookup misses.
	ProductNotFoundMessage = "Product not found"
)

// ErrNotFound is the sentinel matched by errors.Is for every not-found AppError.
var ErrNotFound = errors.New("not found")

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NotFound builds a 404 AppError that matches ErrNotFound.
func NotFound(message string) *AppError {
	return New(ErrNotFound, http.StatusNotFound, message)
}

// Invalid builds a 422 AppError whose message is the validation error.
func Invalid(err error) *AppError {
	return New(err, http.StatusUnprocessableEntity, err.Error())
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapStore wraps a storage backend error as a 500, leaving AppErrors
// untouched.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return New(err, http.StatusInternalServerError, StoreErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err, or SystemErrorMessage.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
