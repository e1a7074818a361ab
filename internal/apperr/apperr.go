// Package apperr classifies failures of order operations into the codes carried by the
// response envelope.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
)

// Error codes by operation family: 1xxx create, 2xxx list, 3xxx delete, 4xxx update.
const (
	CodeCreateInternal = 1000
	CodeCreateFailed   = 1001

	CodeListInternal          = 2000
	CodeListInvalidPagination = 2001
	CodeListInvalidDate       = 2002
	CodeListFailed            = 2003

	CodeDeleteInternal = 3000
	CodeDeleteFailed   = 3001
	CodeDeleteNotFound = 3004

	CodeUpdateInternal = 4000
	CodeUpdateFailed   = 4001
	CodeUpdateNotFound = 4004

	CodeValidation = 400
	CodeUnexpected = 1
)

// Error is a classified operation failure.
type Error struct {
	Status      int
	ErrorCode   int
	Message     string
	Description string
	Fields      map[string][]string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Description, e.Err)
	}

	return e.Description
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without a cause.
func New(status, errorCode int, message, description string) *Error {
	return &Error{
		Status:      status,
		ErrorCode:   errorCode,
		Message:     message,
		Description: description,
	}
}

// Validation creates an Error carrying per-field violations.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Status:      http.StatusBadRequest,
		ErrorCode:   CodeValidation,
		Message:     "Invalid data",
		Description: "Validation failed",
		Fields:      fields,
	}
}

// Store classifies a data store failure. Data and constraint errors are the client's fault,
// everything else (network, timeouts, server) is not.
func Store(errorCode int, message, action string, err error) *Error {
	return &Error{
		Status:      StoreStatus(err),
		ErrorCode:   errorCode,
		Message:     message,
		Description: fmt.Sprintf("Failed to %s: %s", action, storeMessage(err)),
		Err:         err,
	}
}

// Internal creates a generic failure that does not leak the cause.
func Internal(errorCode int, message, description string, err error) *Error {
	return &Error{
		Status:      http.StatusInternalServerError,
		ErrorCode:   errorCode,
		Message:     message,
		Description: description,
		Err:         err,
	}
}

// As extracts an *Error from err. Unclassified errors become a generic internal error.
func As(err error) *Error {
	return Classify(err, CodeUnexpected, "An error occurred", "Internal server error")
}

// Classify extracts an *Error from err. Unclassified errors become an internal error carrying
// the operation's internal code and texts.
func Classify(err error, internalCode int, message, description string) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal(internalCode, message, description, err)
}

// StoreStatus maps a store error to an HTTP status.
func StoreStatus(err error) int {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return http.StatusBadRequest
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps an HTTP-class status to a gRPC code.
func GRPCCode(status int) codes.Code {
	switch status {
	case http.StatusOK, http.StatusCreated:
		return codes.OK
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case http.StatusRequestTimeout:
		return codes.Canceled
	default:
		return codes.Internal
	}
}

func storeMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	if err == nil {
		return "unknown error"
	}

	return err.Error()
}
