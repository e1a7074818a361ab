// Package envelope builds the uniform response wrapper returned by every order operation.
package envelope

import (
	"math"
	"net/http"
	"time"
)

// Default messages used when a caller passes an empty string.
const (
	DefaultSuccessMessage     = "Success"
	DefaultSuccessDescription = "Request processed successfully"

	DefaultErrorMessage     = "An error occurred"
	DefaultErrorDescription = "An error occurred"

	DefaultValidationMessage     = "Invalid data"
	DefaultValidationDescription = "Validation failed"

	DefaultPageMessage     = "Data retrieved successfully"
	DefaultPageDescription = "Data retrieved successfully"
)

// Now returns the generation time stamped on every envelope.
var Now = time.Now

// Envelope is the wire shape of every response.
type Envelope[T any] struct {
	Success     bool   `json:"success"`
	Code        int    `json:"code"`
	ErrorCode   int    `json:"error_code"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Data        T      `json:"data"`
	Timestamp   int64  `json:"timestamp"`
}

// Page is the payload of a paginated success.
type Page[T any] struct {
	Content     []T  `json:"content"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Success wraps data into a successful envelope. A zero code means 200.
func Success[T any](data T, message, description string, code int) Envelope[T] {
	return Envelope[T]{
		Success:     true,
		Code:        orDefault(code, http.StatusOK),
		ErrorCode:   0,
		Message:     orDefaultString(message, DefaultSuccessMessage),
		Description: orDefaultString(description, DefaultSuccessDescription),
		Data:        data,
		Timestamp:   Now().UnixMilli(),
	}
}

// Error builds a failed envelope. A zero code means 500 and a zero errorCode means 1.
func Error[T any](message, description string, code, errorCode int, data T) Envelope[T] {
	return Envelope[T]{
		Success:     false,
		Code:        orDefault(code, http.StatusInternalServerError),
		ErrorCode:   orDefault(errorCode, 1),
		Message:     orDefaultString(message, DefaultErrorMessage),
		Description: orDefaultString(description, DefaultErrorDescription),
		Data:        data,
		Timestamp:   Now().UnixMilli(),
	}
}

// ValidationError builds a failed envelope whose payload maps field names to violation messages.
// Zero codes mean 400.
func ValidationError(
	fields map[string][]string,
	message, description string,
	code, errorCode int,
) Envelope[map[string][]string] {
	if fields == nil {
		fields = map[string][]string{}
	}

	return Envelope[map[string][]string]{
		Success:     false,
		Code:        orDefault(code, http.StatusBadRequest),
		ErrorCode:   orDefault(errorCode, http.StatusBadRequest),
		Message:     orDefaultString(message, DefaultValidationMessage),
		Description: orDefaultString(description, DefaultValidationDescription),
		Data:        fields,
		Timestamp:   Now().UnixMilli(),
	}
}

// PaginatedSuccess wraps one page of items together with the paging metadata.
// A non-positive pageSize yields zero total pages.
func PaginatedSuccess[T any](
	items []T,
	total, page, pageSize int,
	message, description string,
	code int,
) Envelope[Page[T]] {
	if items == nil {
		items = []T{}
	}

	totalPages := TotalPages(total, pageSize)

	return Success(Page[T]{
		Content:     items,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	},
		orDefaultString(message, DefaultPageMessage),
		orDefaultString(description, DefaultPageDescription),
		code,
	)
}

// TotalPages returns ceil(total/pageSize), or 0 when pageSize is not positive.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}

	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}

	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
