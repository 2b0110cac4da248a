package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Generic error codes
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeInternalError = "INTERNAL_ERROR"
)

// Task rejection codes. Every rejected task request carries exactly one.
const (
	CodeInvalidRequestShape       = "INVALID_REQUEST_SHAPE"
	CodeInvalidTaskData           = "INVALID_TASK_DATA"
	CodeInvalidProductData        = "INVALID_PRODUCT_DATA"
	CodeProductNotDefined         = "PRODUCT_NOT_DEFINED"
	CodeShelfNotFound             = "SHELF_NOT_FOUND"
	CodeProductNotDefinedInShelf  = "PRODUCT_NOT_DEFINED_IN_SHELF"
	CodeQuantityExceedsStock      = "QUANTITY_EXCEEDS_STOCK"
	CodeProductNotInTaskList      = "PRODUCT_NOT_IN_TASK_LIST"
	CodeTaskNotAssignedToOperator = "TASK_NOT_ASSIGNED_TO_OPERATOR"
	CodeTaskNotFound              = "TASK_NOT_FOUND"
	CodeConstraintUnavailable     = "CONSTRAINT_SERVICE_UNAVAILABLE"
)

// AppError represents an application error with HTTP status and error code
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails replaces the error details
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates a new AppError
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(CodeUnauthorized, message, http.StatusUnauthorized)
}

// ErrForbidden creates a forbidden error
func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(CodeForbidden, message, http.StatusForbidden)
}

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// Task rejections

func ErrInvalidRequestShape() *AppError {
	return NewAppError(CodeInvalidRequestShape, "Invalid request structure", http.StatusBadRequest)
}

func ErrInvalidTaskData() *AppError {
	return NewAppError(CodeInvalidTaskData, "Invalid task data", http.StatusBadRequest)
}

func ErrInvalidProductData() *AppError {
	return NewAppError(CodeInvalidProductData, "Invalid product data", http.StatusBadRequest)
}

// ErrProductNotDefined reports a product unknown to the catalog
func ErrProductNotDefined(codProduct string) *AppError {
	return NewAppError(CodeProductNotDefined, "Product not defined", http.StatusUnprocessableEntity).
		WithDetail("codProduct", codProduct)
}

// ErrShelfNotFound reports a shelf unknown to the shelf service
func ErrShelfNotFound(shelfID string) *AppError {
	return NewAppError(CodeShelfNotFound, "Shelf not found", http.StatusUnprocessableEntity).
		WithDetail("shelf", shelfID)
}

func ErrProductNotDefinedInShelf(codProduct, shelfID string) *AppError {
	return NewAppError(CodeProductNotDefinedInShelf, "Product not defined in shelf", http.StatusUnprocessableEntity).
		WithDetails(map[string]string{"codProduct": codProduct, "shelf": shelfID})
}

func ErrQuantityExceedsStock(codProduct, shelfID string) *AppError {
	return NewAppError(CodeQuantityExceedsStock, "Quantity exceeds shelf stock", http.StatusUnprocessableEntity).
		WithDetails(map[string]string{"codProduct": codProduct, "shelf": shelfID})
}

func ErrProductNotInTaskList(codProduct string) *AppError {
	return NewAppError(CodeProductNotInTaskList, "Product not in task product list", http.StatusUnprocessableEntity).
		WithDetail("codProduct", codProduct)
}

func ErrTaskNotAssignedToOperator(codTask string) *AppError {
	return NewAppError(CodeTaskNotAssignedToOperator, "Task not assigned to operator", http.StatusForbidden).
		WithDetail("codTask", codTask)
}

func ErrTaskNotFound(codTask string) *AppError {
	return NewAppError(CodeTaskNotFound, "Task not found", http.StatusNotFound).
		WithDetail("codTask", codTask)
}

// ErrConstraintUnavailable is returned when a remote constraint could not be
// evaluated. Requests fail closed.
func ErrConstraintUnavailable(service string) *AppError {
	return NewAppError(CodeConstraintUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts a standard error to an AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	return ErrInternal("").Wrap(err)
}

