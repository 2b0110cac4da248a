package domain

import "errors"

// Errors
var (
	ErrInvalidTaskData      = errors.New("task data is invalid")
	ErrInvalidProductData   = errors.New("product line data is invalid")
	ErrInvalidTaskCode      = errors.New("task code is invalid")
	ErrProductNotInTaskList = errors.New("product not in task product list")
	ErrSequenceExhausted    = errors.New("task code sequence exhausted")
	ErrUnknownRole          = errors.New("unknown user role")
)
