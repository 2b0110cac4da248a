package application

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/task-control-service/internal/domain"
)

// taskInput is a creation payload once its shape has been accepted
type taskInput struct {
	CodOperator string             `json:"codOperator" validate:"required"`
	Date        string             `json:"date" validate:"required"`
	Type        string             `json:"type" validate:"required"`
	Status      string             `json:"status" validate:"required"`
	ProductList []productLineInput `json:"productList" validate:"required,min=1"`
}

type productLineInput struct {
	CodProduct string `json:"codProduct" validate:"required"`
	From       string `json:"from" validate:"required_without=To"`
	To         string `json:"to" validate:"required_without=From"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

// taskPatchInput is an update payload. Nil fields were not sent.
type taskPatchInput struct {
	CodOperator *string                 `json:"codOperator" validate:"omitnil,min=1"`
	Date        *string                 `json:"date" validate:"omitnil,min=1"`
	Type        *string                 `json:"type" validate:"omitnil,min=1"`
	Status      *string                 `json:"status" validate:"omitnil,min=1"`
	ProductList []productLinePatchInput `json:"productList"`
}

type productLinePatchInput struct {
	CodProduct string  `json:"codProduct" validate:"required"`
	From       *string `json:"from"`
	To         *string `json:"to"`
	Quantity   *int    `json:"quantity" validate:"required,gt=0"`
}

// payloadValidator turns accepted payloads into typed input and checks field
// values. Failures are reported as the rejection the workflow must return.
type payloadValidator struct {
	validate *validator.Validate
}

func newPayloadValidator() *payloadValidator {
	return &payloadValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// decode re-reads a payload into the typed form. Values of the wrong JSON
// type end up here.
func decode(payload domain.Payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// checkTask validates the task level fields, then every line
func (v *payloadValidator) checkTask(in taskInput) error {
	if err := v.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTaskData, describe(err))
	}
	for i, line := range in.ProductList {
		if err := v.validate.Struct(line); err != nil {
			return fmt.Errorf("%w: line %d: %s", domain.ErrInvalidProductData, i, describe(err))
		}
	}
	return nil
}

// checkPatch validates the fields an update sets
func (v *payloadValidator) checkPatch(in taskPatchInput) error {
	if err := v.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTaskData, describe(err))
	}
	for i, line := range in.ProductList {
		if err := v.validate.Struct(line); err != nil {
			return fmt.Errorf("%w: line %d: %s", domain.ErrInvalidProductData, i, describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	return fmt.Sprintf("field %s failed on %s", verrs[0].Field(), verrs[0].Tag())
}
