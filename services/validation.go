package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"order-desk/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(JSONTagName)
	return v
}

// JSONTagName reports struct fields by their JSON name in validation messages.
func JSONTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// FieldMessages turns validator errors into readable per-field messages.
func FieldMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func validateItems(items []models.LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Message: "Order must have at least one item"}
	}

	var fields []string
	for i, it := range items {
		if err := validate.Struct(it); err != nil {
			for _, msg := range FieldMessages(err) {
				fields = append(fields, fmt.Sprintf("items[%d].%s", i, msg))
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Message: "Validation error", Fields: fields}
	}
	return nil
}

func validateTotalPrice(total float64) error {
	if total < 0 {
		return &ValidationError{Message: "Validation error", Fields: []string{"totalPrice must be greater than or equal to 0"}}
	}
	return nil
}
