package pulseeco

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = mustValidator(newValidator())

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	rules := map[string]validator.Func{
		"sensor_type": func(fl validator.FieldLevel) bool {
			return SensorType(fl.Field().String()).Valid()
		},
		"sensor_status": func(fl validator.FieldLevel) bool {
			return SensorStatus(fl.Field().String()).Valid()
		},
		"value_type": func(fl validator.FieldLevel) bool {
			return DataValueType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return v, nil
}

func mustValidator(v *validator.Validate, err error) *validator.Validate {
	if err != nil {
		panic(err)
	}
	return v
}

// ValidationError reports a payload the API returned that does not match the
// expected model.
type ValidationError struct {
	Endpoint string
	Index    int // -1 for single objects
	Err      error
}

func (e *ValidationError) Error() string {
	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	detail := e.Err.Error()
	if len(fields) > 0 {
		detail = strings.Join(fields, "; ")
	}
	if e.Index >= 0 {
		return fmt.Sprintf("malformed %s payload at index %d: %s", e.Endpoint, e.Index, detail)
	}
	return fmt.Sprintf("malformed %s payload: %s", e.Endpoint, detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validateOne(endpoint string, v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Endpoint: endpoint, Index: -1, Err: err}
	}
	return nil
}

func validateAll[T any](endpoint string, items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return &ValidationError{Endpoint: endpoint, Index: i, Err: err}
		}
	}
	return nil
}
