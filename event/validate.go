package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError reports a structurally invalid event field. It is raised
// locally, before any boundary call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event: invalid field %q", e.Field)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("event: register notblank: %v", err))
	}
	// Report fields under their wire names, not their Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structErr converts validator output to a ValidationError naming the first
// offending field.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field()}
	}
	return err
}

// checkEnvelope validates that the free-form envelope fields, when present,
// are well-formed JSON. Their content is otherwise unconstrained.
func checkEnvelope(context, integrations json.RawMessage) error {
	if len(context) > 0 && !json.Valid(context) {
		return &ValidationError{Field: "context"}
	}
	if len(integrations) > 0 && !json.Valid(integrations) {
		return &ValidationError{Field: "integrations"}
	}
	return nil
}
