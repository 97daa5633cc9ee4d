// internal/lifecycle/validation.go
package lifecycle

import (
	"fmt"
	"strings"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// submitSchema constrains the submit payload before it reaches the store.
const submitSchema = `{
  "type": "object",
  "required": ["eventId", "providerId", "message"],
  "properties": {
    "eventId": {"type": "string", "minLength": 1},
    "providerId": {"type": "string", "minLength": 1},
    "message": {"type": "string", "minLength": 10, "maxLength": 2000},
    "serviceCategory": {"type": "string", "maxLength": 120}
  },
  "additionalProperties": false
}`

// SubmitInput is the provider-facing submit payload.
type SubmitInput struct {
	EventID         string `json:"eventId"`
	ProviderID      string `json:"providerId"`
	Message         string `json:"message"`
	ServiceCategory string `json:"serviceCategory,omitempty"`
}

// ValidateSubmit checks input against the submit schema and returns a
// VALIDATION_FAILED error listing every violated constraint.
func ValidateSubmit(input SubmitInput) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(submitSchema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return apperrors.NewValidationFailedError(fmt.Sprintf("schema evaluation: %s", err.Error()))
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return apperrors.NewValidationFailedError(strings.Join(details, "; "))
}
