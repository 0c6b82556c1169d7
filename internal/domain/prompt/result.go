package prompt

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ExtractionResult is what an inference runner returns for one image.
type ExtractionResult struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
	Raw        string         `json:"raw,omitempty"`
}

// ValidateResult checks an extraction result against the template's rules.
// All violations are collected rather than stopping at the first.
func ValidateResult(result ExtractionResult, rules Rules) error {
	var merr *multierror.Error

	for _, field := range rules.RequiredFields {
		if _, ok := result.Fields[field]; !ok {
			merr = multierror.Append(merr, fmt.Errorf("missing required field %q", field))
		}
	}

	for field, expected := range rules.FieldTypes {
		value, ok := result.Fields[field]
		if !ok {
			continue
		}
		if !typeMatches(value, expected) {
			merr = multierror.Append(merr,
				fmt.Errorf("field %q has type %T, expected %s", field, value, expected))
		}
	}

	if result.Confidence < rules.MinConfidence {
		merr = multierror.Append(merr,
			fmt.Errorf("confidence %.3f below minimum %.3f", result.Confidence, rules.MinConfidence))
	}

	return merr.ErrorOrNil()
}

// typeMatches accepts the numeric representations JSON decoding produces:
// every number arrives as float64, so "integer" means a float64 with no
// fractional part.
func typeMatches(value any, expected string) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "float":
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	default:
		return false
	}
}
