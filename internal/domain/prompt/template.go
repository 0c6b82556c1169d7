// Package prompt loads extraction prompt templates, formats them against
// document images, and validates extraction results against per-template
// rules.
package prompt

import (
	"fmt"
	"strings"
)

// ImagePlaceholder must appear in every template body; the inference
// service substitutes the encoded image at this position.
const ImagePlaceholder = "[IMG]"

// Template is one extraction prompt, loaded from a YAML file under
// <config>/prompts.
type Template struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	Template        string `yaml:"template"`
	Field           string `yaml:"field"`
	ValidationRules Rules  `yaml:"validation_rules"`
}

// Rules constrain what an extraction result must look like to be accepted.
type Rules struct {
	RequiredFields []string          `yaml:"required_fields"`
	FieldTypes     map[string]string `yaml:"field_types"`
	MinConfidence  float64           `yaml:"min_confidence"`
}

// TemplateError reports a malformed or unloadable template.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Validate checks the template's structural requirements.
func (t *Template) Validate() error {
	if t.Name == "" {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("name is required")}
	}
	if t.Description == "" {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("description is required")}
	}
	if t.Template == "" {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("template body is required")}
	}
	if !strings.Contains(t.Template, ImagePlaceholder) {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("template body must contain the %s placeholder", ImagePlaceholder)}
	}
	if t.Field == "" {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("field is required")}
	}
	if len(t.ValidationRules.RequiredFields) == 0 {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("validation_rules.required_fields is required")}
	}
	if t.ValidationRules.FieldTypes == nil {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("validation_rules.field_types is required")}
	}
	for field, typ := range t.ValidationRules.FieldTypes {
		switch typ {
		case "string", "float", "integer":
		default:
			return &TemplateError{Name: t.Name, Err: fmt.Errorf("unknown type %q for field %q", typ, field)}
		}
	}
	if t.ValidationRules.MinConfidence < 0 || t.ValidationRules.MinConfidence > 1 {
		return &TemplateError{Name: t.Name, Err: fmt.Errorf("validation_rules.min_confidence must be between 0 and 1")}
	}
	return nil
}
