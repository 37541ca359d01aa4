package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one rejected field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FactorValidationError is returned when a payload fails boundary validation.
// Malformed factor data is rejected here, before it reaches the engine.
type FactorValidationError struct {
	Errors []FieldError
}

func (e *FactorValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate validates the skill payload.
func (s *Skill) Validate() error { return validateStruct(s) }

// Validate validates the education payload.
func (e *Education) Validate() error { return validateStruct(e) }

// Validate validates the experience payload.
func (e *Experience) Validate() error { return validateStruct(e) }

// Validate validates the certification payload.
func (c *Certification) Validate() error { return validateStruct(c) }

// Validate validates the profile payload.
func (p *ProfileCompleteness) Validate() error { return validateStruct(p) }

// Validate validates the eligibility rule payload.
func (r *EligibilityRuleInput) Validate() error { return validateStruct(r) }

// Validate validates the weight proposal payload.
func (p *WeightProposal) Validate() error { return validateStruct(p) }

// Validate validates every entry of a full factor document.
func (f *CandidateFactors) Validate() error {
	var all []FieldError
	collect := func(prefix string, err error) {
		var fve *FactorValidationError
		if errors.As(err, &fve) {
			for _, fe := range fve.Errors {
				all = append(all, FieldError{Field: prefix + "." + fe.Field, Message: fe.Message})
			}
		}
	}
	for i := range f.Skills {
		collect(fmt.Sprintf("skills[%d]", i), f.Skills[i].Validate())
	}
	for i := range f.Education {
		collect(fmt.Sprintf("education[%d]", i), f.Education[i].Validate())
	}
	for i := range f.Experience {
		collect(fmt.Sprintf("experience[%d]", i), f.Experience[i].Validate())
	}
	for i := range f.Certifications {
		collect(fmt.Sprintf("certifications[%d]", i), f.Certifications[i].Validate())
	}
	collect("profile", f.Profile.Validate())
	if len(all) > 0 {
		return &FactorValidationError{Errors: all}
	}
	return nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &FactorValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   toSnake(fe.Field()),
			Message: describeTag(fe),
		})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date formatted as YYYY-MM"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// toSnake converts a Go field name to the snake_case JSON name.
func toSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
