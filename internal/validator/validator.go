package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/smart-grading/grading-service/internal/models"
)

// ValidationError represents a single failed validation rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the service's custom rules
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// question_kind: one of the three supported kinds
	_ = validate.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		switch models.QuestionKind(fl.Field().String()) {
		case models.MultipleChoice, models.TrueFalse, models.Subjective:
			return true
		}
		return false
	})

	// points_range: positive point value with a sane upper bound
	_ = validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	return &Validator{validate: validate}
}

// Validate validates a struct against its tags and returns typed errors
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "question_kind":
		return "must be multiple_choice, true_false or subjective"
	case "points_range":
		return "must be between 1 and 100"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
