package validator

import (
	"fmt"
	"strings"

	"github.com/ezenglish/learning-service/internal/models"
)

// ValidateExerciseCreate runs struct tags plus the exercise content rules
func (v *Validator) ValidateExerciseCreate(req *models.ExerciseCreateRequest) error {
	if err := v.Validate(req); err != nil {
		return err
	}
	if errs := ExerciseContentRules(req.Type, req.Options, req.CorrectAnswer); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateExerciseUpdate checks the update tags and, against the merged result, the content rules
func (v *Validator) ValidateExerciseUpdate(req *models.ExerciseUpdateRequest, merged *models.Exercise) error {
	if err := v.Validate(req); err != nil {
		return err
	}

	opts, err := merged.OptionList()
	if err != nil {
		return ValidationErrors{{Field: "options", Message: "are not valid JSON", Rule: "business_logic"}}
	}
	if errs := ExerciseContentRules(merged.Type, opts, merged.CorrectAnswer); len(errs) > 0 {
		return errs
	}
	return nil
}

// ExerciseContentRules validates options against the exercise type.
// Multiple-choice exercises need at least two distinct options and a correct
// answer equal to one option's text or id. Fill-in exercises ignore options.
func ExerciseContentRules(t models.ExerciseType, opts []models.ExerciseOption, correct string) ValidationErrors {
	var errs ValidationErrors

	if t != models.ExerciseMultipleChoice {
		return nil
	}

	if len(opts) < 2 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "multiple choice exercises need at least 2 options",
			Value:   len(opts),
			Rule:    "business_logic",
		})
		return errs
	}

	seen := make(map[string]bool, len(opts))
	matched := false
	for i, o := range opts {
		if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Text) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "id and text are required",
				Rule:    "business_logic",
			})
			continue
		}
		if seen[o.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d].id", i),
				Message: "must be unique",
				Value:   o.ID,
				Rule:    "business_logic",
			})
		}
		seen[o.ID] = true
		if o.Text == correct || o.ID == correct {
			matched = true
		}
	}

	if !matched {
		errs = append(errs, ValidationError{
			Field:   "correct_answer",
			Message: "must match one of the options",
			Rule:    "business_logic",
		})
	}

	return errs
}
