package core

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/valter-silva-au/todo/pkg/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Rejects empty and whitespace-only strings.
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// fieldMessages maps struct fields to the message shown when they fail.
var fieldMessages = map[string]string{
	"Name":        MsgNameRequired,
	"Description": MsgDescriptionRequired,
	"Priority":    MsgInvalidPriority,
}

// checkFields runs the struct tag rules on a TaskInput or Task and returns
// the first failure in field order.
func checkFields(v any) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = field + " is invalid"
	}
	return &ValidationError{Field: strings.ToLower(field), Message: msg}
}

// checkDueDate rejects dates strictly before today.
func checkDueDate(due *models.Date, today models.Date) *ValidationError {
	if due != nil && due.Before(today) {
		return &ValidationError{Field: "dueDate", Message: MsgDueDateInPast}
	}
	return nil
}

// checkUniqueName rejects name if another task (other than exclude) has the
// same normalized name.
func checkUniqueName(tasks []models.Task, name string, exclude models.TaskID, excluding bool) *ValidationError {
	n := models.NormalizeName(name)
	for _, t := range tasks {
		if excluding && t.ID == exclude {
			continue
		}
		if models.NormalizeName(t.Name) == n {
			return &ValidationError{Field: "name", Message: MsgDuplicateName}
		}
	}
	return nil
}
