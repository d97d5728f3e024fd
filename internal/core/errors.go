package core

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/todo/pkg/models"
)

// User-facing messages stored in State.Error.
const (
	MsgNameRequired        = "Task name is required"
	MsgDescriptionRequired = "Task description is required"
	MsgInvalidPriority     = "Invalid priority"
	MsgDueDateInPast       = "Due date cannot be in the past"
	MsgDuplicateName       = "A task with this name already exists"
	MsgTaskNotFound        = "Task not found"
	MsgInvalidFilter       = "Invalid filter"
)

var (
	// ErrDuplicateName matches validation failures caused by a name clash.
	ErrDuplicateName = errors.New("duplicate task name")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("task not found")
	// ErrIDsExhausted is returned by AddTask when the largest stored ID
	// leaves no room for another.
	ErrIDsExhausted = errors.New("no task ids left")
)

// ValidationError reports input rejected by the store. Message is the text
// shown to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool {
	return target == ErrDuplicateName && e.Message == MsgDuplicateName
}

// NotFoundError reports an operation on an ID that is not in the store.
type NotFoundError struct {
	ID models.TaskID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", MsgTaskNotFound, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
