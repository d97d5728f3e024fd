package storage

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskListSchemaURL = "todo-tasks.schema.json"

// taskListSchema describes an exported task collection. IDs may be numbers
// or numeric strings; the upper ID bound and dates are checked after
// decoding into models.Task.
const taskListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id": {
        "type": ["integer", "string"],
        "minimum": 1,
        "pattern": "^[0-9]+$"
      },
      "name": {"type": "string"},
      "description": {"type": "string"},
      "completed": {"type": "boolean"},
      "priority": {"enum": ["high", "medium", "low"]},
      "dueDate": {"type": ["string", "null"]},
      "createdAt": {"type": "string"}
    }
  }
}`

var compiledTaskListSchema = jsonschema.MustCompileString(taskListSchemaURL, taskListSchema)

// validateTaskList checks a decoded JSON document against the task list
// schema and flattens the first leaf cause into a readable message.
func validateTaskList(doc any) error {
	err := compiledTaskListSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "#")
	if loc == "" {
		loc = "/"
	}
	return fmt.Errorf("%s: %s", loc, ve.Message)
}
