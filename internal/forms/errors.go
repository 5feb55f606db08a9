package forms

import (
	"sort"
	"strings"
)

// FormField is the key used for errors that concern the whole form rather than one field.
const FormField = "_form"

// Errors maps form fields to their error messages. A non-empty Errors is an error value,
// so field-level failures travel through ordinary error returns.
type Errors map[string][]string

// FieldError builds Errors holding a single message.
func FieldError(field, message string) Errors {
	return Errors{field: {message}}
}

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], ", "))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}
