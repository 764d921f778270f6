package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error maps request field names to a human readable problem. Handlers send
// Fields as the details of a 400 response.
type Error struct {
	Fields map[string]string
}

// fieldError builds an Error for a single field.
func fieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)

	msgs := make([]string, len(names))
	for i, field := range names {
		msgs[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return strings.Join(msgs, "; ")
}
