package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Resource != "" {
		b.WriteString(e.Resource)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidateStructural validates a single resource schema without cross-resource
// checks, so schemas can be registered in any order. Relationship targets are
// resolved by the resource graph builder.
func ValidateStructural(schema *ResourceSchema) error {
	var errs []*ValidationError

	if schema.Name == "" {
		errs = append(errs, &ValidationError{Message: "resource has no name"})
	}

	seen := make(map[string]bool, len(schema.Fields))
	primaryKeys := 0
	for _, field := range schema.Fields {
		if field.Name == "" {
			errs = append(errs, &ValidationError{Resource: schema.Name, Message: "field has no name"})
			continue
		}
		if field.Type == nil {
			errs = append(errs, &ValidationError{Resource: schema.Name, Field: field.Name, Message: "field has no type"})
			continue
		}
		if seen[field.Name] {
			errs = append(errs, &ValidationError{Resource: schema.Name, Field: field.Name, Message: "duplicate field"})
		}
		seen[field.Name] = true

		if field.HasAnnotation(AnnotationPrimary) {
			primaryKeys++
			if field.Type.Nullable {
				errs = append(errs, &ValidationError{
					Resource: schema.Name,
					Field:    field.Name,
					Message:  "primary key must be non-nullable (!)",
				})
			}
			if _, ok := KeyType(field.Type.BaseType); !ok {
				errs = append(errs, &ValidationError{
					Resource: schema.Name,
					Field:    field.Name,
					Message:  fmt.Sprintf("%s cannot be used as a primary key", field.Type.BaseType),
					Hint:     "Use int, bigint, uuid, string or text",
				})
			}
		}
	}

	switch {
	case primaryKeys == 0:
		errs = append(errs, &ValidationError{
			Resource: schema.Name,
			Message:  "resource must have a primary key",
			Hint:     "Add a field with @primary annotation, e.g.: id: uuid! @primary",
		})
	case primaryKeys > 1:
		errs = append(errs, &ValidationError{
			Resource: schema.Name,
			Message:  fmt.Sprintf("resource has %d primary keys, expected 1", primaryKeys),
			Hint:     "Only one field should have @primary annotation",
		})
	}

	for _, rel := range schema.Relationships {
		if rel.FieldName == "" || rel.TargetResource == "" {
			errs = append(errs, &ValidationError{
				Resource: schema.Name,
				Field:    rel.FieldName,
				Message:  "relationship needs a field name and a target resource",
			})
		}
	}

	if len(errs) > 0 {
		var errMsgs []string
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("schema validation failed with %d errors:\n%s",
			len(errs), strings.Join(errMsgs, "\n"))
	}

	return nil
}
