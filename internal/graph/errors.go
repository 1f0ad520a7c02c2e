package graph

import (
	"errors"
	"strings"
)

// Sentinel errors. Build failures are returned as *BuildError and lookup
// failures as *LookupError; both match these through errors.Is.
var (
	ErrDuplicateResource            = errors.New("graph: duplicate resource")
	ErrDuplicateAttributeName       = errors.New("graph: duplicate attribute name")
	ErrDuplicateRelationshipName    = errors.New("graph: duplicate relationship name")
	ErrMissingForeignKey            = errors.New("graph: missing foreign key")
	ErrForeignKeyType               = errors.New("graph: incompatible foreign key type")
	ErrUnresolvedRelationshipTarget = errors.New("graph: unresolved relationship target")
	ErrInvalidDeclaration           = errors.New("graph: invalid declaration")
	ErrNotFound                     = errors.New("graph: not found")
	ErrAlreadyInstalled             = errors.New("graph: default graph already installed")
)

// BuildError reports why a graph could not be built
type BuildError struct {
	Resource string // public name or type of the offending resource
	Field    string // attribute or relationship name (if applicable)
	Message  string
	Err      error // one of the sentinel errors above
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("graph: build failed")
	}
	if e.Resource != "" {
		b.WriteString(": resource ")
		b.WriteString(e.Resource)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the sentinel error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErr(sentinel error, resource, field, message string) *BuildError {
	return &BuildError{Resource: resource, Field: field, Message: message, Err: sentinel}
}

// LookupError reports a lookup against the frozen graph that matched nothing
type LookupError struct {
	Kind     string // "resource", "attribute" or "relationship"
	Resource string
	Name     string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	switch e.Kind {
	case "resource":
		return "graph: unknown resource " + e.Name
	default:
		return "graph: unknown " + e.Kind + " " + e.Name + " on resource " + e.Resource
	}
}

// Is reports whether the target is ErrNotFound.
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}
