package jsonapi

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind         = errors.New("unknown resource kind")
	ErrUnknownRelationship = errors.New("unknown relationship")
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicate           = errors.New("duplicate resource")
	ErrLinkage             = errors.New("linkage does not match schema")
	ErrEmptyPath           = errors.New("empty inclusion path")
)

// GraphError reports a graph integrity failure on one resource or
// relationship. Fields that do not apply are left empty.
type GraphError struct {
	Type         Kind
	ID           string
	Relationship Relation
	Err          error
}

func (e *GraphError) Error() string {
	msg := string(e.Type)
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	if e.Relationship != "" {
		msg += fmt.Sprintf(" relationship %q", e.Relationship)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *GraphError) Unwrap() error { return e.Err }

// IsGraphError reports whether err (or any error in its chain) is a GraphError.
func IsGraphError(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge)
}

func graphErr(kind Kind, id string, rel Relation, err error) error {
	return &GraphError{Type: kind, ID: id, Relationship: rel, Err: err}
}

func graphErrf(kind Kind, id string, rel Relation, sentinel error, format string, a ...any) error {
	return graphErr(kind, id, rel, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, a...)))
}
