package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atinyakov/ContactKeeper/internal/repository"
)

var (
	// ErrNotFound means the record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the input failed field validation.
	ErrValidation = errors.New("validation failed")
	// ErrConcurrentModification means an edit raced with another writer on a record that still exists.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrCrossOwner means a contact and a category of different owners were to be associated.
	ErrCrossOwner = errors.New("cross-owner association")
	// ErrDuplicateCategory means the owner already has a category with that name.
	ErrDuplicateCategory = errors.New("category already exists")
)

// ValidationError lists the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	// Fields maps a JSON field name to the rule it broke.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// translate maps repository sentinels onto service ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateCategory
	default:
		return err
	}
}
