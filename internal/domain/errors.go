package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCreatedStatusMissing means the "Created" status is absent from the
	// reference data. That is a misconfigured database, not a bad request.
	ErrCreatedStatusMissing = errors.New(`status "Created" missing from reference data`)
)

// DuplicateProductsError rejects a creation request in which two or more
// items reference the same product.
type DuplicateProductsError struct {
	ProductIDs []uuid.UUID
}

func (e *DuplicateProductsError) Error() string {
	return "duplicate products in order: " + joinIDs(e.ProductIDs)
}

// UnknownProductsError rejects a creation request referencing products that
// do not exist.
type UnknownProductsError struct {
	ProductIDs []uuid.UUID
}

func (e *UnknownProductsError) Error() string {
	return "unknown products: " + joinIDs(e.ProductIDs)
}

func joinIDs(ids []uuid.UUID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ", ")
}

// ValidationError covers malformed input caught before the store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
