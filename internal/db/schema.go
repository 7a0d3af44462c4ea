package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"personnel-registry/pkg/errors"

	"github.com/rs/zerolog"
)

// Collision is an identity value already shared by several stored records.
type Collision struct {
	Field string
	Value string
	Count int
}

// IdentityConflictError is returned by EnsureSchema when a unique identity
// index cannot be built because stored records already collide. The other
// indexes are still created.
type IdentityConflictError struct {
	Collisions []Collision
}

func (e *IdentityConflictError) Error() string {
	parts := make([]string, 0, len(e.Collisions))
	for _, c := range e.Collisions {
		parts = append(parts, fmt.Sprintf("%s=%q (%d records)", c.Field, c.Value, c.Count))
	}
	return fmt.Sprintf("stored records share identity values: %s", strings.Join(parts, ", "))
}

func (e *IdentityConflictError) Unwrap() error {
	return errors.ErrDuplicate
}

// PrepareSchema runs EnsureSchema. Colliding identities already in the store
// are logged and tolerated: the service keeps running on the duplicate
// pre-check alone until they are merged or deleted and the process restarted.
func PrepareSchema(ctx context.Context, repo Repository, log zerolog.Logger) error {
	err := repo.EnsureSchema(ctx)

	var conflict *IdentityConflictError
	if !stderrors.As(err, &conflict) {
		return err
	}

	for _, c := range conflict.Collisions {
		log.Warn().
			Str("field", c.Field).
			Str("value", c.Value).
			Int("records", c.Count).
			Msg("Identity shared by several stored records")
	}
	log.Warn().
		Int("collisions", len(conflict.Collisions)).
		Msg("Unique identity index not created; resolve the listed records and restart")
	return nil
}
