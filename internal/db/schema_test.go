package db

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"personnel-registry/pkg/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaRepository struct {
	*MemoryRepository
	err error
}

func (r *schemaRepository) EnsureSchema(ctx context.Context) error {
	return r.err
}

func TestIdentityConflictError(t *testing.T) {
	err := &IdentityConflictError{Collisions: []Collision{
		{Field: "codeNoKey", Value: "e-001", Count: 2},
		{Field: "adhaarNo", Value: "123456789012", Count: 3},
	}}

	assert.ErrorIs(t, err, errors.ErrDuplicate)
	assert.Contains(t, err.Error(), `codeNoKey="e-001" (2 records)`)
	assert.Contains(t, err.Error(), `adhaarNo="123456789012" (3 records)`)
}

func TestPrepareSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("should log colliding identities and carry on", func(t *testing.T) {
		var buf bytes.Buffer
		repo := &schemaRepository{
			MemoryRepository: NewMemoryRepository(),
			err: fmt.Errorf("failed to create indexes: %w", &IdentityConflictError{Collisions: []Collision{
				{Field: "codeNoKey", Value: "e-001", Count: 2},
			}}),
		}

		require.NoError(t, PrepareSchema(ctx, repo, zerolog.New(&buf)))
		assert.Contains(t, buf.String(), `"value":"e-001"`)
		assert.Contains(t, buf.String(), `"records":2`)
	})

	t.Run("should return other failures", func(t *testing.T) {
		boom := stderrors.New("connection refused")
		repo := &schemaRepository{MemoryRepository: NewMemoryRepository(), err: boom}

		assert.ErrorIs(t, PrepareSchema(ctx, repo, zerolog.Nop()), boom)
	})

	t.Run("should pass through success", func(t *testing.T) {
		assert.NoError(t, PrepareSchema(ctx, NewMemoryRepository(), zerolog.Nop()))
	})
}
