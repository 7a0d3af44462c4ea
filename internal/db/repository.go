package db

import (
	"context"
	"fmt"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"
)

// Repository is the persisted store of personnel records.
//
// Insert, InsertMany and UpdateByID return errors.ErrDuplicate when the
// backend rejects a write on its identity uniqueness constraint. Lookups by
// id return errors.ErrNotFound when nothing matches and errors.ErrInvalidID
// when the id cannot be addressed by the backend.
type Repository interface {
	// FindOne returns the first record matching the identity disjunction.
	FindOne(ctx context.Context, filter model.IdentityFilter) (*model.Record, error)
	// Find returns every record matching the identity disjunction.
	Find(ctx context.Context, filter model.IdentityFilter) ([]model.Record, error)
	FindByID(ctx context.Context, id string) (*model.Record, error)
	// FindAll lists records newest first.
	FindAll(ctx context.Context) ([]model.Record, error)
	// Search matches q as a case-insensitive literal substring of the code
	// or Aadhaar number.
	Search(ctx context.Context, q string) ([]model.Record, error)
	Insert(ctx context.Context, record *model.Record) error
	InsertMany(ctx context.Context, records []*model.Record) error
	UpdateByID(ctx context.Context, id string, record *model.Record) (*model.Record, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// EnsureSchema creates indexes/tables, including the unique identity
	// constraints that back up the duplicate pre-check.
	EnsureSchema(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.Database.Driver.
func Open(ctx context.Context, cfg *config.Config) (Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		repo, err := NewMongoRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMySQL:
		conn, err := NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return NewMySQLRepository(conn), nil
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
