package registry

import (
	"context"
	stderrors "errors"

	"personnel-registry/internal/db"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"
)

// Checker looks for stored records sharing an identity with a candidate.
// It only reads from the repository. The check is a pre-check: two writers
// racing on the same identity are stopped by the backend's unique indexes.
type Checker struct {
	repo db.Repository
}

func NewChecker(repo db.Repository) *Checker {
	return &Checker{repo: repo}
}

// Check returns the colliding record, or nil when there is none. A code
// number collides case-insensitively, an Aadhaar number exactly. excludeID
// leaves one record out, for updates. A candidate with neither field yields
// errors.ErrMissingIdentity.
func (c *Checker) Check(ctx context.Context, candidate model.Record, excludeID string) (*model.Record, error) {
	filter := model.IdentityFilter{
		CodeNoKey: candidate.CodeNoKey(),
		AdhaarNo:  candidate.AdhaarNo,
		ExcludeID: excludeID,
	}
	if filter.Empty() {
		return nil, errors.ErrMissingIdentity
	}

	existing, err := c.repo.FindOne(ctx, filter)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}
