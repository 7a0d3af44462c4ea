package registry

import (
	"context"
	"fmt"
	"strings"

	"personnel-registry/internal/db"
	"personnel-registry/internal/excel"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/model"
	"personnel-registry/internal/normalize"
	"personnel-registry/pkg/errors"

	"github.com/rs/zerolog"
)

type Options struct {
	UppercaseNames bool
}

// Service handles single-record operations.
type Service struct {
	repo    db.Repository
	checker *Checker
	opts    Options
	log     zerolog.Logger
}

func NewService(repo db.Repository, opts Options) *Service {
	return &Service{
		repo:    repo,
		checker: NewChecker(repo),
		opts:    opts,
		log:     logger.Component("registry"),
	}
}

// FromRequest normalizes a request body the same way an imported row is.
func (s *Service) FromRequest(req model.RecordRequest) model.Record {
	return model.Record{
		Name:        normalize.Name(excel.String(req.Name), s.opts.UppercaseNames),
		Designation: normalize.Text(excel.String(req.Designation)),
		WorkingArea: normalize.Text(excel.String(req.WorkingArea)),
		ValidUpto:   normalize.Date(excel.ValueOf(req.ValidUpto)),
		CodeNo:      normalize.CodeNo(excel.ValueOf(req.CodeNo)),
		AdhaarNo:    normalize.AdhaarNo(excel.ValueOf(req.AdhaarNo)),
	}
}

// Normalize reapplies the field rules to a record read from elsewhere, such
// as a backup. Id and timestamps are kept.
func (s *Service) Normalize(rec model.Record) model.Record {
	out := rec
	out.Name = normalize.Name(excel.String(rec.Name), s.opts.UppercaseNames)
	out.Designation = normalize.Text(excel.String(rec.Designation))
	out.WorkingArea = normalize.Text(excel.String(rec.WorkingArea))
	out.CodeNo = normalize.CodeNo(excel.String(rec.CodeNo))
	out.AdhaarNo = normalize.AdhaarNo(excel.String(rec.AdhaarNo))
	return out
}

func (s *Service) Create(ctx context.Context, req model.RecordRequest) (*model.Record, error) {
	rec := s.FromRequest(req)

	existing, err := s.checker.Check(ctx, rec, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: matches record %s", errors.ErrDuplicate, existing.ID)
	}

	if err := s.repo.Insert(ctx, &rec); err != nil {
		return nil, err
	}

	s.log.Info().Str("id", rec.ID).Str("code_no", rec.CodeNo).Msg("Record created")
	return &rec, nil
}

// Update replaces every field of record id. The duplicate check ignores the
// record itself, so keeping an unchanged code number is allowed.
func (s *Service) Update(ctx context.Context, id string, req model.RecordRequest) (*model.Record, error) {
	rec := s.FromRequest(req)

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	existing, err := s.checker.Check(ctx, rec, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: matches record %s", errors.ErrDuplicate, existing.ID)
	}

	updated, err := s.repo.UpdateByID(ctx, id, &rec)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("id", id).Msg("Record updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Msg("Record deleted")
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, errors.ValidationError{Field: "ids", Value: ids, Message: "no ids provided"}
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.log.Info().Int("requested", len(ids)).Int64("deleted", deleted).Msg("Records bulk deleted")
	return deleted, nil
}

func (s *Service) List(ctx context.Context) ([]model.Record, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Search(ctx context.Context, q string) ([]model.Record, error) {
	return s.repo.Search(ctx, strings.TrimSpace(q))
}

// Lookup finds records whose code number (any case) or Aadhaar number
// (spaces ignored) equals query.
func (s *Service) Lookup(ctx context.Context, query string) ([]model.Record, error) {
	filter := model.IdentityFilter{
		CodeNoKey: model.FoldCode(query),
		AdhaarNo:  normalize.StripSpaces(query),
	}
	if filter.Empty() {
		return nil, errors.ErrNotFound
	}

	found, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	return found, nil
}
