package importer

import (
	"context"
	stderrors "errors"

	"personnel-registry/internal/config"
	"personnel-registry/internal/db"
	"personnel-registry/internal/excel"
	"personnel-registry/internal/logger"
	"personnel-registry/internal/model"
	"personnel-registry/internal/normalize"
	"personnel-registry/internal/registry"
	"personnel-registry/pkg/errors"

	"github.com/rs/zerolog"
)

const defaultSampleSize = 10

type Options struct {
	Layout         string
	UppercaseNames bool
	StrictDates    bool
	SkipSampleSize int // 0 means 10
	Aliases        normalize.AliasTable
}

// OptionsFromConfig reads the import section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Layout:         cfg.Import.SheetLayout,
		UppercaseNames: cfg.Import.UppercaseNames,
		StrictDates:    cfg.Import.StrictDates,
		SkipSampleSize: cfg.Import.SkipSampleSize,
	}
}

// Importer drives one sheet at a time through mapping, duplicate checks and
// inserts. Rows are handled strictly in order so a row sees every insert
// made for the rows above it.
type Importer struct {
	repo       db.Repository
	checker    *registry.Checker
	decoder    excel.Decoder
	mapper     *Mapper
	sampleSize int
	log        zerolog.Logger
}

func New(repo db.Repository, opts Options) (*Importer, error) {
	decoder, err := excel.NewDecoder(opts.Layout, normalize.Header)
	if err != nil {
		return nil, err
	}

	sampleSize := opts.SkipSampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	return &Importer{
		repo:       repo,
		checker:    registry.NewChecker(repo),
		decoder:    decoder,
		mapper:     NewMapper(opts.Aliases, opts.UppercaseNames, opts.StrictDates),
		sampleSize: sampleSize,
		log:        logger.Component("importer"),
	}, nil
}

// ImportFile decodes a workbook and imports its first sheet.
func (im *Importer) ImportFile(ctx context.Context, data []byte) (*model.ImportReport, error) {
	sheet, err := im.decoder.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, sheet)
}

// Import processes every row of sheet. Skipped rows are part of the report,
// not errors. A storage failure stops the run with an errors.ImportError
// that carries the row number and the inserts made so far.
func (im *Importer) Import(ctx context.Context, sheet *excel.Sheet) (*model.ImportReport, error) {
	report := &model.ImportReport{
		Processed:      len(sheet.Rows),
		SkippedDetails: []model.SkippedRow{},
	}
	log := im.log.With().Str("sheet", sheet.Name).Int("rows", len(sheet.Rows)).Logger()

	if len(sheet.Rows) == 0 {
		report.Summarize()
		log.Info().Msg("Sheet has no data rows")
		return report, nil
	}

	cols := im.mapper.Columns(sheet.Headers)
	log.Debug().Interface("columns", cols).Msg("Resolved sheet columns")

	for _, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewImportError(row.Number, report.Inserted, err)
		}

		candidate, reason := im.mapper.Map(row, cols)
		if reason != "" {
			im.skip(report, row, reason, "")
			continue
		}

		existing, err := im.checker.Check(ctx, candidate, "")
		if err != nil {
			log.Error().Err(err).Int("row", row.Number).Msg("Duplicate check failed")
			return nil, errors.NewImportError(row.Number, report.Inserted, err)
		}
		if existing != nil {
			im.skip(report, row, model.SkipDuplicate, existing.ID)
			continue
		}

		if err := im.repo.Insert(ctx, &candidate); err != nil {
			if stderrors.Is(err, errors.ErrDuplicate) {
				im.skip(report, row, model.SkipDuplicate, "")
				continue
			}
			log.Error().Err(err).Int("row", row.Number).Int("inserted", report.Inserted).Msg("Insert failed")
			return nil, errors.NewImportError(row.Number, report.Inserted, err)
		}
		report.Inserted++
	}

	report.Summarize()
	log.Info().
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Msg("Import finished")

	return report, nil
}

func (im *Importer) skip(report *model.ImportReport, row excel.Row, reason model.SkipReason, existingID string) {
	report.Skipped++
	if len(report.SkippedDetails) >= im.sampleSize {
		return
	}
	report.SkippedDetails = append(report.SkippedDetails, model.SkippedRow{
		Row:        row.Number,
		Reason:     reason,
		ExistingID: existingID,
		Data:       row.Map(),
	})
}
