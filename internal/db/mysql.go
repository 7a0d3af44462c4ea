package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const mysqlDuplicateEntry = 1062

func NewConnection(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MySQL.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MySQL.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.Database.MySQL.ConnectionLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

const recordColumns = `id, name, designation, working_area, valid_upto, code_no, adhaar_no, created_at, updated_at`

const createRecordsTable = `CREATE TABLE IF NOT EXISTS personnel_records (
	id           CHAR(36)     NOT NULL PRIMARY KEY,
	name         VARCHAR(255) NOT NULL DEFAULT '',
	designation  VARCHAR(255) NOT NULL DEFAULT '',
	working_area VARCHAR(255) NOT NULL DEFAULT '',
	valid_upto   DATETIME     NULL,
	code_no      VARCHAR(64)  NOT NULL DEFAULT '',
	code_no_key  VARCHAR(64)  COLLATE utf8mb4_bin NULL,
	adhaar_no    VARCHAR(32)  COLLATE utf8mb4_bin NULL,
	created_at   DATETIME(3)  NOT NULL,
	updated_at   DATETIME(3)  NOT NULL,
	UNIQUE KEY uniq_code_no_key (code_no_key),
	UNIQUE KEY uniq_adhaar_no (adhaar_no),
	KEY idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Identity columns compare byte for byte, matching the in-memory and Mongo
// backends. Also applied to tables created before the collation was set.
const binaryIdentityColumns = `ALTER TABLE personnel_records
	MODIFY code_no_key VARCHAR(64) COLLATE utf8mb4_bin NULL,
	MODIFY adhaar_no   VARCHAR(32) COLLATE utf8mb4_bin NULL`

type mysqlRepository struct {
	db *sql.DB
}

// NewMySQLRepository stores records in personnel_records. Empty identity
// fields are written as NULL so the unique keys only cover real values.
func NewMySQLRepository(db *sql.DB) Repository {
	return &mysqlRepository{db: db}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return stderrors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (model.Record, error) {
	var (
		rec       model.Record
		validUpto sql.NullTime
		adhaarNo  sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.Name, &rec.Designation, &rec.WorkingArea, &validUpto,
		&rec.CodeNo, &adhaarNo, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.Record{}, err
	}
	if validUpto.Valid {
		t := validUpto.Time.UTC()
		rec.ValidUpto = &t
	}
	rec.AdhaarNo = adhaarNo.String
	return rec, nil
}

func (r *mysqlRepository) query(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func identityWhere(f model.IdentityFilter) (string, []any) {
	var (
		or   []string
		args []any
	)
	if f.CodeNoKey != "" {
		or = append(or, "code_no_key = ?")
		args = append(args, f.CodeNoKey)
	}
	if f.AdhaarNo != "" {
		or = append(or, "adhaar_no = ?")
		args = append(args, f.AdhaarNo)
	}

	where := "(" + strings.Join(or, " OR ") + ")"
	if f.ExcludeID != "" {
		where += " AND id <> ?"
		args = append(args, f.ExcludeID)
	}
	return where, args
}

func (r *mysqlRepository) FindOne(ctx context.Context, filter model.IdentityFilter) (*model.Record, error) {
	if filter.Empty() {
		return nil, errors.ErrNotFound
	}

	where, args := identityWhere(filter)
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM personnel_records WHERE `+where+` LIMIT 1`, args...)

	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &rec, nil
}

func (r *mysqlRepository) Find(ctx context.Context, filter model.IdentityFilter) ([]model.Record, error) {
	if filter.Empty() {
		return nil, nil
	}

	where, args := identityWhere(filter)
	return r.query(ctx, `SELECT `+recordColumns+` FROM personnel_records WHERE `+where+` ORDER BY created_at DESC`, args...)
}

func (r *mysqlRepository) FindByID(ctx context.Context, id string) (*model.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrInvalidID
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM personnel_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &rec, nil
}

func (r *mysqlRepository) FindAll(ctx context.Context) ([]model.Record, error) {
	return r.query(ctx, `SELECT `+recordColumns+` FROM personnel_records ORDER BY created_at DESC`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *mysqlRepository) Search(ctx context.Context, q string) ([]model.Record, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	return r.query(ctx, `SELECT `+recordColumns+` FROM personnel_records
		WHERE LOWER(code_no) LIKE ? OR LOWER(COALESCE(adhaar_no, '')) LIKE ?
		ORDER BY created_at DESC`, pattern, pattern)
}

const insertRecord = `INSERT INTO personnel_records
	(id, name, designation, working_area, valid_upto, code_no, code_no_key, adhaar_no, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertWith(ctx context.Context, exec execer, record *model.Record, now time.Time) error {
	id := uuid.NewString()
	_, err := exec.ExecContext(ctx, insertRecord,
		id, record.Name, record.Designation, record.WorkingArea, record.ValidUpto,
		record.CodeNo, nullable(record.CodeNoKey()), nullable(record.AdhaarNo), now, now)
	if err != nil {
		if isDuplicateEntry(err) {
			return errors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (r *mysqlRepository) Insert(ctx context.Context, record *model.Record) error {
	return insertWith(ctx, r.db, record, time.Now().UTC())
}

func (r *mysqlRepository) InsertMany(ctx context.Context, records []*model.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rec := range records {
		if err := insertWith(ctx, tx, rec, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *mysqlRepository) UpdateByID(ctx context.Context, id string, record *model.Record) (*model.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrInvalidID
	}

	_, err := r.db.ExecContext(ctx, `UPDATE personnel_records SET
		name = ?, designation = ?, working_area = ?, valid_upto = ?,
		code_no = ?, code_no_key = ?, adhaar_no = ?, updated_at = ?
		WHERE id = ?`,
		record.Name, record.Designation, record.WorkingArea, record.ValidUpto,
		record.CodeNo, nullable(record.CodeNoKey()), nullable(record.AdhaarNo), time.Now().UTC(), id)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, errors.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	// RowsAffected is zero for a no-op update too, so existence is checked
	// by reading the row back.
	return r.FindByID(ctx, id)
}

func (r *mysqlRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.ErrInvalidID
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM personnel_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *mysqlRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, errors.ErrInvalidID
		}
		placeholders[i] = "?"
		args[i] = id
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM personnel_records WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return res.RowsAffected()
}

func (r *mysqlRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("failed to create personnel_records: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, binaryIdentityColumns); err != nil {
		return fmt.Errorf("failed to set identity collation: %w", err)
	}
	return nil
}

func (r *mysqlRepository) Close(ctx context.Context) error {
	return r.db.Close()
}
