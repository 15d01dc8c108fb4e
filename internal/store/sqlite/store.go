package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/migrations"
)

var (
	_ importer.Store = (*Store)(nil)
	_ audit.Writer   = (*Store)(nil)
)

const recordColumns = `id, kind, contract_number, status, requestor, owner, owner_type,
	county, branch, location, platform, division, contractor, subcontractor, no_bid_reason,
	letting_date, due_date, entry_date, start_date, end_date,
	services, quantities, totals, created_at, updated_at`

const dateLayout = "2006-01-02"

// Store is a single-file record store for local and offline use.
type Store struct {
	db *sql.DB
}

// Open creates the database at path if needed and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := migrations.Up(ctx, db, migrations.DialectSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) FindByKey(ctx context.Context, kind importer.Kind, key string) (importer.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM bid_records
		WHERE kind = ? AND contract_number = ?
		LIMIT 1
	`, string(kind), key)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return importer.Record{}, importer.ErrNotFound
		}
		return importer.Record{}, fmt.Errorf("select bid record: %w", err)
	}
	return rec, nil
}

func (s *Store) BulkInsert(ctx context.Context, records []importer.Record) ([]importer.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bid_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args, err := recordArgs(rec)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isUniqueConstraint(err) {
				return nil, fmt.Errorf("insert %s: %w", rec.ContractNumber, importer.ErrDuplicateKey)
			}
			return nil, fmt.Errorf("insert bid record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	out := make([]importer.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *Store) UpdateByKey(ctx context.Context, kind importer.Kind, key string, rec importer.Record) (importer.Record, error) {
	rec.Kind = kind
	rec.ContractNumber = key
	args, err := recordArgs(rec)
	if err != nil {
		return importer.Record{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE bid_records SET
			status = ?, requestor = ?, owner = ?, owner_type = ?,
			county = ?, branch = ?, location = ?, platform = ?, division = ?,
			contractor = ?, subcontractor = ?, no_bid_reason = ?,
			letting_date = ?, due_date = ?, entry_date = ?, start_date = ?, end_date = ?,
			services = ?, quantities = ?, totals = ?, updated_at = ?
		WHERE kind = ? AND contract_number = ?
	`, append(slices.Clone(args[3:23]), args[24], args[1], args[2])...)
	if err != nil {
		return importer.Record{}, fmt.Errorf("update bid record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return importer.Record{}, fmt.Errorf("update bid record: %w", err)
	}
	if affected == 0 {
		return importer.Record{}, importer.ErrNotFound
	}
	return s.FindByKey(ctx, kind, key)
}

func (s *Store) List(ctx context.Context, kind importer.Kind) ([]importer.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM bid_records
		WHERE kind = ?
		ORDER BY contract_number
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list bid records: %w", err)
	}
	defer rows.Close()

	var out []importer.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid records: %w", err)
	}
	return out, nil
}

func (s *Store) InsertAuditLog(ctx context.Context, params audit.InsertAuditLogParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, entity_type, actor, request_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, params.ID.String(), params.Action, params.EntityType, params.Actor, params.RequestID,
		string(params.Metadata), params.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func recordArgs(rec importer.Record) ([]any, error) {
	services, err := json.Marshal(rec.Services)
	if err != nil {
		return nil, fmt.Errorf("marshal services: %w", err)
	}
	quantities := "{}"
	if len(rec.Quantities) > 0 {
		encoded, err := json.Marshal(rec.Quantities)
		if err != nil {
			return nil, fmt.Errorf("marshal quantities: %w", err)
		}
		quantities = string(encoded)
	}
	var totals *string
	if rec.Totals != nil {
		encoded, err := json.Marshal(rec.Totals)
		if err != nil {
			return nil, fmt.Errorf("marshal totals: %w", err)
		}
		value := string(encoded)
		totals = &value
	}

	return []any{
		rec.ID.String(), string(rec.Kind), rec.ContractNumber, rec.Status,
		rec.Requestor, rec.Owner, rec.OwnerType,
		rec.County, rec.Branch, rec.Location, rec.Platform, rec.Division,
		rec.Contractor, rec.Subcontractor, rec.NoBidReason,
		formatDate(rec.LettingDate), formatDate(rec.DueDate), formatDate(rec.EntryDate),
		formatDate(rec.StartDate), formatDate(rec.EndDate),
		string(services), quantities, totals,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func scanRecord(row scanner) (importer.Record, error) {
	var (
		rec                             importer.Record
		id, kind, services, quantities  string
		letting, due, entry, start, end sql.NullString
		totals                          sql.NullString
		createdAt, updatedAt            string
	)
	err := row.Scan(
		&id, &kind, &rec.ContractNumber, &rec.Status,
		&rec.Requestor, &rec.Owner, &rec.OwnerType,
		&rec.County, &rec.Branch, &rec.Location, &rec.Platform, &rec.Division,
		&rec.Contractor, &rec.Subcontractor, &rec.NoBidReason,
		&letting, &due, &entry, &start, &end,
		&services, &quantities, &totals,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return importer.Record{}, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return importer.Record{}, fmt.Errorf("parse id: %w", err)
	}
	rec.Kind = importer.Kind(kind)

	for _, d := range []struct {
		raw  sql.NullString
		dest **openapi_types.Date
	}{
		{letting, &rec.LettingDate},
		{due, &rec.DueDate},
		{entry, &rec.EntryDate},
		{start, &rec.StartDate},
		{end, &rec.EndDate},
	} {
		if *d.dest, err = parseDate(d.raw); err != nil {
			return importer.Record{}, err
		}
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return importer.Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return importer.Record{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if err := json.Unmarshal([]byte(services), &rec.Services); err != nil {
		return importer.Record{}, fmt.Errorf("decode services: %w", err)
	}
	if err := json.Unmarshal([]byte(quantities), &rec.Quantities); err != nil {
		return importer.Record{}, fmt.Errorf("decode quantities: %w", err)
	}
	if totals.Valid {
		rec.Totals = &importer.BidTotals{}
		if err := json.Unmarshal([]byte(totals.String), rec.Totals); err != nil {
			return importer.Record{}, fmt.Errorf("decode totals: %w", err)
		}
	}
	return rec, nil
}

func formatDate(value *openapi_types.Date) *string {
	if value == nil {
		return nil
	}
	s := value.Format(dateLayout)
	return &s
}

func parseDate(value sql.NullString) (*openapi_types.Date, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", value.String, err)
	}
	return &openapi_types.Date{Time: t}, nil
}

func isUniqueConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
