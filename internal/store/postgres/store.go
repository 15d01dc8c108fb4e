package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/importer"
)

var (
	_ importer.Store = (*Store)(nil)
	_ audit.Writer   = (*Store)(nil)
)

const uniqueContractConstraint = "bid_records_kind_contract_number_key"

const recordColumns = `id, kind, contract_number, status, requestor, owner, owner_type,
	county, branch, location, platform, division, contractor, subcontractor, no_bid_reason,
	letting_date, due_date, entry_date, start_date, end_date,
	services, quantities, totals, created_at, updated_at`

const insertRecordSQL = `
	INSERT INTO bid_records (` + recordColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	RETURNING ` + recordColumns

const updateRecordSQL = `
	UPDATE bid_records SET
		status = $4, requestor = $5, owner = $6, owner_type = $7,
		county = $8, branch = $9, location = $10, platform = $11, division = $12,
		contractor = $13, subcontractor = $14, no_bid_reason = $15,
		letting_date = $16, due_date = $17, entry_date = $18, start_date = $19, end_date = $20,
		services = $21, quantities = $22, totals = $23, updated_at = $25
	WHERE kind = $2 AND contract_number = $3
	RETURNING ` + recordColumns

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindByKey(ctx context.Context, kind importer.Kind, key string) (importer.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM bid_records
		WHERE kind = $1 AND contract_number = $2
		LIMIT 1
	`, string(kind), key)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return importer.Record{}, importer.ErrNotFound
		}
		return importer.Record{}, fmt.Errorf("select bid record: %w", err)
	}
	return rec, nil
}

// BulkInsert writes all records in one transaction.
func (s *Store) BulkInsert(ctx context.Context, records []importer.Record) ([]importer.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := recordArgs(rec)
		if err != nil {
			return nil, err
		}
		batch.Queue(insertRecordSQL, args...)
	}

	br := tx.SendBatch(ctx, batch)
	out := make([]importer.Record, 0, len(records))
	for range records {
		rec, err := scanRecord(br.QueryRow())
		if err != nil {
			_ = br.Close()
			if isUniqueConstraint(err, uniqueContractConstraint) {
				return nil, fmt.Errorf("insert bid records: %w", importer.ErrDuplicateKey)
			}
			return nil, fmt.Errorf("insert bid record: %w", err)
		}
		out = append(out, rec)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close insert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
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

	updated, err := scanRecord(s.pool.QueryRow(ctx, updateRecordSQL, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return importer.Record{}, importer.ErrNotFound
		}
		return importer.Record{}, fmt.Errorf("update bid record: %w", err)
	}
	return updated, nil
}

func (s *Store) List(ctx context.Context, kind importer.Kind) ([]importer.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM bid_records
		WHERE kind = $1
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, entity_type, actor, request_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.ID, params.Action, params.EntityType, params.Actor, params.RequestID, params.Metadata, params.CreatedAt)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func recordArgs(rec importer.Record) ([]any, error) {
	services, err := json.Marshal(rec.Services)
	if err != nil {
		return nil, fmt.Errorf("marshal services: %w", err)
	}
	quantities := []byte("{}")
	if len(rec.Quantities) > 0 {
		if quantities, err = json.Marshal(rec.Quantities); err != nil {
			return nil, fmt.Errorf("marshal quantities: %w", err)
		}
	}
	var totals []byte
	if rec.Totals != nil {
		if totals, err = json.Marshal(rec.Totals); err != nil {
			return nil, fmt.Errorf("marshal totals: %w", err)
		}
	}

	return []any{
		rec.ID, string(rec.Kind), rec.ContractNumber, rec.Status,
		rec.Requestor, rec.Owner, rec.OwnerType,
		rec.County, rec.Branch, rec.Location, rec.Platform, rec.Division,
		rec.Contractor, rec.Subcontractor, rec.NoBidReason,
		dateToTimePtr(rec.LettingDate), dateToTimePtr(rec.DueDate), dateToTimePtr(rec.EntryDate),
		dateToTimePtr(rec.StartDate), dateToTimePtr(rec.EndDate),
		services, quantities, totals,
		rec.CreatedAt, rec.UpdatedAt,
	}, nil
}

func scanRecord(row pgx.Row) (importer.Record, error) {
	var (
		rec                             importer.Record
		kind                            string
		letting, due, entry, start, end *time.Time
		services, quantities, totals    []byte
	)
	err := row.Scan(
		&rec.ID, &kind, &rec.ContractNumber, &rec.Status,
		&rec.Requestor, &rec.Owner, &rec.OwnerType,
		&rec.County, &rec.Branch, &rec.Location, &rec.Platform, &rec.Division,
		&rec.Contractor, &rec.Subcontractor, &rec.NoBidReason,
		&letting, &due, &entry, &start, &end,
		&services, &quantities, &totals,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return importer.Record{}, err
	}

	rec.Kind = importer.Kind(kind)
	rec.LettingDate = timeToDatePtr(letting)
	rec.DueDate = timeToDatePtr(due)
	rec.EntryDate = timeToDatePtr(entry)
	rec.StartDate = timeToDatePtr(start)
	rec.EndDate = timeToDatePtr(end)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	if err := json.Unmarshal(services, &rec.Services); err != nil {
		return importer.Record{}, fmt.Errorf("decode services: %w", err)
	}
	if err := json.Unmarshal(quantities, &rec.Quantities); err != nil {
		return importer.Record{}, fmt.Errorf("decode quantities: %w", err)
	}
	if len(totals) > 0 {
		rec.Totals = &importer.BidTotals{}
		if err := json.Unmarshal(totals, rec.Totals); err != nil {
			return importer.Record{}, fmt.Errorf("decode totals: %w", err)
		}
	}
	return rec, nil
}

func dateToTimePtr(value *openapi_types.Date) *time.Time {
	if value == nil {
		return nil
	}
	t := time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

func timeToDatePtr(value *time.Time) *openapi_types.Date {
	if value == nil {
		return nil
	}
	d := openapi_types.Date{Time: time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)}
	return &d
}

func isUniqueConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if constraint == "" || pgErr.ConstraintName == constraint {
			return true
		}
	}
	return false
}
