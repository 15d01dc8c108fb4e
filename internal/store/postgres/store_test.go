package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgxpool"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/migrations"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)

	sqlDB, err := sql.Open("pgx", databaseURL)
	require.NoError(t, err)
	defer sqlDB.Close()
	_, err = migrations.Up(ctx, sqlDB, migrations.DialectPostgres)
	require.NoError(t, err)

	return New(pool)
}

func testRecord(key string) importer.Record {
	letting := openapi_types.Date{Time: time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)}
	now := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
	return importer.Record{
		ID:             uuid.New(),
		Kind:           importer.KindActiveBids,
		ContractNumber: key,
		Status:         string(importer.BidStatusPending),
		Requestor:      "Dana",
		Owner:          "SEPTA",
		OwnerType:      "SEPTA",
		LettingDate:    &letting,
		Services:       importer.Services{EmergencyJob: true},
		Quantities:     map[string]float64{"posts": 4, "phases": 1},
		Totals:         &importer.BidTotals{Revenue: 1200.5},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestStore_InsertFindUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	inserted, err := store.BulkInsert(ctx, []importer.Record{testRecord("B-1"), testRecord("B-2")})
	require.NoError(t, err)
	require.Len(t, inserted, 2)

	found, err := store.FindByKey(ctx, importer.KindActiveBids, "B-1")
	require.NoError(t, err)
	assert.Equal(t, inserted[0].ID, found.ID)
	assert.Equal(t, "2025-07-10", found.LettingDate.String())
	assert.Nil(t, found.DueDate)
	assert.Equal(t, 4.0, found.Quantities["posts"])
	assert.True(t, found.Services.EmergencyJob)
	require.NotNil(t, found.Totals)
	assert.Equal(t, 1200.5, found.Totals.Revenue)

	found.County = "Bucks"
	found.UpdatedAt = found.UpdatedAt.Add(time.Hour)
	updated, err := store.UpdateByKey(ctx, importer.KindActiveBids, "B-1", found)
	require.NoError(t, err)
	assert.Equal(t, "Bucks", updated.County)
	assert.Equal(t, found.CreatedAt, updated.CreatedAt)

	_, err = store.FindByKey(ctx, importer.KindAvailableJobs, "B-1")
	assert.ErrorIs(t, err, importer.ErrNotFound)

	_, err = store.UpdateByKey(ctx, importer.KindActiveBids, "missing", found)
	assert.ErrorIs(t, err, importer.ErrNotFound)

	listed, err := store.List(ctx, importer.KindActiveBids)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "B-1", listed[0].ContractNumber)
}

func TestStore_BulkInsertIsAllOrNothing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.BulkInsert(ctx, []importer.Record{testRecord("B-1")})
	require.NoError(t, err)

	_, err = store.BulkInsert(ctx, []importer.Record{testRecord("B-2"), testRecord("B-1")})
	require.ErrorIs(t, err, importer.ErrDuplicateKey)

	_, err = store.FindByKey(ctx, importer.KindActiveBids, "B-2")
	assert.ErrorIs(t, err, importer.ErrNotFound)
}

func TestStore_InsertAuditLog(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	logger := audit.NewLogger(store)
	err := logger.Log(ctx, audit.Entry{
		Action:     "import.completed",
		EntityType: "active_bids",
		Metadata:   map[string]any{"count": 2},
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, store.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE action = 'import.completed'`).Scan(&count))
	assert.Equal(t, 1, count)
}
