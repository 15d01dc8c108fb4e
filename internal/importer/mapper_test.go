package importer

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.July, 1, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestMapper(t *testing.T, kind Kind) *Mapper {
	t.Helper()
	m, err := NewMapper(kind, fixedClock)
	require.NoError(t, err)
	return m
}

func TestNewMapper_UnknownKind(t *testing.T) {
	_, err := NewMapper(Kind("estimates"), fixedClock)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMapRow_AvailableJob(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{
		"Contract Number": String("2025-0117"),
		"Status":          String("Open"),
		"Requestor":       String("J. Rivera"),
		"Owner":           String("PennDOT"),
		"county":          String("Berks"),
		"Letting Date":    Number(45848),
		"Entry Date":      String("06/20/2025"),
		"MPT":             String("Yes"),
		"Flagging":        Bool(false),
		"Perm Signs":      String("x"),
		"DBE %":           String("12.5"),
	}, 0)

	require.NotNil(t, out.Record)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 1, out.Row)

	rec := out.Record
	assert.Equal(t, KindAvailableJobs, rec.Kind)
	assert.Equal(t, "2025-0117", rec.ContractNumber)
	assert.Equal(t, string(JobStatusBid), rec.Status)
	assert.Equal(t, "J. Rivera", rec.Requestor)
	assert.Equal(t, "PennDOT", rec.Owner)
	assert.Equal(t, "Berks", rec.County)
	assert.Equal(t, unknownText, rec.Branch)
	assert.Equal(t, unknownText, rec.Location)
	assert.Equal(t, unknownText, rec.Platform)
	assert.Empty(t, rec.OwnerType)

	require.NotNil(t, rec.LettingDate)
	assert.Equal(t, date(2025, time.July, 10), *rec.LettingDate)
	require.NotNil(t, rec.DueDate)
	assert.Equal(t, date(2025, time.July, 8), *rec.DueDate)
	require.NotNil(t, rec.EntryDate)
	assert.Equal(t, date(2025, time.June, 20), *rec.EntryDate)

	assert.True(t, rec.Services.MPT)
	assert.False(t, rec.Services.Flagging)
	assert.True(t, rec.Services.PermSigns)
	assert.False(t, rec.Services.EquipmentRental)
	assert.Equal(t, 12.5, rec.Quantities["dbe_percentage"])
}

func TestMapRow_DefaultsWithWarnings(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{
		"Contract Number": String("C-9"),
		"Requestor":       String("unknown"),
		"County":          String("Lancaster"),
	}, 4)

	require.NotNil(t, out.Record)
	assert.Equal(t, 5, out.Row)
	assert.Equal(t, []string{
		"requestor missing, defaulting to Unknown",
		"owner missing, defaulting to Unknown",
	}, out.Warnings)
	assert.Equal(t, unknownText, out.Record.Requestor)
	assert.Equal(t, unknownText, out.Record.Owner)
	assert.Equal(t, string(JobStatusUnset), out.Record.Status)

	require.NotNil(t, out.Record.EntryDate)
	assert.Equal(t, date(2025, time.July, 1), *out.Record.EntryDate)
	assert.Nil(t, out.Record.LettingDate)
	assert.Nil(t, out.Record.DueDate)
}

func TestMapRow_FallbackKeyFromOwner(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{
		"Requestor": String("Pat"),
		"Owner":     String("  penn dot"),
	}, 2)

	require.NotNil(t, out.Record)
	assert.Equal(t, "TEMP-PEN-2025-3", out.Record.ContractNumber)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "TEMP-PEN-2025-3")
}

func TestMapRow_FallbackKeyWithoutOwner(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{"Requestor": String("Pat"), "County": String("York")}, 0)

	require.NotNil(t, out.Record)
	want := fmt.Sprintf("TEMP-%d-1", fixedNow.UnixMilli())
	assert.Equal(t, want, out.Record.ContractNumber)
	assert.Contains(t, out.Warnings, "contract number missing, generated "+want)
	assert.Contains(t, out.Warnings, "owner missing, defaulting to Unknown")
}

func TestMapRow_FallbackKeysDistinctPerRow(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	seen := map[string]bool{}
	for i := range 25 {
		out := m.MapRow(RawRow{"Owner": String("Turnpike"), "Requestor": String("Pat")}, i)
		require.NotNil(t, out.Record)
		assert.False(t, seen[out.Record.ContractNumber], out.Record.ContractNumber)
		seen[out.Record.ContractNumber] = true
	}
	assert.Len(t, seen, 25)
}

func TestMapRow_UnparseableDate(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{
		"Contract Number": String("C-1"),
		"Requestor":       String("Pat"),
		"Owner":           String("SEPTA"),
		"Letting Date":    String("next Tuesday"),
	}, 0)

	require.NotNil(t, out.Record)
	assert.Equal(t, []string{"could not parse date value: `next Tuesday` (letting_date)"}, out.Warnings)
	assert.Nil(t, out.Record.LettingDate)
	assert.Nil(t, out.Record.DueDate)
}

func TestMapRow_DueAfterLetting(t *testing.T) {
	m := newTestMapper(t, KindAvailableJobs)

	out := m.MapRow(RawRow{
		"Contract Number": String("C-1"),
		"Requestor":       String("Pat"),
		"Owner":           String("SEPTA"),
		"Letting Date":    String("2025-07-10"),
		"Due Date":        String("2025-07-15"),
	}, 0)

	require.NotNil(t, out.Record)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "after letting date")
	assert.Equal(t, date(2025, time.July, 10), *out.Record.LettingDate)
	assert.Equal(t, date(2025, time.July, 15), *out.Record.DueDate)
}

func TestMapRow_ActiveBid(t *testing.T) {
	m := newTestMapper(t, KindActiveBids)

	out := m.MapRow(RawRow{
		"Contract Number":     String("B-77"),
		"Bid Status":          String("Won"),
		"Estimator":           String("Dana"),
		"Client":              String("PA Turnpike"),
		"Division":            String("Public Works"),
		"Due Date":            String("2025-07-08"),
		"Start Date":          Number(45870),
		"Emergency Job":       String("yes"),
		"Project Days":        String("12.9"),
		"Posts":               Number(14),
		"RT Miles":            String("45"),
		"MPT Value":           String("$10,000"),
		"Type III 4ft":        String("three"),
		"Special Signs Sq Ft": Number(-2),
	}, 0)

	require.NotNil(t, out.Record)
	rec := out.Record
	assert.Empty(t, out.Warnings)
	assert.Equal(t, "B-77", rec.ContractNumber)
	assert.Equal(t, string(BidStatusWon), rec.Status)
	assert.Equal(t, "Dana", rec.Requestor)
	assert.Equal(t, "TURNPIKE", rec.OwnerType)
	assert.Equal(t, "PUBLIC", rec.Division)
	assert.True(t, rec.Services.EmergencyJob)
	assert.Nil(t, rec.EntryDate)
	assert.Equal(t, date(2025, time.July, 10), *rec.LettingDate)
	assert.Equal(t, date(2025, time.August, 1), *rec.StartDate)

	assert.Equal(t, 12.0, rec.Quantities["project_days"])
	assert.Equal(t, 14.0, rec.Quantities["posts"])
	assert.Equal(t, 10000.0, rec.Quantities["mpt_value"])
	assert.True(t, math.IsNaN(rec.Quantities["type_iii_4ft"]))
	assert.Equal(t, -2.0, rec.Quantities["special_signs_sq_ft"])
	_, hasPhases := rec.Quantities["phases"]
	assert.False(t, hasPhases)
}
