package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf_JSONNumberKeepsDigits(t *testing.T) {
	cases := []struct {
		literal string
		text    string
		num     float64
	}{
		{"45848", "45848", 45848},
		{"12.5", "12.5", 12.5},
		{"123456789012345678", "123456789012345678", 123456789012345678},
		{"2.50", "2.50", 2.5},
	}
	for _, tc := range cases {
		t.Run(tc.literal, func(t *testing.T) {
			v, err := ValueOf(json.Number(tc.literal))
			require.NoError(t, err)
			assert.Equal(t, ValueNumber, v.Kind())
			assert.Equal(t, tc.text, v.Text())
			n, ok := v.Float()
			require.True(t, ok)
			assert.Equal(t, tc.num, n)
		})
	}
}

func TestValueOf_RejectsNonScalars(t *testing.T) {
	_, err := ValueOf([]any{1})
	assert.ErrorIs(t, err, errNonScalar)

	v, err := ValueOf(nil)
	require.NoError(t, err)
	assert.Equal(t, ValueNull, v.Kind())
}

func TestMapRow_LongNumericContractNumber(t *testing.T) {
	mapper, err := NewMapper(KindAvailableJobs, nil)
	require.NoError(t, err)

	num, err := ValueOf(json.Number("90210000000000123"))
	require.NoError(t, err)
	out := mapper.MapRow(RawRow{"Contract Number": num, "Owner": String("PennDOT")}, 0)
	require.NotNil(t, out.Record)
	assert.Equal(t, "90210000000000123", out.Record.ContractNumber)
}

func TestRowFromAny_KeepsWarningsOnFailure(t *testing.T) {
	_, warnings, err := RowFromAny(map[string]any{"Notes": []any{"a"}})
	assert.ErrorIs(t, err, errEmptyRow)
	assert.Equal(t, []string{`ignored non-scalar value in column "Notes"`}, warnings)
}
