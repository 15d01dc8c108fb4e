package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueNull
	ValueString
	ValueNumber
	ValueBool
)

// Value is one scalar cell of an incoming row. The zero Value is absent,
// which is distinct from a cell that is present but null. Numbers decoded
// from JSON keep their literal in str when float64 cannot reproduce it.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

func Null() Value               { return Value{kind: ValueNull} }
func String(s string) Value     { return Value{kind: ValueString, str: s} }
func Number(n float64) Value    { return Value{kind: ValueNumber, num: n} }
func Bool(b bool) Value         { return Value{kind: ValueBool, b: b} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsAbsent() bool  { return v.kind == ValueAbsent }

// IsMissing reports whether the value carries no data at all.
func (v Value) IsMissing() bool {
	return v.kind == ValueAbsent || v.kind == ValueNull
}

var errNonScalar = errors.New("value is not a scalar")

// ValueOf converts a decoded JSON or spreadsheet cell into a Value.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String()), nil
		}
		v := Number(f)
		if lit := t.String(); lit != v.Text() {
			v.str = lit
		}
		return v, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", errNonScalar, raw)
	}
}

// Text renders the value the way it would read in a spreadsheet cell.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		if v.str != "" {
			return v.str
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v Value) String() string {
	return v.Text()
}

var numericStripper = strings.NewReplacer("$", "", ",", "", " ", "", "%", "")

// Float coerces the value to a number. Currency symbols, thousands
// separators and percent signs are tolerated in string cells.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case ValueNumber:
		return v.num, true
	case ValueString:
		cleaned := numericStripper.Replace(strings.TrimSpace(v.str))
		if cleaned == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}

var falsyWords = map[string]struct{}{
	"":      {},
	"0":     {},
	"false": {},
	"no":    {},
	"n":     {},
	"off":   {},
}

// Truthy interprets service flag cells such as "Yes", "x", 1 or TRUE.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueBool:
		return v.b
	case ValueNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case ValueString:
		_, falsy := falsyWords[strings.ToLower(strings.TrimSpace(v.str))]
		return !falsy
	default:
		return false
	}
}

// RawRow maps field names exactly as received to their cell values.
type RawRow map[string]Value

var (
	errNotRecord = errors.New("row is not a record")
	errEmptyRow  = errors.New("row has no values")
)

// RowFromAny converts one decoded batch element into a RawRow. Non-scalar
// cells are dropped with a warning; anything that is not key/value shaped is
// a structural failure.
func RowFromAny(raw any) (RawRow, []string, error) {
	switch t := raw.(type) {
	case RawRow:
		return t, nil, checkNotBlank(t)
	case map[string]string:
		row := make(RawRow, len(t))
		for k, v := range t {
			row[k] = String(v)
		}
		return row, nil, checkNotBlank(row)
	case map[string]any:
		row := make(RawRow, len(t))
		var warnings []string
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := ValueOf(t[k])
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("ignored non-scalar value in column %q", k))
				continue
			}
			row[k] = v
		}
		return row, warnings, checkNotBlank(row)
	default:
		return nil, nil, errNotRecord
	}
}

func checkNotBlank(row RawRow) error {
	for _, v := range row {
		if !Clean(v).IsMissing() {
			return nil
		}
	}
	return errEmptyRow
}
