package importer

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// Mapper turns raw rows of one kind into canonical records.
type Mapper struct {
	schema Schema
	now    func() time.Time
}

func NewMapper(kind Kind, now func() time.Time) (*Mapper, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if now == nil {
		now = time.Now
	}
	return &Mapper{schema: schema, now: now}, nil
}

// MapRow maps the row at zero-based position index. Missing data never
// fails the row; defaults are applied and described in the warnings.
func (m *Mapper) MapRow(row RawRow, index int) RowOutcome {
	out := RowOutcome{Row: index + 1}
	idx := newRowIndex(row)
	now := m.now()

	rec := &Record{
		Kind:       m.schema.Kind,
		Quantities: map[string]float64{},
	}

	var ownerGiven bool
	for _, f := range m.schema.Fields {
		raw, _ := idx.lookup(f.Aliases)
		v := Clean(raw)

		switch f.Type {
		case FieldKey:
			rec.ContractNumber = strings.TrimSpace(v.Text())
		case FieldStatus:
			rec.Status = m.mapStatus(v)
		case FieldText:
			s := strings.TrimSpace(v.Text())
			if f.Name == "owner" {
				ownerGiven = s != ""
			}
			if s == "" {
				if f.Required {
					s = unknownText
					out.Warnings = append(out.Warnings, fmt.Sprintf("%s missing, defaulting to %s", f.Name, unknownText))
				} else {
					s = f.Fallback
				}
			}
			*f.text(rec) = s
		case FieldDate:
			if v.IsMissing() {
				continue
			}
			d, ok := ParseDate(v)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("could not parse date value: `%s` (%s)", raw.Text(), f.Name))
				continue
			}
			*f.date(rec) = &d
		case FieldFlag:
			*f.flag(rec) = v.Truthy()
		case FieldNumber, FieldInt:
			if v.IsMissing() {
				continue
			}
			n, ok := v.Float()
			if !ok {
				n = math.NaN()
			}
			if f.Type == FieldInt && !math.IsNaN(n) && !math.IsInf(n, 0) {
				n = math.Trunc(n)
			}
			rec.Quantities[f.Name] = n
		}
	}

	if rec.ContractNumber == "" {
		rec.ContractNumber = fallbackKey(rec.Owner, ownerGiven, now, index)
		out.Warnings = append(out.Warnings, fmt.Sprintf("contract number missing, generated %s", rec.ContractNumber))
	}

	if m.schema.DefaultEntryDate && rec.EntryDate == nil {
		today := dateOnly(now)
		rec.EntryDate = &today
		out.EntryDateDefaulted = true
	}

	if warning := inferDates(rec); warning != "" {
		out.Warnings = append(out.Warnings, warning)
	}

	if m.schema.Kind == KindActiveBids {
		rec.OwnerType = ClassifyOwner(rec.Owner)
		rec.Division = classifyDivision(rec.Division)
	}

	out.Record = rec
	return out
}

func (m *Mapper) mapStatus(v Value) string {
	if m.schema.Kind == KindActiveBids {
		return string(MapBidStatus(v))
	}
	return string(MapStatus(v))
}

// fallbackKey builds a placeholder contract number. The row position keeps
// placeholders distinct within one batch.
func fallbackKey(owner string, ownerGiven bool, now time.Time, index int) string {
	if ownerGiven {
		var prefix []rune
		for _, r := range owner {
			if unicode.IsLetter(r) {
				prefix = append(prefix, unicode.ToUpper(r))
			}
			if len(prefix) == 3 {
				break
			}
		}
		if len(prefix) > 0 {
			return fmt.Sprintf("TEMP-%s-%d-%d", string(prefix), now.Year(), index+1)
		}
	}
	return fmt.Sprintf("TEMP-%d-%d", now.UnixMilli(), index+1)
}
