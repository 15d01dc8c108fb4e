package importer

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Validate fills every declared numeric field of rec. Missing values take
// the field default silently; garbled, infinite or negative values become 0
// with one warning each. Active bids then get their derived totals.
func Validate(rec *Record) []string {
	schema, ok := SchemaFor(rec.Kind)
	if !ok {
		return nil
	}
	if rec.Quantities == nil {
		rec.Quantities = map[string]float64{}
	}

	var warnings []string
	for _, f := range schema.Fields {
		if !f.Type.numeric() {
			continue
		}
		v, present := rec.Quantities[f.Name]
		switch {
		case !present:
			rec.Quantities[f.Name] = f.Default
		case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
			rec.Quantities[f.Name] = 0
			warnings = append(warnings, fmt.Sprintf("invalid value for %s, using 0 instead", f.Name))
		}
	}

	if rec.Kind == KindActiveBids {
		totals := deriveBidTotals(rec.Quantities)
		rec.Totals = &totals
	}
	return warnings
}

var (
	two   = decimal.NewFromInt(2)
	sixty = decimal.NewFromInt(60)
)

func deriveBidTotals(q map[string]float64) BidTotals {
	amount := func(name string) decimal.Decimal {
		return decimal.NewFromFloat(q[name])
	}

	revenue := amount("mpt_value").Add(amount("rental_value"))
	grossProfit := amount("mpt_gross_profit").Add(amount("rental_gross_profit"))

	return BidTotals{
		Revenue:          revenue.InexactFloat64(),
		GrossProfit:      grossProfit.InexactFloat64(),
		Cost:             revenue.Sub(grossProfit).InexactFloat64(),
		OWMileage:        amount("rt_miles").Div(two).InexactFloat64(),
		OWTravelTimeMins: amount("rt_travel").Mul(sixty).Div(two).Round(0).InexactFloat64(),
	}
}
