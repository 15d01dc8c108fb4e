package importer

import (
	"maps"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

type Services struct {
	MPT             bool `json:"mpt"`
	Flagging        bool `json:"flagging"`
	PermSigns       bool `json:"perm_signs"`
	EquipmentRental bool `json:"equipment_rental"`
	Other           bool `json:"other"`
	EmergencyJob    bool `json:"emergency_job"`
}

// BidTotals are figures derived from an active bid's quantities.
type BidTotals struct {
	Revenue          float64 `json:"total_revenue"`
	Cost             float64 `json:"total_cost"`
	GrossProfit      float64 `json:"total_gross_profit"`
	OWMileage        float64 `json:"ow_mileage"`
	OWTravelTimeMins float64 `json:"ow_travel_time_mins"`
}

// Record is the canonical shape shared by both import kinds. Numeric fields
// declared by the kind's schema live in Quantities keyed by field name.
type Record struct {
	ID             openapi_types.UUID  `json:"id"`
	Kind           Kind                `json:"kind"`
	ContractNumber string              `json:"contract_number"`
	Status         string              `json:"status"`
	Requestor      string              `json:"requestor"`
	Owner          string              `json:"owner"`
	OwnerType      string              `json:"owner_type,omitempty"`
	County         string              `json:"county"`
	Branch         string              `json:"branch"`
	Location       string              `json:"location,omitempty"`
	Platform       string              `json:"platform,omitempty"`
	Division       string              `json:"division,omitempty"`
	Contractor     string              `json:"contractor,omitempty"`
	Subcontractor  string              `json:"subcontractor,omitempty"`
	NoBidReason    string              `json:"no_bid_reason,omitempty"`
	LettingDate    *openapi_types.Date `json:"letting_date"`
	DueDate        *openapi_types.Date `json:"due_date"`
	EntryDate      *openapi_types.Date `json:"entry_date,omitempty"`
	StartDate      *openapi_types.Date `json:"start_date,omitempty"`
	EndDate        *openapi_types.Date `json:"end_date,omitempty"`
	Services       Services            `json:"services"`
	Quantities     map[string]float64  `json:"quantities"`
	Totals         *BidTotals          `json:"totals,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Clone returns a copy that shares no pointers or maps with r.
func (r Record) Clone() Record {
	out := r
	out.LettingDate = cloneDate(r.LettingDate)
	out.DueDate = cloneDate(r.DueDate)
	out.EntryDate = cloneDate(r.EntryDate)
	out.StartDate = cloneDate(r.StartDate)
	out.EndDate = cloneDate(r.EndDate)
	out.Quantities = maps.Clone(r.Quantities)
	if r.Totals != nil {
		totals := *r.Totals
		out.Totals = &totals
	}
	return out
}

func (r *Record) normalizeDates() {
	r.LettingDate = normalizeDate(r.LettingDate)
	r.DueDate = normalizeDate(r.DueDate)
	r.EntryDate = normalizeDate(r.EntryDate)
	r.StartDate = normalizeDate(r.StartDate)
	r.EndDate = normalizeDate(r.EndDate)
}

func cloneDate(d *openapi_types.Date) *openapi_types.Date {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

// RowOutcome is the result of mapping one incoming row. Record is nil when
// the row could not be mapped at all. EntryDateDefaulted marks an entry
// date stamped from the clock rather than read from the row.
type RowOutcome struct {
	Row                int
	Record             *Record
	Warnings           []string
	EntryDateDefaulted bool
}
