package importer

import openapi_types "github.com/oapi-codegen/runtime/types"

type FieldType uint8

const (
	FieldKey FieldType = iota
	FieldStatus
	FieldText
	FieldDate
	FieldFlag
	FieldNumber
	FieldInt
)

func (t FieldType) numeric() bool {
	return t == FieldNumber || t == FieldInt
}

// Field describes one canonical column: the header spellings it is found
// under and where its value lands in a Record.
type Field struct {
	Name    string
	Aliases []string
	Type    FieldType

	// Required text fields default to "Unknown" and warn when missing.
	Required bool
	// Fallback is the silent default for optional text fields.
	Fallback string
	// Default replaces a missing numeric value.
	Default float64

	text func(*Record) *string
	date func(*Record) **openapi_types.Date
	flag func(*Record) *bool
}

// Header is the canonical column title, used when writing records back out.
func (f Field) Header() string {
	if len(f.Aliases) == 0 {
		return f.Name
	}
	return f.Aliases[0]
}

// Extract reads the field's value back out of rec: a string for key, status,
// text and date fields, a bool for flags and a float64 for numbers. It
// returns nil when rec carries no value.
func (f Field) Extract(rec *Record) any {
	switch f.Type {
	case FieldKey:
		return rec.ContractNumber
	case FieldStatus:
		return rec.Status
	case FieldText:
		return *f.text(rec)
	case FieldDate:
		if d := *f.date(rec); d != nil {
			return d.String()
		}
		return nil
	case FieldFlag:
		return *f.flag(rec)
	case FieldNumber, FieldInt:
		if v, ok := rec.Quantities[f.Name]; ok {
			return v
		}
	}
	return nil
}

type Schema struct {
	Kind   Kind
	Fields []Field
	// DefaultEntryDate stamps the import date on rows without one.
	DefaultEntryDate bool
}

// SchemaFor returns the field table for kind.
func SchemaFor(kind Kind) (Schema, bool) {
	switch kind {
	case KindAvailableJobs:
		return availableJobsSchema, true
	case KindActiveBids:
		return activeBidsSchema, true
	}
	return Schema{}, false
}

func keyField(aliases ...string) Field {
	return Field{Name: "contract_number", Type: FieldKey, Aliases: aliases}
}

func statusField(aliases ...string) Field {
	return Field{Name: "status", Type: FieldStatus, Aliases: aliases}
}

func requiredText(name string, target func(*Record) *string, aliases ...string) Field {
	return Field{Name: name, Type: FieldText, Required: true, Aliases: aliases, text: target}
}

func textField(name, fallback string, target func(*Record) *string, aliases ...string) Field {
	return Field{Name: name, Type: FieldText, Fallback: fallback, Aliases: aliases, text: target}
}

func dateField(name string, target func(*Record) **openapi_types.Date, aliases ...string) Field {
	return Field{Name: name, Type: FieldDate, Aliases: aliases, date: target}
}

func flagField(name string, target func(*Record) *bool, aliases ...string) Field {
	return Field{Name: name, Type: FieldFlag, Aliases: aliases, flag: target}
}

func numberField(name string, aliases ...string) Field {
	return Field{Name: name, Type: FieldNumber, Aliases: aliases}
}

func intField(name string, def float64, aliases ...string) Field {
	return Field{Name: name, Type: FieldInt, Default: def, Aliases: aliases}
}

var availableJobsSchema = Schema{
	Kind:             KindAvailableJobs,
	DefaultEntryDate: true,
	Fields: []Field{
		keyField("Contract Number", "Contract #", "Contract No", "Contract"),
		statusField("Status", "Bid Status"),
		requiredText("requestor", func(r *Record) *string { return &r.Requestor }, "Requestor", "Requested By"),
		requiredText("owner", func(r *Record) *string { return &r.Owner }, "Owner", "Client"),
		textField("county", unknownText, func(r *Record) *string { return &r.County }, "County"),
		textField("branch", unknownText, func(r *Record) *string { return &r.Branch }, "Branch", "Office"),
		textField("location", unknownText, func(r *Record) *string { return &r.Location }, "Location"),
		textField("platform", unknownText, func(r *Record) *string { return &r.Platform }, "Platform"),
		textField("no_bid_reason", "", func(r *Record) *string { return &r.NoBidReason }, "No Bid Reason"),
		dateField("letting_date", func(r *Record) **openapi_types.Date { return &r.LettingDate }, "Letting Date", "Letting"),
		dateField("due_date", func(r *Record) **openapi_types.Date { return &r.DueDate }, "Due Date"),
		dateField("entry_date", func(r *Record) **openapi_types.Date { return &r.EntryDate }, "Entry Date", "Date Entered"),
		flagField("mpt", func(r *Record) *bool { return &r.Services.MPT }, "MPT"),
		flagField("flagging", func(r *Record) *bool { return &r.Services.Flagging }, "Flagging"),
		flagField("perm_signs", func(r *Record) *bool { return &r.Services.PermSigns }, "Perm Signs", "Permanent Signs"),
		flagField("equipment_rental", func(r *Record) *bool { return &r.Services.EquipmentRental }, "Equipment Rental"),
		flagField("other", func(r *Record) *bool { return &r.Services.Other }, "Other"),
		numberField("dbe_percentage", "DBE %", "DBE Percentage"),
	},
}

var activeBidsSchema = Schema{
	Kind: KindActiveBids,
	Fields: []Field{
		keyField("Contract Number", "Contract #", "Contract"),
		statusField("Status", "Bid Status"),
		requiredText("estimator", func(r *Record) *string { return &r.Requestor }, "Estimator", "Requestor"),
		requiredText("owner", func(r *Record) *string { return &r.Owner }, "Owner", "Client"),
		textField("county", unknownText, func(r *Record) *string { return &r.County }, "County"),
		textField("branch", unknownText, func(r *Record) *string { return &r.Branch }, "Branch", "Office"),
		textField("division", "", func(r *Record) *string { return &r.Division }, "Division"),
		textField("contractor", "", func(r *Record) *string { return &r.Contractor }, "Contractor", "Prime Contractor"),
		textField("subcontractor", "", func(r *Record) *string { return &r.Subcontractor }, "Subcontractor"),
		dateField("letting_date", func(r *Record) **openapi_types.Date { return &r.LettingDate }, "Letting Date", "Bid Date"),
		dateField("due_date", func(r *Record) **openapi_types.Date { return &r.DueDate }, "Due Date"),
		dateField("start_date", func(r *Record) **openapi_types.Date { return &r.StartDate }, "Start Date"),
		dateField("end_date", func(r *Record) **openapi_types.Date { return &r.EndDate }, "End Date"),
		flagField("emergency_job", func(r *Record) *bool { return &r.Services.EmergencyJob }, "Emergency Job"),

		intField("project_days", 1, "Project Days", "Days"),
		numberField("base_rate", "Base Rate"),
		numberField("fringe_rate", "Fringe Rate"),
		numberField("rt_miles", "RT Miles", "Round Trip Miles"),
		numberField("rt_travel", "RT Travel", "Round Trip Travel"),
		numberField("rated_hours", "Rated Hours"),
		numberField("nonrated_hours", "Nonrated Hours", "Non-Rated Hours"),
		numberField("total_hours", "Total Hours"),

		intField("phases", 1, "Phases"),
		intField("type_iii_4ft", 0, "Type III 4ft"),
		intField("wings_6ft", 0, "Wings 6ft"),
		intField("h_stands", 0, "H Stands"),
		intField("posts", 0, "Posts"),
		intField("sand_bags", 0, "Sand Bags"),
		intField("covers", 0, "Covers"),
		intField("spring_loaded_metal_stands", 0, "Spring Loaded Metal Stands"),
		intField("hi_vertical_panels", 0, "HI Vertical Panels"),
		intField("type_xi_vertical_panels", 0, "Type XI Vertical Panels"),
		intField("b_lites", 0, "B Lites"),
		intField("ac_lites", 0, "AC Lites"),

		numberField("hi_signs_sq_ft", "HI Signs Sq Ft"),
		numberField("dg_signs_sq_ft", "DG Signs Sq Ft"),
		numberField("special_signs_sq_ft", "Special Signs Sq Ft"),

		numberField("mpt_value", "MPT Value"),
		numberField("mpt_gross_profit", "MPT Gross Profit"),
		numberField("mpt_gm_percent", "MPT GM %"),
		numberField("rental_value", "Rental Value"),
		numberField("rental_gross_profit", "Rental Gross Profit"),
		numberField("rental_gm_percent", "Rental GM %"),
	},
}
