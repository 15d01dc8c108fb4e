package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bidops-platform/api/internal/importer"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const noBidFill = "FFC7CE"

var sheetNames = map[importer.Kind]string{
	importer.KindAvailableJobs: "Available Jobs",
	importer.KindActiveBids:    "Active Bids",
}

var totalsHeaders = []string{"Total Revenue", "Total Cost", "Total Gross Profit"}

// Filename is the download name for an export taken at now.
func Filename(kind importer.Kind, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", kind.Slug(), now.Format("2006-01-02"))
}

// Write renders records as a single-sheet workbook whose header row uses
// the same column titles the importer recognizes, so an export can be
// edited and imported again. No Bid rows are shaded.
func Write(w io.Writer, kind importer.Kind, records []importer.Record) error {
	schema, ok := importer.SchemaFor(kind)
	if !ok {
		return fmt.Errorf("%w: %s", importer.ErrUnknownKind, kind)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetNames[kind]
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := make([]any, 0, len(schema.Fields)+len(totalsHeaders))
	for _, field := range schema.Fields {
		headers = append(headers, field.Header())
	}
	if kind == importer.KindActiveBids {
		for _, h := range totalsHeaders {
			headers = append(headers, h)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	noBidStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{noBidFill}},
	})
	if err != nil {
		return fmt.Errorf("create row style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		row := make([]any, 0, len(headers))
		for _, field := range schema.Fields {
			row = append(row, cellValue(field.Extract(rec)))
		}
		if kind == importer.KindActiveBids && rec.Totals != nil {
			row = append(row, rec.Totals.Revenue, rec.Totals.Cost, rec.Totals.GrossProfit)
		}

		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", rowNum, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		if rec.Status == string(importer.JobStatusNoBid) {
			if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, rowNum), noBidStyle); err != nil {
				return fmt.Errorf("style row %d: %w", rowNum, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	}
	return v
}
