package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrNoHeader          = errors.New("header row could not be detected")
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const utf8BOM = "\ufeff"

// DetectFormat sniffs payload and checks it against the file extension.
// Zip containers are read as xlsx and any text body as CSV; legacy binary
// workbooks and everything else are rejected. An empty payload falls back
// to the extension alone.
func DetectFormat(filename string, payload []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "", ".xlsx", ".xlsm", ".csv", ".txt":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if len(payload) == 0 {
		if ext == ".xlsx" || ext == ".xlsm" {
			return FormatXLSX, nil
		}
		return FormatCSV, nil
	}

	mtype := mimetype.Detect(payload)
	switch {
	case descendsFrom(mtype, "application/zip"):
		if ext == ".csv" || ext == ".txt" {
			return "", fmt.Errorf("%w: %s content in a %s file", ErrUnsupportedFormat, mtype.Extension(), ext)
		}
		return FormatXLSX, nil
	case descendsFrom(mtype, "text/plain"):
		if ext == ".xlsx" || ext == ".xlsm" {
			return "", fmt.Errorf("%w: text content in a %s file", ErrUnsupportedFormat, ext)
		}
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
}

func descendsFrom(m *mimetype.MIME, mime string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

// Read parses the first sheet (or the CSV body) into one map per data row,
// keyed by the header row. Blank cells are left out of the map so that the
// importer treats them as absent.
func Read(r io.Reader, filename string) ([]any, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	format, err := DetectFormat(filename, payload)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(payload)
	case FormatCSV:
		records, err = readCSV(payload)
	}
	if err != nil {
		return nil, err
	}
	return toRows(records)
}

func readXLSX(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	// Raw values keep date cells as serial numbers instead of the
	// workbook's display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from xlsx: %w", err)
	}
	return rows, nil
}

func readCSV(payload []byte) ([][]string, error) {
	payload = bytes.TrimPrefix(payload, []byte(utf8BOM))
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func toRows(records [][]string) ([]any, error) {
	headerIndex := -1
	for i, record := range records {
		if !isBlank(record) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return nil, ErrNoHeader
	}
	headers := headerNames(records[headerIndex])

	rows := make([]any, 0, len(records)-headerIndex-1)
	for _, record := range records[headerIndex+1:] {
		if isBlank(record) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, cell := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			row[headers[i]] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func headerNames(record []string) []string {
	headers := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, raw := range record {
		name := strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM))
		if name == "" {
			continue
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		headers[i] = name
	}
	return headers
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
