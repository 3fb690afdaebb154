package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"fitquote/internal"
)

// ReadRawLines parses a manual-entry file into raw line items. The
// format is picked from the extension: .xlsx, .csv or .json. This is
// the in-scope half of the extraction boundary; AI document extraction
// delivers the same shape from outside.
func ReadRawLines(path string, content []byte) ([]internal.RawLineItem, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return parseXLSXLines(content)
	case ".csv":
		return parseCSVLines(content)
	case ".json":
		var lines []internal.RawLineItem
		if err := json.Unmarshal(content, &lines); err != nil {
			return nil, fmt.Errorf("parse raw lines json: %w", err)
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", filepath.Ext(path))
	}
}

// Columns: code, description, raw description, quantity. A header row
// is skipped when its quantity cell is not numeric.
func parseXLSXLines(content []byte) ([]internal.RawLineItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.RawLineItem{}
	lineNo := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			item, ok := rowToLine(row, lineNo+1)
			if !ok {
				continue
			}
			lineNo++
			out = append(out, item)
		}
	}
	return out, nil
}

func parseCSVLines(content []byte) ([]internal.RawLineItem, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	out := []internal.RawLineItem{}
	lineNo := 0
	for _, record := range records {
		item, ok := rowToLine(record, lineNo+1)
		if !ok {
			continue
		}
		lineNo++
		out = append(out, item)
	}
	return out, nil
}

func rowToLine(cells []string, lineNo int) (internal.RawLineItem, bool) {
	get := func(i int) string {
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	code := get(0)
	qty, ok := parseQuantity(get(3))
	if code == "" || !ok {
		return internal.RawLineItem{}, false
	}

	return internal.RawLineItem{
		LineNumber:     lineNo,
		ProductCode:    code,
		Description:    get(1),
		RawDescription: get(2),
		Quantity:       qty,
	}, true
}

// parseQuantity tolerates spreadsheet cell spellings: thousands
// separators and a decimal comma, as long as the value is a positive
// whole number.
func parseQuantity(cell string) (int, bool) {
	compact := strings.ReplaceAll(cell, " ", "")
	compact = strings.ReplaceAll(compact, "\u00a0", "")
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	if compact == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	qty := int(parsed)
	if float64(qty) != parsed || qty <= 0 {
		return 0, false
	}
	return qty, true
}

// ReadCatalogueEntries parses a catalogue workbook: columns code,
// install time (hours), waste volume (m3), heavy flag. Header rows are
// skipped when the time cell is not numeric.
func ReadCatalogueEntries(content []byte) ([]internal.CatalogueEntry, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.CatalogueEntry{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			get := func(i int) string {
				if i >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[i])
			}

			code := get(0)
			timeHours, err := strconv.ParseFloat(get(1), 64)
			if code == "" || err != nil || timeHours <= 0 {
				continue
			}
			waste, _ := strconv.ParseFloat(get(2), 64)
			heavy := false
			switch strings.ToLower(get(3)) {
			case "1", "true", "yes", "y", "heavy":
				heavy = true
			}

			out = append(out, internal.CatalogueEntry{
				Code:             code,
				InstallTimeHours: timeHours,
				WasteVolumeM3:    waste,
				IsHeavy:          heavy,
			})
		}
	}
	return out, nil
}
