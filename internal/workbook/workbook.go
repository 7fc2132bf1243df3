package workbook

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"MarketDash/internal/model"
)

// ContentType is the MIME type of the serialized workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename returns the download name of a symbol's report.
func Filename(symbol string) string {
	return symbol + "_report.xlsx"
}

// Serialize writes one sheet per section, in document order, and returns the workbook bytes.
func Serialize(doc *model.Document) (*bytes.Buffer, error) {
	if doc == nil {
		return nil, &model.OpError{Op: "serialize", Err: fmt.Errorf("%w: nil document", model.ErrSerialization)}
	}
	buf, err := serialize(doc)
	if err != nil {
		return nil, &model.OpError{Op: "serialize", Symbol: doc.Symbol, Err: err}
	}
	return buf, nil
}

func serialize(doc *model.Document) (*bytes.Buffer, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%w: document has no sections", model.ErrSerialization)
	}

	f := excelize.NewFile()
	defer f.Close()

	names := SheetNames(doc.Keys())
	for i, sec := range doc.Sections {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("%w: rename first sheet: %v", model.ErrSerialization, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("%w: add sheet %q: %v", model.ErrSerialization, sheet, err)
		}

		rows, err := sectionRows(sec)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", model.ErrSerialization, sheet, err)
		}
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", model.ErrSerialization, err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("%w: write %s!%s: %v", model.ErrSerialization, sheet, cell, err)
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSerialization, err)
	}
	return buf, nil
}

// sectionRows lays a section out as a header row followed by data rows. The first column
// is always the index; a Record is a single row at index 0.
func sectionRows(sec model.Section) ([][]any, error) {
	switch sec.Kind {
	case model.SectionTable:
		t := sec.Table
		if t == nil {
			t = &model.Table{}
		}
		if t.Index != nil && len(t.Index) != len(t.Rows) {
			return nil, fmt.Errorf("index has %d labels for %d rows", len(t.Index), len(t.Rows))
		}
		rows := make([][]any, 0, len(t.Rows)+1)
		rows = append(rows, headerRow(t.IndexName, t.Columns))
		for i, r := range t.Rows {
			if len(r) != len(t.Columns) {
				return nil, fmt.Errorf("row %d has %d cells for %d columns", i, len(r), len(t.Columns))
			}
			var label any = i
			if t.Index != nil {
				label = t.Index[i]
			}
			row, err := dataRow(label, r)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			rows = append(rows, row)
		}
		return rows, nil

	case model.SectionRecord:
		keys := make([]string, len(sec.Record))
		values := make([]any, len(sec.Record))
		for i, f := range sec.Record {
			keys[i] = f.Key
			values[i] = f.Value
		}
		row, err := dataRow(0, values)
		if err != nil {
			return nil, err
		}
		return [][]any{headerRow("", keys), row}, nil

	default:
		msg := "unknown error"
		if sec.Err != nil {
			msg = sec.Err.Error()
		}
		return [][]any{headerRow("", []string{"error"}), {0, msg}}, nil
	}
}

func headerRow(indexName string, columns []string) []any {
	row := make([]any, 0, len(columns)+1)
	row = append(row, indexName)
	for _, c := range columns {
		row = append(row, c)
	}
	return row
}

func dataRow(label any, cells []any) ([]any, error) {
	row := make([]any, 0, len(cells)+1)
	row = append(row, label)
	for _, v := range cells {
		c, err := cellValue(v)
		if err != nil {
			return nil, err
		}
		row = append(row, c)
	}
	return row, nil
}

// cellValue maps a section value to something the spreadsheet can hold.
// Undefined and infinite numbers become empty cells.
func cellValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, nil
		}
		return x, nil
	case float32:
		return cellValue(float64(x))
	case int, int32, int64, uint32, uint64, string, bool:
		return x, nil
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return model.Naive(x), nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", v)
	}
}
