// Package review exports a batch as an Excel workbook so a cataloguer can
// check every extracted subfield before the import file goes to IRBIS.
package review

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// SheetName is the name of the single worksheet.
const SheetName = "Записи"

// Header is the first row of the sheet.
var Header = []any{"№", "Ссылка", "Поле", "Повторение", "Подполе", "Значение"}

var columnWidths = map[string]float64{
	"A": 6,
	"B": 60,
	"C": 8,
	"D": 12,
	"E": 10,
	"F": 60,
}

// Row is one stored subfield of one entry.
type Row struct {
	Entry      int
	Citation   string
	Tag        int
	Occurrence int
	Subfield   string
	Value      string
}

// Rows flattens entries into one row per stored subfield. Subfield is empty
// for bare-value occurrences.
func Rows(entries []*record.Entry) []Row {
	var rows []Row
	for n, e := range entries {
		for _, f := range e.Record.Fields() {
			for i := 1; i <= f.Count(); i++ {
				occ, _ := f.Occurrence(i)
				for _, code := range occ.Codes() {
					v, _ := occ.Get(code)
					subfield := strings.ToLower(code)
					if code == record.NoSubfields {
						subfield = ""
					}
					rows = append(rows, Row{
						Entry:      n + 1,
						Citation:   e.Text,
						Tag:        f.Tag,
						Occurrence: i,
						Subfield:   subfield,
						Value:      v,
					})
				}
			}
		}
	}
	return rows
}

// Build creates the review workbook. The caller closes it.
func Build(entries []*record.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range Rows(entries) {
		values := []any{r.Entry, r.Citation, r.Tag, r.Occurrence, r.Subfield, r.Value}
		if err := setRow(f, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Write streams the review workbook of entries to w.
func Write(w io.Writer, entries []*record.Entry) error {
	f, err := Build(entries)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes the review workbook of entries to path.
func Save(path string, entries []*record.Entry) error {
	f, err := Build(entries)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
