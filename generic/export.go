package generic

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// EXPORT - Serializes Filtered() in declared column order
// =============================================================================

// ExportFilename returns "<title>-export.<ext>", or "data-export.<ext>" for an
// untitled table.
func (t *Table[T]) ExportFilename(ext string) string {
	name := t.title
	if name == "" {
		name = "data"
	}
	return name + "-export." + ext
}

// ExportCSV writes the filtered and sorted rows (all pages) as CSV. Every
// field is double-quoted with inner quotes doubled; records are separated by
// "\n" with no trailing newline.
func (t *Table[T]) ExportCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fields := make([]string, len(t.columns))
	for i, c := range t.columns {
		fields[i] = c.Header
	}
	writeCSVRecord(bw, fields)

	for _, row := range t.Filtered() {
		for i, c := range t.columns {
			fields[i] = c.rendered(row)
		}
		bw.WriteByte('\n')
		writeCSVRecord(bw, fields)
	}
	return bw.Flush()
}

func writeCSVRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}

// ExportXLSX writes the same rows as ExportCSV to a single-sheet workbook with
// a bold, frozen header row. Cells hold the rendered text.
func (t *Table[T]) ExportXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.title
	if sheet == "" {
		sheet = "data"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, c := range t.columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}

	for r, row := range t.Filtered() {
		for col, c := range t.columns {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, c.rendered(row)); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
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

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
