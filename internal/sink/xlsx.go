package sink

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"gitlab.com/tozd/go/errors"
)

// StyleFunc returns the style for a data cell, or nil for the default style.
type StyleFunc func(column string, value any) *excelize.Style

const (
	defaultSheetName = "Data"
	maxSheetNameLen  = 31
	tableStyle       = "TableStyleMedium2"
	minColumnWidth   = 8
	maxColumnWidth   = 100
)

var (
	invalidSheetChars = regexp.MustCompile(`[\[\]:*?/\\]`)
	invalidTableChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// writeXLSX writes a sheet holding a named table with a frozen header row and
// autosized columns. In append mode the rows of an existing file are read back
// and written again ahead of the new ones. The existing file is deleted only
// once the new workbook is built.
func writeXLSX(w *Writer, path string, t Table, appendMode bool) error {
	sheet := sheetName(t.Name)

	var existing [][]string
	exists, err := afero.Exists(w.fs, path)
	if err != nil {
		return err
	}
	if exists && appendMode {
		existing, err = readXLSXRows(w.fs, path, sheet)
		if err != nil {
			return err
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	widths := make([]int, len(t.Columns))
	track := func(i int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[i] {
			widths[i] = n
		}
	}

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
		track(i, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	rowNum := 2
	for _, row := range existing {
		cells := make([]any, len(t.Columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
				track(i, row[i])
			}
		}
		if err := setRow(f, sheet, rowNum, cells); err != nil {
			return err
		}
		rowNum++
	}

	styles := map[*excelize.Style]int{}
	for _, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i := range cells {
			var v any
			if i < len(row) {
				v = row[i]
			}
			cells[i] = text(v)
			track(i, cells[i].(string))
		}
		if err := setRow(f, sheet, rowNum, cells); err != nil {
			return err
		}
		if w.Style != nil {
			if err := applyStyles(f, sheet, rowNum, t.Columns, row, w.Style, styles); err != nil {
				return err
			}
		}
		rowNum++
	}

	lastRow := rowNum - 1
	if lastRow < 2 {
		lastRow = 2
	}
	lastCell, err := excelize.CoordinatesToCellName(len(t.Columns), lastRow)
	if err != nil {
		return err
	}
	if err := f.AddTable(sheet, &excelize.Table{
		Range:     "A1:" + lastCell,
		Name:      tableName(sheet),
		StyleName: tableStyle,
	}); err != nil {
		return errors.Errorf("failed to add table: %w", err)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(width)); err != nil {
			return err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	if exists {
		if err := w.fs.Remove(path); err != nil {
			return errors.Errorf("failed to remove existing file: %w", err)
		}
	}
	return afero.WriteFile(w.fs, path, buf.Bytes(), 0644)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func applyStyles(f *excelize.File, sheet string, row int, columns []string, values []any, style StyleFunc, cache map[*excelize.Style]int) error {
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		s := style(col, v)
		if s == nil {
			continue
		}
		id, ok := cache[s]
		if !ok {
			var err error
			id, err = f.NewStyle(s)
			if err != nil {
				return err
			}
			cache[s] = id
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
			return err
		}
	}
	return nil
}

// readXLSXRows returns the data rows (header excluded) of sheet, or of the
// first sheet when sheet is absent.
func readXLSXRows(fs afero.Fs, path, sheet string) ([][]string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.Errorf("failed to read existing workbook: %w", err)
	}
	defer f.Close()

	name := sheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		name = f.GetSheetName(0)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// sheetName returns a valid worksheet name derived from name.
func sheetName(name string) string {
	name = strings.TrimSpace(invalidSheetChars.ReplaceAllString(name, "_"))
	if name == "" {
		return defaultSheetName
	}
	if utf8.RuneCountInString(name) > maxSheetNameLen {
		name = string([]rune(name)[:maxSheetNameLen])
	}
	return name
}

// tableName returns a valid table name derived from the sheet name.
func tableName(sheet string) string {
	name := invalidTableChars.ReplaceAllString(sheet, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "T_" + name
	}
	return name
}

func columnWidth(chars int) float64 {
	w := chars + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}
