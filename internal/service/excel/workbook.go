package excel

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// legacy BIFF workbooks are OLE compound files
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// maxLegacyRows upper bound of rows read from one .xls sheet
const maxLegacyRows = 100000

// Sheet one worksheet as a raw row grid
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook all sheets of an uploaded file, in workbook order
type Workbook struct {
	Sheets []Sheet
}

// FirstSheet rows of the first sheet, nil when the workbook is empty
func (w *Workbook) FirstSheet() [][]string {
	if w == nil || len(w.Sheets) == 0 {
		return nil
	}
	return w.Sheets[0].Rows
}

// OpenWorkbook reads an .xlsx or legacy .xls buffer into raw rows.
func OpenWorkbook(data []byte, filename string) (*Workbook, error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	if isLegacyXLS(data, filename) {
		return openLegacy(data)
	}
	return openXLSX(data)
}

func isLegacyXLS(data []byte, filename string) bool {
	if bytes.HasPrefix(data, oleMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".xls") && !bytes.HasPrefix(data, []byte("PK"))
}

func openXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

func openLegacy(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	wb := &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		last := int(sheet.MaxRow)
		if last >= maxLegacyRows {
			last = maxLegacyRows - 1
		}
		rows := make([][]string, 0, last+1)
		for r := 0; r <= last; r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheet.Name, Rows: rows})
	}
	return wb, nil
}

// getCell returns the trimmed cell at idx, "" when the row is short.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// rowAt returns rows[i] or nil when out of range
func rowAt(rows [][]string, i int) []string {
	if i < 0 || i >= len(rows) {
		return nil
	}
	return rows[i]
}
