package excel_test

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/thinhvd77/Tax/internal/model"
)

type sheetData struct {
	name string
	rows [][]interface{}
}

// buildXLSX writes the sheets in order and returns the workbook bytes.
func buildXLSX(t *testing.T, sheets ...sheetData) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("NewSheet(%q) failed: %v", s.name, err)
		}
		for r, row := range s.rows {
			if len(row) == 0 {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func upload(name string, data []byte) model.UploadedFile {
	return model.NewUploadedFile(name, data)
}

// payrollRows six header rows followed by the given lines
func payrollRows(lines ...[]interface{}) [][]interface{} {
	rows := [][]interface{}{
		{"CÔNG TY TNHH ABC"},
		{"BẢNG LƯƠNG V1"},
		{},
		{"STT", "Họ và tên", "Chức vụ"},
		{},
		{},
	}
	return append(rows, lines...)
}

// employeeLine STT, name, position, then base salary in M and insurance in Q..S
func employeeLine(stt int, name string, base, insurance int) []interface{} {
	line := make([]interface{}, 19)
	for i := range line {
		line[i] = ""
	}
	line[0] = stt
	line[1] = name
	line[2] = "Nhân viên"
	line[12] = base
	line[13] = 0
	line[16] = insurance
	line[17] = 0
	return line
}

// retroLine STT, name, taxable income in J, insurance parts in K..M
func retroLine(stt int, name string, income, k, l, m int) []interface{} {
	line := make([]interface{}, 13)
	for i := range line {
		line[i] = ""
	}
	line[0] = stt
	line[1] = name
	line[9] = income
	line[10] = k
	line[11] = l
	line[12] = m
	return line
}

// retroRows eleven header rows followed by the given lines
func retroRows(lines ...[]interface{}) [][]interface{} {
	rows := make([][]interface{}, 11)
	rows[0] = []interface{}{"BẢNG TRUY LĨNH"}
	return append(rows, lines...)
}
