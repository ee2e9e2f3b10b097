package excel_test

import (
	"testing"

	"github.com/thinhvd77/Tax/internal/service/excel"
)

func TestOpenWorkbookReadsEverySheetInOrder(t *testing.T) {
	data := buildXLSX(t,
		sheetData{name: "Thưởng_Tết", rows: [][]interface{}{{"STT", "Họ tên", "Số tiền"}, {1, "Nguyễn Văn A", 1000000}}},
		sheetData{name: "Lễ 2_9", rows: [][]interface{}{{"STT"}}},
	)

	wb, err := excel.OpenWorkbook(data, "thuong.xlsx")
	if err != nil {
		t.Fatalf("OpenWorkbook failed: %v", err)
	}
	if len(wb.Sheets) != 2 {
		t.Fatalf("len(Sheets)=%d, want 2", len(wb.Sheets))
	}
	if wb.Sheets[0].Name != "Thưởng_Tết" || wb.Sheets[1].Name != "Lễ 2_9" {
		t.Fatalf("sheet names=%q,%q", wb.Sheets[0].Name, wb.Sheets[1].Name)
	}

	rows := wb.FirstSheet()
	if len(rows) != 2 {
		t.Fatalf("len(rows)=%d, want 2", len(rows))
	}
	if got := rows[1][2]; got != "1000000" {
		t.Fatalf("amount cell=%q, want raw 1000000", got)
	}
}

func TestOpenWorkbookRejectsGarbage(t *testing.T) {
	if _, err := excel.OpenWorkbook(nil, "a.xlsx"); err == nil {
		t.Fatalf("expected error for empty buffer")
	}
	if _, err := excel.OpenWorkbook([]byte("not a workbook"), "a.xlsx"); err == nil {
		t.Fatalf("expected error for non-zip buffer")
	}
	if _, err := excel.OpenWorkbook([]byte("not a workbook"), "a.xls"); err == nil {
		t.Fatalf("expected error for non-OLE .xls buffer")
	}
}

func TestFirstSheetNilSafe(t *testing.T) {
	var wb *excel.Workbook
	if rows := wb.FirstSheet(); rows != nil {
		t.Fatalf("FirstSheet on nil workbook=%v", rows)
	}
	if rows := (&excel.Workbook{}).FirstSheet(); rows != nil {
		t.Fatalf("FirstSheet on empty workbook=%v", rows)
	}
}
