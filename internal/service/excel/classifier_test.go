package excel_test

import (
	"errors"
	"testing"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

func TestClassifyByFilename(t *testing.T) {
	c := excel.NewClassifier(excel.DefaultThresholds(), nil)

	files := []model.UploadedFile{
		upload("Thưởng Tết.xlsx", []byte("x")),
		upload("Lương V1 tháng 10.xlsx", []byte("x")),
		upload("DS_nguoi_phu_thuoc.xlsx", []byte("x")),
		upload("Truy lĩnh T10.xls", []byte("x")),
		upload("Thuong_quy_3.xlsx", []byte("x")),
	}

	got, warnings, err := c.Classify(files)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings=%v, want none", warnings)
	}
	if got.Payroll == nil || got.Payroll.OriginalFilename != "Lương V1 tháng 10.xlsx" {
		t.Fatalf("Payroll=%v", got.Payroll)
	}
	if got.Dependents == nil || got.Dependents.OriginalFilename != "DS_nguoi_phu_thuoc.xlsx" {
		t.Fatalf("Dependents=%v", got.Dependents)
	}
	if got.Retro == nil || got.Retro.OriginalFilename != "Truy lĩnh T10.xls" {
		t.Fatalf("Retro=%v", got.Retro)
	}
	if len(got.Bonuses) != 2 {
		t.Fatalf("len(Bonuses)=%d, want 2", len(got.Bonuses))
	}
	if got.Bonuses[0].OriginalFilename != "Thưởng Tết.xlsx" || got.Bonuses[1].OriginalFilename != "Thuong_quy_3.xlsx" {
		t.Fatalf("bonus order=%q,%q", got.Bonuses[0].OriginalFilename, got.Bonuses[1].OriginalFilename)
	}

	roles := map[string]model.FileRole{}
	for _, a := range got.Assignments() {
		roles[a.Filename] = a.Role
	}
	if roles["Thưởng Tết.xlsx"] != model.FileRoleBonus {
		t.Fatalf("assignment role=%q, want bonus", roles["Thưởng Tết.xlsx"])
	}
}

func TestClassifyDuplicateRoleKeepsFirst(t *testing.T) {
	c := excel.NewClassifier(excel.DefaultThresholds(), nil)

	got, warnings, err := c.Classify([]model.UploadedFile{
		upload("luong v1 - dot 1.xlsx", []byte("x")),
		upload("LUONG V1 - dot 2.xlsx", []byte("x")),
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Payroll.OriginalFilename != "luong v1 - dot 1.xlsx" {
		t.Fatalf("Payroll=%q, want first file", got.Payroll.OriginalFilename)
	}
	if len(got.Ignored) != 1 || got.Ignored[0].OriginalFilename != "LUONG V1 - dot 2.xlsx" {
		t.Fatalf("Ignored=%v", got.Ignored)
	}
	if len(got.Bonuses) != 0 {
		t.Fatalf("Bonuses=%v, want none", got.Bonuses)
	}
	if len(warnings) != 1 || warnings[0].Kind != model.WarnDuplicateRole {
		t.Fatalf("warnings=%v, want one duplicate_role", warnings)
	}
}

func TestClassifyByShape(t *testing.T) {
	payroll := buildXLSX(t, sheetData{name: "Sheet1", rows: payrollRows(
		employeeLine(1, "Nguyễn Văn A", 20000000, 1000000),
		employeeLine(2, "Trần Thị B", 15000000, 800000),
		employeeLine(3, "Lê Văn C", 12000000, 700000),
		employeeLine(4, "Phạm Thị D", 11000000, 600000),
		employeeLine(5, "Hoàng Văn E", 10000000, 500000),
		employeeLine(6, "Vũ Thị F", 9000000, 400000),
	)})
	retro := buildXLSX(t, sheetData{name: "Sheet1", rows: retroRows(
		retroLine(1, "Nguyễn Văn A", 3000000, 100000, 20000, 10000),
		retroLine(2, "Trần Thị B", 2000000, 80000, 15000, 5000),
	)})
	bonus := buildXLSX(t, sheetData{name: "Tet", rows: [][]interface{}{
		{"STT", "Họ tên", "Số tiền"},
		{1, "Nguyễn Văn A", 1000000},
	}})

	c := excel.NewClassifier(excel.Thresholds{}, nil)
	got, _, err := c.Classify([]model.UploadedFile{
		upload("export_01.xlsx", bonus),
		upload("export_02.xlsx", retro),
		upload("export_03.xlsx", payroll),
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Payroll == nil || got.Payroll.OriginalFilename != "export_03.xlsx" {
		t.Fatalf("Payroll=%v, want export_03.xlsx", got.Payroll)
	}
	if got.Retro == nil || got.Retro.OriginalFilename != "export_02.xlsx" {
		t.Fatalf("Retro=%v, want export_02.xlsx", got.Retro)
	}
	if len(got.Bonuses) != 1 || got.Bonuses[0].OriginalFilename != "export_01.xlsx" {
		t.Fatalf("Bonuses=%v", got.Bonuses)
	}
}

func TestClassifyShapeBelowThreshold(t *testing.T) {
	payroll := buildXLSX(t, sheetData{name: "Sheet1", rows: payrollRows(
		employeeLine(1, "Nguyễn Văn A", 20000000, 1000000),
		employeeLine(2, "Trần Thị B", 15000000, 800000),
	)})

	c := excel.NewClassifier(excel.DefaultThresholds(), nil)
	got, _, err := c.Classify([]model.UploadedFile{upload("export.xlsx", payroll)})
	if !errors.Is(err, model.ErrMissingPayroll) {
		t.Fatalf("err=%v, want ErrMissingPayroll", err)
	}
	if !model.IsInputError(err) {
		t.Fatalf("err=%T, want input error", err)
	}
	if len(got.Bonuses) != 1 {
		t.Fatalf("Bonuses=%v, want the unmatched file", got.Bonuses)
	}

	lenient := excel.NewClassifier(excel.Thresholds{PayrollMinRows: 2}, nil)
	got, _, err = lenient.Classify([]model.UploadedFile{upload("export.xlsx", payroll)})
	if err != nil {
		t.Fatalf("Classify with lower threshold failed: %v", err)
	}
	if got.Payroll == nil {
		t.Fatalf("Payroll not detected with PayrollMinRows=2")
	}
}

func TestClassifyNoFiles(t *testing.T) {
	c := excel.NewClassifier(excel.DefaultThresholds(), nil)
	_, _, err := c.Classify(nil)
	if !errors.Is(err, model.ErrNoFiles) {
		t.Fatalf("err=%v, want ErrNoFiles", err)
	}
}

func TestClassifyUnreadableFileStaysBonus(t *testing.T) {
	c := excel.NewClassifier(excel.DefaultThresholds(), nil)
	got, _, err := c.Classify([]model.UploadedFile{
		upload("Luong V1.xlsx", []byte("x")),
		upload("broken.xlsx", []byte("not a workbook")),
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(got.Bonuses) != 1 || got.Bonuses[0].OriginalFilename != "broken.xlsx" {
		t.Fatalf("Bonuses=%v", got.Bonuses)
	}
}

func TestShapeStrategyScore(t *testing.T) {
	s := excel.NewRetroShapeStrategy(2)
	rows := [][]string{}
	for i := 0; i < 11; i++ {
		rows = append(rows, nil)
	}
	rows = append(rows,
		[]string{"1", "Nguyễn Văn A", "", "", "", "", "", "", "", "100", "10", "", ""},
		[]string{"2", "Trần Thị B", "", "", "", "", "", "", "", "100", "", "", ""},
		[]string{"x", "Lê Văn C", "", "", "", "", "", "", "", "100", "10", "", ""},
		[]string{"4", "123", "", "", "", "", "", "", "", "100", "10", "", ""},
	)
	if got := s.Score(rows); got != 1 {
		t.Fatalf("Score=%d, want 1", got)
	}
}
