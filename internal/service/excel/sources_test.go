package excel_test

import (
	"testing"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

func TestParseBonusSheet(t *testing.T) {
	rows := [][]string{
		{"STT", "Họ và tên", "Số tiền"},
		{"1", "Nguyễn Văn A", "1,000,000"},
		{"2", "", "500000"},
		{"3", "Trần Thị B", "0"},
		{"4", "Lê Văn C", "-100"},
		{"5", "  Phạm  Thị D ", "250000"},
		{"6", "Nguyen Van A", "2000000"},
	}

	src := excel.ParseBonusSheet(rows, "Tết")
	if src.Title != "Tết" {
		t.Fatalf("Title=%q", src.Title)
	}
	if src.Amounts.Len() != 2 {
		t.Fatalf("Len=%d, want 2", src.Amounts.Len())
	}

	a, ok := src.Amounts.Get(parser.NormalizeName("Nguyễn Văn A"))
	if !ok || a != 2000000 {
		t.Fatalf("amount for A=%v (ok=%v), want last value 2000000", a, ok)
	}
	d, ok := src.Amounts.Get("pham thi d")
	if !ok || d != 250000 {
		t.Fatalf("amount for D=%v (ok=%v)", d, ok)
	}

	cs := src.Amounts.Collisions()
	if len(cs) != 1 || len(cs[0].Names) != 2 {
		t.Fatalf("Collisions=%v, want one key with two spellings", cs)
	}
}

func TestParseBonusWorkbookTitles(t *testing.T) {
	wb := &excel.Workbook{Sheets: []excel.Sheet{
		{Name: "Thưởng_Tết", Rows: [][]string{{"STT"}, {"1", "Nguyễn Văn A", "100"}}},
		{Name: "  ", Rows: nil},
	}}

	got := excel.ParseBonusWorkbook(wb)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2 (empty sheets are kept)", len(got))
	}
	if got[0].Title != "Thưởng Tết" {
		t.Fatalf("Title[0]=%q", got[0].Title)
	}
	if got[1].Title != excel.DefaultBonusTitle {
		t.Fatalf("Title[1]=%q, want default", got[1].Title)
	}
	if got[1].Amounts.Len() != 0 {
		t.Fatalf("empty sheet has %d entries", got[1].Amounts.Len())
	}
}

func TestFilenameTitle(t *testing.T) {
	cases := map[string]string{
		"Thuong_Tet.2024.xlsx": "Thuong Tet",
		"/tmp/up/Le_2_9.xls":   "Le 2 9",
		".xlsx":                excel.DefaultBonusTitle,
		"Thưởng quý 3.xlsx":    "Thưởng quý 3",
	}
	for in, want := range cases {
		if got := excel.FilenameTitle(in); got != want {
			t.Fatalf("FilenameTitle(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestParseDependents(t *testing.T) {
	rows := [][]string{
		{"STT", "Họ và tên", "Số NPT"},
		{"1", "Nguyễn Văn A", "2"},
		{"2", "Trần Thị B", ""},
		{"3", "", "1"},
	}
	idx := excel.ParseDependents(rows)
	if idx.Len() != 2 {
		t.Fatalf("Len=%d, want 2", idx.Len())
	}
	if n, _ := idx.Get("nguyen van a"); n != 2 {
		t.Fatalf("dependents for A=%d, want 2", n)
	}
	if n, ok := idx.Get("tran thi b"); !ok || n != 0 {
		t.Fatalf("dependents for B=%d (ok=%v), want 0", n, ok)
	}
}

func TestParseRetro(t *testing.T) {
	rows := make([][]string, 11)
	rows = append(rows,
		[]string{"1", "Nguyễn Văn A", "", "", "", "", "", "", "", "3000000", "100000", "20000", "10000"},
		[]string{"", "Trần Thị B", "", "", "", "", "", "", "", "5000000", "1", "1", "1"},
		[]string{"3", "12345", "", "", "", "", "", "", "", "5000000", "1", "1", "1"},
		[]string{"4", "Lê Văn C", "", "", "", "", "", "", "", "2000000"},
	)

	idx := excel.ParseRetro(rows)
	if idx.Len() != 2 {
		t.Fatalf("Len=%d, want 2", idx.Len())
	}
	a, _ := idx.Get("nguyen van a")
	if a.TaxableIncome != 3000000 || a.Insurance != 130000 {
		t.Fatalf("A=%+v", a)
	}
	c, _ := idx.Get("le van c")
	if c.TaxableIncome != 2000000 || c.Insurance != 0 {
		t.Fatalf("C=%+v", c)
	}
}

func TestSourceReaderDegradesToEmpty(t *testing.T) {
	r := excel.NewSourceReader(nil)

	bonuses, warnings := r.Bonuses([]model.UploadedFile{upload("Thuong_Le.xlsx", []byte("broken"))})
	if len(bonuses) != 1 || bonuses[0].Title != "Thuong Le" || bonuses[0].Amounts.Len() != 0 {
		t.Fatalf("bonuses=%+v", bonuses)
	}
	if len(warnings) != 1 || warnings[0].Kind != model.WarnUnreadableSource {
		t.Fatalf("warnings=%v", warnings)
	}

	broken := upload("npt.xlsx", []byte("broken"))
	deps, warnings := r.Dependents(&broken)
	if deps.Len() != 0 || len(warnings) != 1 {
		t.Fatalf("dependents=%d warnings=%d", deps.Len(), len(warnings))
	}

	retro, warnings := r.Retro(nil)
	if retro.Len() != 0 || len(warnings) != 0 {
		t.Fatalf("nil retro file: entries=%d warnings=%d", retro.Len(), len(warnings))
	}
}

func TestSourceReaderBonusPerSheet(t *testing.T) {
	data := buildXLSX(t,
		sheetData{name: "Tet", rows: [][]interface{}{{"STT", "Họ tên", "Số tiền"}, {1, "Nguyễn Văn A", 1000000}}},
		sheetData{name: "Quy_3", rows: [][]interface{}{{"STT", "Họ tên", "Số tiền"}, {1, "Trần Thị B", 500000}}},
	)
	bonuses, warnings := excel.NewSourceReader(nil).Bonuses([]model.UploadedFile{upload("thuong.xlsx", data)})
	if len(warnings) != 0 {
		t.Fatalf("warnings=%v", warnings)
	}
	if len(bonuses) != 2 || bonuses[0].Title != "Tet" || bonuses[1].Title != "Quy 3" {
		t.Fatalf("bonuses=%+v", bonuses)
	}
	if v, _ := bonuses[1].Amounts.Get("tran thi b"); v != 500000 {
		t.Fatalf("amount=%v", v)
	}
}
