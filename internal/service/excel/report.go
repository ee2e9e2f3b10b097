package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/model"
)

// DefaultSheetName sheet name of generated reports
const DefaultSheetName = "Kết quả tính thuế"

// Report column headers
const (
	ColOrdinal            = "STT"
	ColName               = "HỌ VÀ TÊN"
	ColPosition           = "CHỨC VỤ"
	ColBaseSalary         = "LƯƠNG V1"
	ColTrainingDeduction  = "ĐHKQ"
	ColTaxableIncome      = "TỔNG THU NHẬP CHỊU THUẾ"
	ColInsurance          = "BHXH, BHYT, BHTN"
	ColRetroInsurance     = "BHXH, BHYT, BHTN TRUY LĨNH"
	ColDependents         = "NGƯỜI PHỤ THUỘC SL"
	ColDependentDeduction = "SỐ TIỀN GIẢM TRỪ"
	ColPersonalDeduction  = "GIẢM TRỪ BẢN THÂN"
	ColTotalDeduction     = "TỔNG SỐ TIỀN GIẢM TRỪ"
	ColTaxableBase        = "THU NHẬP TÍNH THUẾ"
	ColTax                = "TỔNG THUẾ TNCN TẠM TÍNH"
)

var (
	leadingColumns  = []string{ColOrdinal, ColName, ColPosition, ColBaseSalary, ColTrainingDeduction}
	trailingColumns = []string{
		ColTaxableIncome, ColInsurance, ColRetroInsurance, ColDependents,
		ColDependentDeduction, ColPersonalDeduction, ColTotalDeduction, ColTaxableBase, ColTax,
	}
	// money columns besides the bonus titles
	currencyColumns = map[string]bool{
		ColBaseSalary:         true,
		ColTrainingDeduction:  true,
		ColTaxableIncome:      true,
		ColInsurance:          true,
		ColRetroInsurance:     true,
		ColDependentDeduction: true,
		ColPersonalDeduction:  true,
		ColTotalDeduction:     true,
		ColTaxableBase:        true,
		ColTax:                true,
	}
)

// IsFixedColumn reports whether header belongs to the fixed report layout
func IsFixedColumn(header string) bool {
	for _, c := range leadingColumns {
		if c == header {
			return true
		}
	}
	for _, c := range trailingColumns {
		if c == header {
			return true
		}
	}
	return false
}

// Columns header row for the given bonus titles
func Columns(bonusTitles []string) []string {
	cols := make([]string, 0, len(leadingColumns)+len(bonusTitles)+len(trailingColumns))
	cols = append(cols, leadingColumns...)
	cols = append(cols, bonusTitles...)
	cols = append(cols, trailingColumns...)
	return cols
}

// Record serializes a row in Columns order. Summary rows leave STT empty;
// total rows put their headcount in the CHỨC VỤ column.
func Record(row model.Row, bonusTitles []string) []interface{} {
	rec := make([]interface{}, 0, len(leadingColumns)+len(bonusTitles)+len(trailingColumns))

	var ordinal, position interface{} = "", ""
	switch {
	case row.Kind.IsPerson():
		ordinal = row.Ordinal
		position = row.Position
	case row.Kind.HasHeadcount():
		position = row.Headcount
	}

	rec = append(rec, ordinal, row.Name, position, row.BaseSalary, row.TrainingDeduction)
	for _, title := range bonusTitles {
		rec = append(rec, row.Bonuses[title])
	}
	rec = append(rec,
		row.TaxableIncome,
		row.Insurance,
		row.RetroInsurance,
		row.Dependents,
		row.DependentDeduction,
		row.PersonalDeduction,
		row.TotalDeduction,
		row.TaxableBase,
		row.Tax,
	)
	return rec
}

// RecordMap keyed view of Record, used for JSON previews
func RecordMap(row model.Row, bonusTitles []string) map[string]interface{} {
	cols := Columns(bonusTitles)
	rec := Record(row, bonusTitles)
	out := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		out[c] = rec[i]
	}
	return out
}

// ReportWriter turns result rows into a styled single-sheet workbook
type ReportWriter struct {
	log *zap.Logger
}

// NewReportWriter creates a writer
func NewReportWriter(log *zap.Logger) *ReportWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportWriter{log: log}
}

type reportStyles struct {
	header, bold, money, boldMoney int
}

func newReportStyles(f *excelize.File) (reportStyles, error) {
	var (
		s   reportStyles
		err error
	)
	// 3 is the built-in "#,##0" format
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: 3}); err != nil {
		return s, err
	}
	if s.boldMoney, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 3}); err != nil {
		return s, err
	}
	return s, nil
}

// Build writes rows under a header row and returns the xlsx bytes.
func (w *ReportWriter) Build(rows []model.Row, bonusTitles []string, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newReportStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	cols := Columns(bonusTitles)
	money := make([]bool, len(cols))
	titles := make(map[string]bool, len(bonusTitles))
	for _, t := range bonusTitles {
		titles[t] = true
	}
	for i, c := range cols {
		money[i] = currencyColumns[c] || titles[c]
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", styles.header); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		excelRow := i + 2
		rec := Record(row, bonusTitles)
		start, _ := excelize.CoordinatesToCellName(1, excelRow)
		if err := f.SetSheetRow(sheetName, start, &rec); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", excelRow, err)
		}

		bold := !row.Kind.IsPerson()
		for c := range cols {
			style := 0
			switch {
			case bold && money[c]:
				style = styles.boldMoney
			case bold:
				style = styles.bold
			case money[c]:
				style = styles.money
			}
			if style == 0 {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, excelRow)
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return nil, fmt.Errorf("failed to style %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 6)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	_ = f.SetColWidth(sheetName, "C", "C", 18)
	if len(cols) > 3 {
		from, _ := excelize.ColumnNumberToName(4)
		_ = f.SetColWidth(sheetName, from, lastCol, 16)
	}
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, XSplit: 2, YSplit: 1, TopLeftCell: "C2", ActivePane: "bottomRight"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	w.log.Debug("report built", zap.Int("rows", len(rows)), zap.Int("columns", len(cols)))
	return buf.Bytes(), nil
}
