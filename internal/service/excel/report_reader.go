package excel

import (
	"fmt"
	"strings"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
)

// ExistingReport a previously generated report read back into typed rows
type ExistingReport struct {
	SheetName   string
	Headers     []string
	BonusTitles []string
	Rows        []model.Row
}

// ReadReport parses a report produced by ReportWriter (or the older layout without
// ĐHKQ and truy lĩnh columns). Row 1 holds the headers. Any header outside the fixed
// layout is a bonus title.
//
// Row kinds are recovered from the layout: a numeric STT is a person, the three summary
// labels mark the totals, and any other named row without STT is a department. Person
// rows after the "Tổng có HĐ lao động" row are no-contract rows.
func ReadReport(data []byte, filename string) (*ExistingReport, error) {
	wb, err := OpenWorkbook(data, filename)
	if err != nil {
		return nil, err
	}
	if len(wb.Sheets) == 0 || len(wb.Sheets[0].Rows) == 0 {
		return nil, fmt.Errorf("report has no header row")
	}
	sheet := wb.Sheets[0]

	rep := &ExistingReport{SheetName: sheet.Name}
	col := make(map[string]int)
	for i, h := range sheet.Rows[0] {
		h = parser.NormalizeColumnName(h)
		rep.Headers = append(rep.Headers, h)
		if h == "" {
			continue
		}
		if _, dup := col[h]; dup {
			continue
		}
		col[h] = i
		if !IsFixedColumn(h) {
			rep.BonusTitles = append(rep.BonusTitles, h)
		}
	}
	if _, ok := col[ColName]; !ok {
		return nil, fmt.Errorf("report has no %q column", ColName)
	}

	num := func(row []string, header string) float64 {
		idx, ok := col[header]
		if !ok {
			return 0
		}
		return parser.ToNumber(getCell(row, idx))
	}
	text := func(row []string, header string) string {
		idx, ok := col[header]
		if !ok {
			return ""
		}
		return getCell(row, idx)
	}

	afterContract := false
	for _, raw := range sheet.Rows[1:] {
		name := text(raw, ColName)
		r := model.Row{
			Name: name,
			Figures: model.Figures{
				BaseSalary:         num(raw, ColBaseSalary),
				TrainingDeduction:  num(raw, ColTrainingDeduction),
				TaxableIncome:      num(raw, ColTaxableIncome),
				Insurance:          num(raw, ColInsurance),
				RetroInsurance:     num(raw, ColRetroInsurance),
				Dependents:         int(num(raw, ColDependents)),
				DependentDeduction: num(raw, ColDependentDeduction),
				PersonalDeduction:  num(raw, ColPersonalDeduction),
				TotalDeduction:     num(raw, ColTotalDeduction),
				TaxableBase:        num(raw, ColTaxableBase),
				Tax:                num(raw, ColTax),
			},
			Bonuses: make(map[string]float64, len(rep.BonusTitles)),
		}
		for _, title := range rep.BonusTitles {
			r.Bonuses[title] = num(raw, title)
		}

		ordinal, isPerson := parser.ParseOrdinal(text(raw, ColOrdinal))
		switch {
		case isPerson:
			r.Kind = model.RowEmployee
			if afterContract {
				r.Kind = model.RowNoContract
			}
			r.Ordinal = ordinal
			r.Position = text(raw, ColPosition)
			r.Key = parser.NormalizeName(name)
		case sameLabel(name, model.ContractTotalLabel):
			r.Kind = model.RowContractTotal
			r.Headcount = int(num(raw, ColPosition))
			afterContract = true
		case sameLabel(name, model.NoContractTotalLabel):
			r.Kind = model.RowNoContractTotal
			r.Headcount = int(num(raw, ColPosition))
		case sameLabel(name, model.GrandTotalLabel):
			r.Kind = model.RowGrandTotal
			r.Headcount = int(num(raw, ColPosition))
		case name != "":
			r.Kind = model.RowDepartment
		default:
			continue
		}
		rep.Rows = append(rep.Rows, r)
	}
	return rep, nil
}

func sameLabel(name, label string) bool {
	return strings.EqualFold(parser.NormalizeColumnName(name), label) || parser.FoldText(name) == parser.FoldText(label)
}
