package payroll

import (
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/thinhvd77/Tax/internal/calculator"
	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
)

// Fixed layout of the payroll export (0-based indexes).
const (
	PayrollHeaderRows = 6
	colOrdinal        = 0
	colName           = 1
	colPosition       = 2
	colBaseFrom       = 12 // M, N, O
	colBaseTo         = 14
	colTraining       = 15 // P: ĐHKQ
	colInsuranceFrom  = 16 // Q, R, S
	colInsuranceTo    = 18
)

// endMarker name cell text that ends the employee list
const endMarker = "tổng cộng"

// Sources side data joined onto the payroll by normalized name
type Sources struct {
	Bonuses    []model.BonusSource
	Dependents *model.Index[int]
	Retro      *model.Index[model.RetroEntry]
}

// Consolidation rows and columns produced by Consolidate
type Consolidation struct {
	Rows        []model.Row
	BonusTitles []string
	Warnings    []model.Warning
}

// Consolidator PayrollConsolidator: payroll sheet + side sources -> report rows
type Consolidator struct {
	policy calculator.Policy
	log    *zap.Logger
}

// NewConsolidator creates a consolidator
func NewConsolidator(policy calculator.Policy, log *zap.Logger) *Consolidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consolidator{policy: policy, log: log}
}

// bonusTable bonus sources merged by title, titles in first-seen order
type bonusTable struct {
	titles  []string
	amounts map[string]map[model.NormalizedKey]float64
	sources []model.BonusSource
}

func newBonusTable(sources []model.BonusSource) *bonusTable {
	bt := &bonusTable{amounts: make(map[string]map[model.NormalizedKey]float64), sources: sources}
	for _, src := range sources {
		m, ok := bt.amounts[src.Title]
		if !ok {
			m = make(map[model.NormalizedKey]float64)
			bt.amounts[src.Title] = m
			bt.titles = append(bt.titles, src.Title)
		}
		for _, k := range src.Amounts.Keys() {
			v, _ := src.Amounts.Get(k)
			m[k] += v
		}
	}
	return bt
}

// lookup amount per title for key, every title present
func (bt *bonusTable) lookup(key model.NormalizedKey) (map[string]float64, float64) {
	out := make(map[string]float64, len(bt.titles))
	total := 0.0
	for _, t := range bt.titles {
		v := 0.0
		if key != "" {
			v = bt.amounts[t][key]
		}
		out[t] = v
		total += v
	}
	return out, total
}

// Consolidate joins the payroll rows (first sheet, raw) with the side sources.
func (c *Consolidator) Consolidate(payroll [][]string, src Sources) *Consolidation {
	bonuses := newBonusTable(src.Bonuses)
	out := &Consolidation{BonusTitles: bonuses.titles}

	var contract []model.Row
	payrollKeys := make(map[model.NormalizedKey][]string)

	for i := PayrollHeaderRows; i < len(payroll); i++ {
		raw := payroll[i]
		name := cellAt(raw, colName)
		if isEndMarker(name) {
			break
		}
		ordinalCell := cellAt(raw, colOrdinal)
		if ordinalCell == "" {
			if name != "" {
				contract = append(contract, model.Row{Kind: model.RowDepartment, Name: name})
			}
			continue
		}
		ordinal, ok := parser.ParseOrdinal(ordinalCell)
		if !ok {
			continue
		}
		row := c.employeeRow(raw, ordinal, name, bonuses, src)
		if row.Key != "" {
			payrollKeys[row.Key] = append(payrollKeys[row.Key], name)
		}
		contract = append(contract, row)
	}

	noContract := c.noContractRows(payrollKeys, bonuses, src)
	out.Rows = assemble(contract, noContract, bonuses.titles)
	out.Warnings = collisionWarnings(payrollKeys, src)
	out.Warnings = append(out.Warnings, misspellingWarnings(payrollKeys, noContract)...)

	c.log.Info("payroll consolidated",
		zap.Int("employees", countKind(out.Rows, model.RowEmployee)),
		zap.Int("departments", countKind(out.Rows, model.RowDepartment)),
		zap.Int("no_contract", len(noContract)),
		zap.Int("bonus_titles", len(bonuses.titles)),
		zap.Int("warnings", len(out.Warnings)),
	)
	return out
}

// employeeRow applies the contract formulas to one payroll line.
func (c *Consolidator) employeeRow(raw []string, ordinal int, name string, bonuses *bonusTable, src Sources) model.Row {
	key := parser.NormalizeName(name)

	var (
		dependents int
		retro      model.RetroEntry
	)
	if key != "" {
		dependents, _ = src.Dependents.Get(key)
		retro, _ = src.Retro.Get(key)
	}
	perTitle, totalBonus := bonuses.lookup(key)

	base := sumCols(raw, colBaseFrom, colBaseTo)
	training := parser.ToNumber(cellAt(raw, colTraining))
	insurance := model.RoundHalfUp(sumCols(raw, colInsuranceFrom, colInsuranceTo))

	f := model.Figures{
		BaseSalary:        base,
		TrainingDeduction: training,
		Insurance:         insurance,
		RetroInsurance:    retro.Insurance,
		Dependents:        dependents,
		PersonalDeduction: c.policy.PersonalDeduction,
	}
	f.TaxableIncome = model.RoundHalfUp(base+totalBonus+retro.TaxableIncome) - training
	f.DependentDeduction = float64(dependents) * c.policy.DependentDeduction
	f.TotalDeduction = model.RoundHalfUp(f.PersonalDeduction + f.DependentDeduction + f.Insurance + f.RetroInsurance)
	f.TaxableBase = model.RoundHalfUp(math.Max(0, f.TaxableIncome-f.TotalDeduction))
	f.Tax = c.policy.ContractTax(f.TaxableBase)

	return model.Row{
		Kind:     model.RowEmployee,
		Ordinal:  ordinal,
		Name:     name,
		Position: cellAt(raw, colPosition),
		Key:      key,
		Bonuses:  perTitle,
		Figures:  f,
	}
}

// noContractRows people found in a side source but not on the payroll.
// Order: bonus sources, then dependents, then retro; each in source row order.
func (c *Consolidator) noContractRows(payrollKeys map[model.NormalizedKey][]string, bonuses *bonusTable, src Sources) []model.Row {
	seen := make(map[model.NormalizedKey]bool)
	var rows []model.Row

	consider := func(key model.NormalizedKey, name string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		if _, onPayroll := payrollKeys[key]; onPayroll {
			return
		}
		if parser.StartsWithDigit(name) {
			return
		}
		rows = append(rows, c.noContractRow(len(rows)+1, key, name, bonuses, src))
	}

	for _, b := range bonuses.sources {
		for _, k := range b.Amounts.Keys() {
			consider(k, b.Amounts.Name(k))
		}
	}
	for _, k := range src.Dependents.Keys() {
		consider(k, src.Dependents.Name(k))
	}
	for _, k := range src.Retro.Keys() {
		consider(k, src.Retro.Name(k))
	}
	return rows
}

// noContractRow no personal or dependent allowance, no ordinary insurance, flat tax.
func (c *Consolidator) noContractRow(ordinal int, key model.NormalizedKey, name string, bonuses *bonusTable, src Sources) model.Row {
	dependents, _ := src.Dependents.Get(key)
	retro, _ := src.Retro.Get(key)
	perTitle, totalBonus := bonuses.lookup(key)

	f := model.Figures{
		RetroInsurance: retro.Insurance,
		Dependents:     dependents,
	}
	f.TaxableIncome = model.RoundHalfUp(totalBonus + retro.TaxableIncome)
	f.TotalDeduction = model.RoundHalfUp(f.RetroInsurance)
	f.TaxableBase = model.RoundHalfUp(math.Max(0, f.TaxableIncome-f.TotalDeduction))
	f.Tax = c.policy.NoContractTax(f.TaxableBase)

	return model.Row{
		Kind:    model.RowNoContract,
		Ordinal: ordinal,
		Name:    strings.TrimSpace(name),
		Key:     key,
		Bonuses: perTitle,
		Figures: f,
	}
}

func isEndMarker(name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(norm.NFC.String(strings.ToLower(name)), endMarker)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func sumCols(row []string, from, to int) float64 {
	total := 0.0
	for i := from; i <= to; i++ {
		total += parser.ToNumber(cellAt(row, i))
	}
	return total
}

func countKind(rows []model.Row, kind model.RowKind) int {
	n := 0
	for _, r := range rows {
		if r.Kind == kind {
			n++
		}
	}
	return n
}
