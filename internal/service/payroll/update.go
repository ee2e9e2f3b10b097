package payroll

import (
	"math"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

// DefaultUpdateTitle column title for a bonus added to an existing report
const DefaultUpdateTitle = "Thưởng bổ sung"

// ApplyBonus adds one bonus column to a previously generated report.
//
// Person rows get the new amount joined by normalized name. Taxable income grows by that
// amount; insurance, dependents and deductions are kept as printed and only the derived
// columns are recomputed. Names in the bonus that are not in the report become new
// no-contract rows. Summary rows are rebuilt from the updated person rows.
func (c *Consolidator) ApplyBonus(rep *excel.ExistingReport, bonus model.BonusSource) *Consolidation {
	titles := append([]string(nil), rep.BonusTitles...)
	if !containsTitle(titles, bonus.Title) {
		titles = append(titles, bonus.Title)
	}

	var contract, noContract []model.Row
	known := make(map[model.NormalizedKey][]string)
	for _, r := range rep.Rows {
		switch r.Kind {
		case model.RowEmployee, model.RowNoContract:
			if r.Key != "" {
				known[r.Key] = append(known[r.Key], r.Name)
			}
		}
	}

	for _, r := range rep.Rows {
		switch r.Kind {
		case model.RowEmployee:
			contract = append(contract, c.rebase(r, bonus, titles))
		case model.RowDepartment:
			r.Bonuses = withAllTitles(r.Bonuses, titles)
			contract = append(contract, r)
		case model.RowNoContract:
			noContract = append(noContract, c.rebase(r, bonus, titles))
		}
	}

	for _, k := range bonus.Amounts.Keys() {
		name := bonus.Amounts.Name(k)
		if _, ok := known[k]; ok || k == "" || parser.StartsWithDigit(name) {
			continue
		}
		known[k] = []string{name}
		amount, _ := bonus.Amounts.Get(k)
		row := model.Row{
			Kind:    model.RowNoContract,
			Name:    name,
			Key:     k,
			Bonuses: withAllTitles(map[string]float64{bonus.Title: amount}, titles),
		}
		noContract = append(noContract, c.recompute(row, amount))
	}
	for i := range noContract {
		noContract[i].Ordinal = i + 1
	}

	warnings := collisionWarnings(onlyRepeated(known), Sources{Bonuses: []model.BonusSource{bonus}})
	return &Consolidation{
		Rows:        assemble(contract, noContract, titles),
		BonusTitles: titles,
		Warnings:    warnings,
	}
}

// rebase adds the new bonus amount to a person row and recomputes it.
func (c *Consolidator) rebase(r model.Row, bonus model.BonusSource, titles []string) model.Row {
	amount := 0.0
	if r.Key != "" {
		amount, _ = bonus.Amounts.Get(r.Key)
	}
	r.Bonuses = withAllTitles(copyBonuses(r.Bonuses), titles)
	r.Bonuses[bonus.Title] += amount
	return c.recompute(r, amount)
}

// recompute derives income, deduction, base and tax. The deduction is rebuilt from the
// printed components, and the tax policy follows the row kind.
func (c *Consolidator) recompute(r model.Row, added float64) model.Row {
	f := r.Figures
	f.TaxableIncome = model.RoundHalfUp(f.TaxableIncome + added)
	f.TotalDeduction = model.RoundHalfUp(f.PersonalDeduction + f.DependentDeduction + f.Insurance + f.RetroInsurance)
	f.TaxableBase = model.RoundHalfUp(math.Max(0, f.TaxableIncome-f.TotalDeduction))
	if r.Kind == model.RowNoContract {
		f.Tax = c.policy.NoContractTax(f.TaxableBase)
	} else {
		f.Tax = c.policy.ContractTax(f.TaxableBase)
	}
	r.Figures = f
	return r
}

func onlyRepeated(m map[model.NormalizedKey][]string) map[model.NormalizedKey][]string {
	out := make(map[model.NormalizedKey][]string)
	for k, v := range m {
		if len(v) > 1 {
			out[k] = v
		}
	}
	return out
}

func containsTitle(titles []string, t string) bool {
	for _, x := range titles {
		if x == t {
			return true
		}
	}
	return false
}

func copyBonuses(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
