package payroll

import "github.com/thinhvd77/Tax/internal/model"

// fillDepartmentTotals writes onto each department row the rounded sums of the
// employees listed under it, up to the next department row.
func fillDepartmentTotals(rows []model.Row, bonusTitles []string) {
	dept := -1
	var acc model.Row
	flush := func() {
		if dept < 0 {
			return
		}
		acc.Round()
		rows[dept].Figures = acc.Figures
		rows[dept].Bonuses = withAllTitles(acc.Bonuses, bonusTitles)
	}
	for i := range rows {
		switch rows[i].Kind {
		case model.RowDepartment:
			flush()
			dept = i
			acc = model.Row{Bonuses: make(map[string]float64, len(bonusTitles))}
		case model.RowEmployee:
			if dept >= 0 {
				acc.Accumulate(rows[i])
			}
		}
	}
	flush()
}

// contractTotal "Tổng có HĐ lao động": sums of the department rows plus any employee
// listed before the first department. Headcount is the last employee STT.
func contractTotal(rows []model.Row, bonusTitles []string) model.Row {
	total := model.Row{
		Kind:    model.RowContractTotal,
		Name:    model.ContractTotalLabel,
		Bonuses: make(map[string]float64, len(bonusTitles)),
	}
	inDepartment := false
	for _, r := range rows {
		switch r.Kind {
		case model.RowDepartment:
			inDepartment = true
			total.Accumulate(r)
		case model.RowEmployee:
			if !inDepartment {
				total.Accumulate(r)
			}
			total.Headcount = r.Ordinal
		}
	}
	total.Round()
	total.Bonuses = withAllTitles(total.Bonuses, bonusTitles)
	return total
}

// noContractTotal "Tổng không có HĐ lao động": rounded sums, headcount is the row count
func noContractTotal(rows []model.Row, bonusTitles []string) model.Row {
	total := model.Row{
		Kind:    model.RowNoContractTotal,
		Name:    model.NoContractTotalLabel,
		Bonuses: make(map[string]float64, len(bonusTitles)),
	}
	for _, r := range rows {
		if r.Kind == model.RowNoContract {
			total.Accumulate(r)
			total.Headcount++
		}
	}
	total.Round()
	total.Bonuses = withAllTitles(total.Bonuses, bonusTitles)
	return total
}

// grandTotal "Tổng cộng": pairwise sum of the two group totals. A nil group counts as zero.
func grandTotal(contract, noContract *model.Row, bonusTitles []string) model.Row {
	total := model.Row{
		Kind:    model.RowGrandTotal,
		Name:    model.GrandTotalLabel,
		Bonuses: make(map[string]float64, len(bonusTitles)),
	}
	for _, g := range []*model.Row{contract, noContract} {
		if g == nil {
			continue
		}
		total.Accumulate(*g)
		total.Headcount += g.Headcount
	}
	total.Round()
	total.Bonuses = withAllTitles(total.Bonuses, bonusTitles)
	return total
}

// assemble orders the final report: contract block with department totals, its total,
// the no-contract block with its total when non-empty, then Tổng cộng.
func assemble(contract, noContract []model.Row, bonusTitles []string) []model.Row {
	fillDepartmentTotals(contract, bonusTitles)
	out := make([]model.Row, 0, len(contract)+len(noContract)+3)
	out = append(out, contract...)

	ct := contractTotal(contract, bonusTitles)
	out = append(out, ct)

	var nct *model.Row
	if len(noContract) > 0 {
		out = append(out, noContract...)
		t := noContractTotal(noContract, bonusTitles)
		nct = &t
		out = append(out, t)
	}
	return append(out, grandTotal(&ct, nct, bonusTitles))
}

// withAllTitles makes sure every bonus title has an entry
func withAllTitles(m map[string]float64, bonusTitles []string) map[string]float64 {
	if m == nil {
		m = make(map[string]float64, len(bonusTitles))
	}
	for _, t := range bonusTitles {
		if _, ok := m[t]; !ok {
			m[t] = 0
		}
	}
	return m
}
