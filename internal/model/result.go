package model

// WarningKind category of a review warning
type WarningKind string

const (
	WarnNameCollision       WarningKind = "name_collision"       // several rows share one normalized name
	WarnPossibleMisspelling WarningKind = "possible_misspelling" // no-contract name close to a payroll name
	WarnDuplicateRole       WarningKind = "duplicate_role"       // a second file matched an already filled role
	WarnUnreadableSource    WarningKind = "unreadable_source"    // side source could not be read, treated as empty
)

// Warning something that needs manual review. Never blocks a run.
type Warning struct {
	Kind       WarningKind   `json:"kind"`
	Source     string        `json:"source,omitempty"`
	Key        NormalizedKey `json:"key,omitempty"`
	Names      []string      `json:"names,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Message    string        `json:"message"`
}

// Result output of one consolidation
type Result struct {
	RunID          string         `json:"runId"`
	Rows           []Row          `json:"rows"`
	BonusTitles    []string       `json:"bonusTitles"`
	Classification Classification `json:"classification"`
	Warnings       []Warning      `json:"warnings"`
}

// Summary aggregate figures of a result
type Summary struct {
	TotalEmployees      int     `json:"totalEmployees"`
	NoContractEmployees int     `json:"noContractEmployees"`
	TotalDepartments    int     `json:"totalDepartments"`
	TotalTax            float64 `json:"totalTax"`
	TotalSalary         float64 `json:"totalSalary"`
	TotalIncome         float64 `json:"totalIncome"`
}

// Summarize counts person and department rows and reads the money totals from the Tổng cộng row.
func (r *Result) Summarize() Summary {
	var s Summary
	for _, row := range r.Rows {
		switch row.Kind {
		case RowEmployee:
			s.TotalEmployees++
		case RowNoContract:
			s.NoContractEmployees++
		case RowDepartment:
			s.TotalDepartments++
		case RowGrandTotal:
			s.TotalTax = row.Tax
			s.TotalSalary = row.BaseSalary
			s.TotalIncome = row.TaxableIncome
		}
	}
	return s
}
