package model

import "time"

// RunKind which engine operation a run executed
type RunKind string

const (
	RunCalculate RunKind = "calculate"
	RunPreview   RunKind = "preview"
	RunUpdate    RunKind = "update"
)

// RunStatus lifecycle of a recorded run
type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunSucceeded  RunStatus = "succeeded"
	RunFailed     RunStatus = "failed"
)

// Run one engine invocation as kept in the run history
type Run struct {
	ID           string           `json:"id"`
	Kind         RunKind          `json:"kind"`
	Label        string           `json:"label"`
	Status       RunStatus        `json:"status"`
	Files        []FileAssignment `json:"files"`
	Employees    int              `json:"employees"`
	NoContract   int              `json:"noContract"`
	TotalTax     float64          `json:"totalTax"`
	Warnings     int              `json:"warnings"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

// RunStats figures stored when a run finishes
type RunStats struct {
	Employees  int
	NoContract int
	TotalTax   float64
	Warnings   int
}

// StatsOf collects run stats from a result
func StatsOf(r *Result) RunStats {
	s := r.Summarize()
	return RunStats{
		Employees:  s.TotalEmployees,
		NoContract: s.NoContractEmployees,
		TotalTax:   s.TotalTax,
		Warnings:   len(r.Warnings),
	}
}
