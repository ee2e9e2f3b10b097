package model

import "math"

// Labels written into the name column of summary rows.
const (
	ContractTotalLabel   = "Tổng có HĐ lao động"
	NoContractTotalLabel = "Tổng không có HĐ lao động"
	GrandTotalLabel      = "Tổng cộng"
)

// RowKind variant of a result row
type RowKind int

const (
	RowEmployee        RowKind = iota // nhân viên có hợp đồng
	RowDepartment                     // phòng ban, carries the subtotal of its employees
	RowContractTotal                  // Tổng có HĐ lao động
	RowNoContract                     // người không có hợp đồng
	RowNoContractTotal                // Tổng không có HĐ lao động
	RowGrandTotal                     // Tổng cộng
)

var rowKindNames = map[RowKind]string{
	RowEmployee:        "employee",
	RowDepartment:      "department",
	RowContractTotal:   "contract_total",
	RowNoContract:      "no_contract",
	RowNoContractTotal: "no_contract_total",
	RowGrandTotal:      "grand_total",
}

func (k RowKind) String() string {
	if s, ok := rowKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON
func (k RowKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsPerson reports whether the row describes one person and carries an ordinal.
func (k RowKind) IsPerson() bool {
	return k == RowEmployee || k == RowNoContract
}

// HasHeadcount reports whether the row fills the position column with a headcount.
func (k RowKind) HasHeadcount() bool {
	return k == RowContractTotal || k == RowNoContractTotal || k == RowGrandTotal
}

// Figures numeric columns shared by every row variant
type Figures struct {
	BaseSalary         float64 `json:"baseSalary"`         // LƯƠNG V1
	TrainingDeduction  float64 `json:"trainingDeduction"`  // ĐHKQ
	TaxableIncome      float64 `json:"taxableIncome"`      // TỔNG THU NHẬP CHỊU THUẾ
	Insurance          float64 `json:"insurance"`          // BHXH, BHYT, BHTN
	RetroInsurance     float64 `json:"retroInsurance"`     // BHXH, BHYT, BHTN TRUY LĨNH
	Dependents         int     `json:"dependents"`         // NGƯỜI PHỤ THUỘC SL
	DependentDeduction float64 `json:"dependentDeduction"` // SỐ TIỀN GIẢM TRỪ
	PersonalDeduction  float64 `json:"personalDeduction"`  // GIẢM TRỪ BẢN THÂN
	TotalDeduction     float64 `json:"totalDeduction"`     // TỔNG SỐ TIỀN GIẢM TRỪ
	TaxableBase        float64 `json:"taxableBase"`        // THU NHẬP TÍNH THUẾ
	Tax                float64 `json:"tax"`                // TỔNG THUẾ TNCN TẠM TÍNH
}

// Plus returns the column-wise sum
func (f Figures) Plus(o Figures) Figures {
	return Figures{
		BaseSalary:         f.BaseSalary + o.BaseSalary,
		TrainingDeduction:  f.TrainingDeduction + o.TrainingDeduction,
		TaxableIncome:      f.TaxableIncome + o.TaxableIncome,
		Insurance:          f.Insurance + o.Insurance,
		RetroInsurance:     f.RetroInsurance + o.RetroInsurance,
		Dependents:         f.Dependents + o.Dependents,
		DependentDeduction: f.DependentDeduction + o.DependentDeduction,
		PersonalDeduction:  f.PersonalDeduction + o.PersonalDeduction,
		TotalDeduction:     f.TotalDeduction + o.TotalDeduction,
		TaxableBase:        f.TaxableBase + o.TaxableBase,
		Tax:                f.Tax + o.Tax,
	}
}

// Rounded rounds every money column half up
func (f Figures) Rounded() Figures {
	return Figures{
		BaseSalary:         RoundHalfUp(f.BaseSalary),
		TrainingDeduction:  RoundHalfUp(f.TrainingDeduction),
		TaxableIncome:      RoundHalfUp(f.TaxableIncome),
		Insurance:          RoundHalfUp(f.Insurance),
		RetroInsurance:     RoundHalfUp(f.RetroInsurance),
		Dependents:         f.Dependents,
		DependentDeduction: RoundHalfUp(f.DependentDeduction),
		PersonalDeduction:  RoundHalfUp(f.PersonalDeduction),
		TotalDeduction:     RoundHalfUp(f.TotalDeduction),
		TaxableBase:        RoundHalfUp(f.TaxableBase),
		Tax:                RoundHalfUp(f.Tax),
	}
}

// Row one line of the consolidated report
type Row struct {
	Kind      RowKind            `json:"kind"`
	Ordinal   int                `json:"ordinal,omitempty"`   // STT, person rows only
	Name      string             `json:"name"`                // HỌ VÀ TÊN or summary label
	Position  string             `json:"position,omitempty"`  // CHỨC VỤ, employees only
	Headcount int                `json:"headcount,omitempty"` // total rows only
	Key       NormalizedKey      `json:"key,omitempty"`
	Bonuses   map[string]float64 `json:"bonuses"`
	Figures
}

// TotalBonus sum of all bonus columns
func (r Row) TotalBonus() float64 {
	total := 0.0
	for _, v := range r.Bonuses {
		total += v
	}
	return total
}

// Accumulate adds the numeric columns of o into r
func (r *Row) Accumulate(o Row) {
	r.Figures = r.Figures.Plus(o.Figures)
	if r.Bonuses == nil {
		r.Bonuses = make(map[string]float64, len(o.Bonuses))
	}
	for title, v := range o.Bonuses {
		r.Bonuses[title] += v
	}
}

// Round rounds the figures and bonus amounts in place
func (r *Row) Round() {
	r.Figures = r.Figures.Rounded()
	for title, v := range r.Bonuses {
		r.Bonuses[title] = RoundHalfUp(v)
	}
}

// RoundHalfUp rounds to the nearest integer, halves towards +Inf.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
