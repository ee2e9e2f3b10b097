package excel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
)

// Shape thresholds. Empirical values, tunable through Thresholds.
const (
	RetroShapeFirstRow   = 11 // dòng 12
	RetroShapeEndRow     = 18
	RetroShapeMinRows    = 2
	PayrollShapeFirstRow = 6
	PayrollShapeEndRow   = 30
	PayrollShapeMinRows  = 5
)

// Thresholds minimum matching rows for the content-based strategies
type Thresholds struct {
	RetroMinRows   int
	PayrollMinRows int
}

// DefaultThresholds values observed on real exports
func DefaultThresholds() Thresholds {
	return Thresholds{RetroMinRows: RetroShapeMinRows, PayrollMinRows: PayrollShapeMinRows}
}

// Filename keyword sets
var (
	PayrollKeywords    = []string{"luong v1", "lương v1"}
	DependentsKeywords = []string{"npt", "phu_thuoc", "phụ thuộc", "phuthuoc", "nguoi_phu_thuoc", "nguoiphuthuoc", "dependents", "dependent"}
	RetroKeywords      = []string{"truylinh", "truy linh", "truy_linh"}
)

// Candidate an upload under classification. The first sheet is read lazily and cached.
type Candidate struct {
	File model.UploadedFile

	rows   [][]string
	err    error
	loaded bool
}

// FirstSheet raw rows of the candidate's first sheet
func (c *Candidate) FirstSheet() ([][]string, error) {
	if !c.loaded {
		c.loaded = true
		wb, err := OpenWorkbook(c.File.Buffer, c.File.OriginalFilename)
		if err != nil {
			c.err = err
		} else {
			c.rows = wb.FirstSheet()
		}
	}
	return c.rows, c.err
}

// Assignment working state shared by the strategies.
// Every candidate not yet given a role sits in Bonuses.
type Assignment struct {
	Payroll    *Candidate
	Dependents *Candidate
	Retro      *Candidate
	Bonuses    []*Candidate
	Ignored    []*Candidate
	Warnings   []model.Warning
}

// Has reports whether role is already filled
func (a *Assignment) Has(role model.FileRole) bool {
	return a.slot(role) != nil && *a.slot(role) != nil
}

// Take moves the bonus candidate at index i into role.
func (a *Assignment) Take(i int, role model.FileRole) {
	c := a.Bonuses[i]
	a.Bonuses = append(a.Bonuses[:i:i], a.Bonuses[i+1:]...)
	if role == model.FileRoleIgnored {
		a.Ignored = append(a.Ignored, c)
		return
	}
	*a.slot(role) = c
}

func (a *Assignment) slot(role model.FileRole) **Candidate {
	switch role {
	case model.FileRolePayroll:
		return &a.Payroll
	case model.FileRoleDependents:
		return &a.Dependents
	case model.FileRoleRetro:
		return &a.Retro
	}
	return nil
}

// Strategy assigns roles to files still sitting in the bonus list
type Strategy interface {
	Name() string
	Apply(a *Assignment)
}

// KeywordRule filename keywords for one role
type KeywordRule struct {
	Role     model.FileRole
	Keywords []string
}

// KeywordStrategy classifies by filename. Rules are tried in order and the first hit wins.
// When a role is already filled the later file is ignored and reported.
type KeywordStrategy struct {
	Rules []KeywordRule
}

// NewKeywordStrategy payroll, then dependents, then retro
func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{Rules: []KeywordRule{
		{Role: model.FileRolePayroll, Keywords: PayrollKeywords},
		{Role: model.FileRoleDependents, Keywords: DependentsKeywords},
		{Role: model.FileRoleRetro, Keywords: RetroKeywords},
	}}
}

func (s *KeywordStrategy) Name() string { return "filename" }

func (s *KeywordStrategy) Apply(a *Assignment) {
	for i := 0; i < len(a.Bonuses); {
		name := a.Bonuses[i].File.OriginalFilename
		role := model.FileRoleUnknown
		for _, rule := range s.Rules {
			if parser.ContainsAny(name, rule.Keywords) {
				role = rule.Role
				break
			}
		}
		if role == model.FileRoleUnknown {
			i++
			continue
		}
		if a.Has(role) {
			a.Warnings = append(a.Warnings, model.Warning{
				Kind:    model.WarnDuplicateRole,
				Source:  name,
				Message: fmt.Sprintf("%s file already chosen (%s), %s ignored", role, (*a.slot(role)).File.OriginalFilename, name),
			})
			a.Take(i, model.FileRoleIgnored)
			continue
		}
		a.Take(i, role)
	}
}

// ShapeStrategy classifies by the layout of the first sheet.
// Rows in [FirstRow, EndRow) that satisfy Match are counted; the first candidate reaching MinRows takes Role.
type ShapeStrategy struct {
	Label    string
	Role     model.FileRole
	FirstRow int
	EndRow   int
	MinRows  int
	Match    func(row []string) bool
}

func (s *ShapeStrategy) Name() string { return s.Label }

func (s *ShapeStrategy) Apply(a *Assignment) {
	if a.Has(s.Role) {
		return
	}
	for i, c := range a.Bonuses {
		rows, err := c.FirstSheet()
		if err != nil {
			continue
		}
		if s.Score(rows) >= s.MinRows {
			a.Take(i, s.Role)
			return
		}
	}
}

// Score number of matching rows inside the window
func (s *ShapeStrategy) Score(rows [][]string) int {
	end := s.EndRow
	if end > len(rows) {
		end = len(rows)
	}
	score := 0
	for i := s.FirstRow; i < end; i++ {
		if s.Match(rows[i]) {
			score++
		}
	}
	return score
}

// NewRetroShapeStrategy truy lĩnh layout: STT, name, at least two numbers in J..M
func NewRetroShapeStrategy(minRows int) *ShapeStrategy {
	return &ShapeStrategy{
		Label:    "retro-shape",
		Role:     model.FileRoleRetro,
		FirstRow: RetroShapeFirstRow,
		EndRow:   RetroShapeEndRow,
		MinRows:  minRows,
		Match:    personRowWithNumbers(9, 12, 2),
	}
}

// NewPayrollShapeStrategy payroll layout: STT, name, at least two numbers in M..S
func NewPayrollShapeStrategy(minRows int) *ShapeStrategy {
	return &ShapeStrategy{
		Label:    "payroll-shape",
		Role:     model.FileRolePayroll,
		FirstRow: PayrollShapeFirstRow,
		EndRow:   PayrollShapeEndRow,
		MinRows:  minRows,
		Match:    personRowWithNumbers(12, 18, 2),
	}
}

// personRowWithNumbers matches rows with an ordinal in A, a text name in B and
// at least atLeast numeric cells between columns from and to inclusive.
func personRowWithNumbers(from, to, atLeast int) func(row []string) bool {
	return func(row []string) bool {
		if _, ok := parser.ParseOrdinal(getCell(row, 0)); !ok {
			return false
		}
		if !parser.IsText(getCell(row, 1)) {
			return false
		}
		numbers := 0
		for c := from; c <= to; c++ {
			if _, ok := parser.ParseNumber(getCell(row, c)); ok {
				numbers++
			}
		}
		return numbers >= atLeast
	}
}

// Classifier runs its strategies in order over the uploads
type Classifier struct {
	strategies []Strategy
	log        *zap.Logger
}

// NewClassifier filename keywords first, then retro shape, then payroll shape
func NewClassifier(th Thresholds, log *zap.Logger) *Classifier {
	if th.RetroMinRows <= 0 {
		th.RetroMinRows = RetroShapeMinRows
	}
	if th.PayrollMinRows <= 0 {
		th.PayrollMinRows = PayrollShapeMinRows
	}
	return NewClassifierWith(log,
		NewKeywordStrategy(),
		NewRetroShapeStrategy(th.RetroMinRows),
		NewPayrollShapeStrategy(th.PayrollMinRows),
	)
}

// NewClassifierWith builds a classifier from explicit strategies
func NewClassifierWith(log *zap.Logger, strategies ...Strategy) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{strategies: strategies, log: log}
}

// Classify assigns a role to every upload. A missing payroll file is an input error.
func (c *Classifier) Classify(files []model.UploadedFile) (model.Classification, []model.Warning, error) {
	if len(files) == 0 {
		return model.Classification{}, nil, model.NewInputError("classify", model.ErrNoFiles)
	}

	a := &Assignment{Bonuses: make([]*Candidate, 0, len(files))}
	for _, f := range files {
		a.Bonuses = append(a.Bonuses, &Candidate{File: f})
	}

	for _, s := range c.strategies {
		before := len(a.Bonuses)
		s.Apply(a)
		if moved := before - len(a.Bonuses); moved > 0 {
			c.log.Debug("strategy assigned files", zap.String("strategy", s.Name()), zap.Int("files", moved))
		}
	}

	out := model.Classification{
		Payroll:    fileOf(a.Payroll),
		Dependents: fileOf(a.Dependents),
		Retro:      fileOf(a.Retro),
	}
	for _, b := range a.Bonuses {
		out.Bonuses = append(out.Bonuses, b.File)
	}
	for _, ig := range a.Ignored {
		out.Ignored = append(out.Ignored, ig.File)
	}

	c.log.Info("files classified",
		zap.String("payroll", filenameOf(out.Payroll)),
		zap.String("dependents", filenameOf(out.Dependents)),
		zap.String("retro", filenameOf(out.Retro)),
		zap.Int("bonus", len(out.Bonuses)),
		zap.Int("ignored", len(out.Ignored)),
	)

	if out.Payroll == nil {
		return out, a.Warnings, model.NewInputError("classify", model.ErrMissingPayroll)
	}
	return out, a.Warnings, nil
}

func fileOf(c *Candidate) *model.UploadedFile {
	if c == nil {
		return nil
	}
	f := c.File
	return &f
}

func filenameOf(f *model.UploadedFile) string {
	if f == nil {
		return ""
	}
	return f.OriginalFilename
}
