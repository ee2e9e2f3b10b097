package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/calculator"
	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/service/excel"
)

// XLSXContentType MIME type of generated reports
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UpdatedReportFilename filename of a report produced by Update
const UpdatedReportFilename = "Bang_luong_cap_nhat.xlsx"

// RunStore run history sink. Failures to record are logged and never fail a run.
type RunStore interface {
	CreateRun(ctx context.Context, run model.Run) error
	CompleteRun(ctx context.Context, id string, stats model.RunStats, files []model.FileAssignment) error
	FailRun(ctx context.Context, id string, message string) error
}

// Report a finished spreadsheet
type Report struct {
	RunID       string
	Buffer      []byte
	Filename    string
	ContentType string
	Warnings    []model.Warning
}

// Preview JSON view of a consolidation without the spreadsheet
type Preview struct {
	RunID       string                   `json:"runId"`
	Label       string                   `json:"label,omitempty"`
	TotalRows   int                      `json:"totalRows"`
	Data        []map[string]interface{} `json:"data"`
	Rows        []model.Row              `json:"rows"`
	BonusTitles []string                 `json:"bonusTitles"`
	Summary     model.Summary            `json:"summary"`
	Columns     []string                 `json:"columns"`
	Files       []model.FileAssignment   `json:"files"`
	Warnings    []model.Warning          `json:"warnings"`
}

// Options Service configuration
type Options struct {
	Policy     calculator.Policy
	Thresholds excel.Thresholds
	SheetName  string
	Runs       RunStore
	Logger     *zap.Logger
}

// Service runs the engine end to end: classify, parse, consolidate, write.
type Service struct {
	classifier   *excel.Classifier
	sources      *excel.SourceReader
	consolidator *Consolidator
	writer       *excel.ReportWriter
	runs         RunStore
	sheetName    string
	log          *zap.Logger
}

// NewService creates a service. Zero-valued options fall back to defaults.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := opts.Policy
	if policy.PersonalDeduction == 0 && policy.DependentDeduction == 0 && policy.NoContractRate.IsZero() {
		policy = calculator.DefaultPolicy()
	}
	sheet := opts.SheetName
	if sheet == "" {
		sheet = excel.DefaultSheetName
	}
	return &Service{
		classifier:   excel.NewClassifier(opts.Thresholds, log.Named("classifier")),
		sources:      excel.NewSourceReader(log.Named("sources")),
		consolidator: NewConsolidator(policy, log.Named("consolidator")),
		writer:       excel.NewReportWriter(log.Named("writer")),
		runs:         opts.Runs,
		sheetName:    sheet,
		log:          log,
	}
}

// Process classifies the uploads and consolidates them. No history is recorded.
func (s *Service) Process(files []model.UploadedFile) (*model.Result, error) {
	return s.process(uuid.New().String(), files)
}

func (s *Service) process(runID string, files []model.UploadedFile) (*model.Result, error) {
	cls, warnings, err := s.classifier.Classify(files)
	if err != nil {
		return nil, err
	}

	payroll, err := excel.OpenWorkbook(cls.Payroll.Buffer, cls.Payroll.OriginalFilename)
	if err != nil {
		return nil, model.NewInputError("read payroll", fmt.Errorf("%w: %v", model.ErrUnreadablePayroll, err))
	}

	bonuses, w := s.sources.Bonuses(cls.Bonuses)
	warnings = append(warnings, w...)
	dependents, w := s.sources.Dependents(cls.Dependents)
	warnings = append(warnings, w...)
	retro, w := s.sources.Retro(cls.Retro)
	warnings = append(warnings, w...)

	out := s.consolidator.Consolidate(payroll.FirstSheet(), Sources{
		Bonuses:    bonuses,
		Dependents: dependents,
		Retro:      retro,
	})
	warnings = append(warnings, out.Warnings...)

	return &model.Result{
		RunID:          runID,
		Rows:           out.Rows,
		BonusTitles:    out.BonusTitles,
		Classification: cls,
		Warnings:       warnings,
	}, nil
}

// Calculate consolidates the uploads and returns the report as xlsx bytes.
// label is used in the filename, e.g. the month.
func (s *Service) Calculate(ctx context.Context, files []model.UploadedFile, label string) (*Report, error) {
	runID := s.startRun(ctx, model.RunCalculate, label, files)
	res, err := s.process(runID, files)
	if err != nil {
		s.failRun(ctx, runID, err)
		return nil, err
	}
	buf, err := s.writer.Build(res.Rows, res.BonusTitles, s.sheetName)
	if err != nil {
		s.failRun(ctx, runID, err)
		return nil, fmt.Errorf("build report: %w", err)
	}
	s.completeRun(ctx, runID, model.StatsOf(res), res.Classification.Assignments())
	return &Report{
		RunID:       runID,
		Buffer:      buf,
		Filename:    ReportFilename(label),
		ContentType: XLSXContentType,
		Warnings:    res.Warnings,
	}, nil
}

// Preview consolidates the uploads and returns rows plus a summary instead of a file.
func (s *Service) Preview(ctx context.Context, files []model.UploadedFile, label string) (*Preview, error) {
	runID := s.startRun(ctx, model.RunPreview, label, files)
	res, err := s.process(runID, files)
	if err != nil {
		s.failRun(ctx, runID, err)
		return nil, err
	}
	s.completeRun(ctx, runID, model.StatsOf(res), res.Classification.Assignments())

	data := make([]map[string]interface{}, 0, len(res.Rows))
	for _, r := range res.Rows {
		data = append(data, excel.RecordMap(r, res.BonusTitles))
	}
	return &Preview{
		RunID:       runID,
		Label:       label,
		TotalRows:   len(res.Rows),
		Data:        data,
		Rows:        res.Rows,
		BonusTitles: res.BonusTitles,
		Summary:     res.Summarize(),
		Columns:     excel.Columns(res.BonusTitles),
		Files:       res.Classification.Assignments(),
		Warnings:    res.Warnings,
	}, nil
}

// Update adds a bonus file to an existing report. An empty title uses "Thưởng bổ sung".
func (s *Service) Update(ctx context.Context, existing, newBonus *model.UploadedFile, title string) (*Report, error) {
	if existing == nil || newBonus == nil || len(existing.Buffer) == 0 || len(newBonus.Buffer) == 0 {
		return nil, model.NewInputError("update", model.ErrMissingUpdateInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultUpdateTitle
	}

	files := []model.UploadedFile{*existing, *newBonus}
	runID := s.startRun(ctx, model.RunUpdate, title, files)

	rep, err := excel.ReadReport(existing.Buffer, existing.OriginalFilename)
	if err != nil {
		err = model.NewInputError("read report", fmt.Errorf("%w: %v", model.ErrUnreadableReport, err))
		s.failRun(ctx, runID, err)
		return nil, err
	}

	var warnings []model.Warning
	wb, err := excel.OpenWorkbook(newBonus.Buffer, newBonus.OriginalFilename)
	if err != nil {
		s.log.Warn("bonus file unreadable, treated as empty", zap.String("file", newBonus.OriginalFilename), zap.Error(err))
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnUnreadableSource,
			Source:  newBonus.OriginalFilename,
			Message: err.Error(),
		})
	}
	bonus := excel.ParseBonusSheet(wb.FirstSheet(), title)

	out := s.consolidator.ApplyBonus(rep, bonus)
	warnings = append(warnings, out.Warnings...)

	buf, err := s.writer.Build(out.Rows, out.BonusTitles, s.sheetName)
	if err != nil {
		s.failRun(ctx, runID, err)
		return nil, fmt.Errorf("build report: %w", err)
	}

	res := &model.Result{RunID: runID, Rows: out.Rows, BonusTitles: out.BonusTitles, Warnings: warnings}
	s.completeRun(ctx, runID, model.StatsOf(res), []model.FileAssignment{
		{Filename: existing.OriginalFilename, Role: model.FileRolePayroll, Size: existing.Size},
		{Filename: newBonus.OriginalFilename, Role: model.FileRoleBonus, Size: newBonus.Size},
	})
	s.log.Info("report updated", zap.String("run_id", runID), zap.String("title", title), zap.Int("rows", len(out.Rows)))

	return &Report{
		RunID:       runID,
		Buffer:      buf,
		Filename:    UpdatedReportFilename,
		ContentType: XLSXContentType,
		Warnings:    warnings,
	}, nil
}

// ReportFilename "Bang_luong_<label>.xlsx"
func ReportFilename(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "ket_qua"
	}
	label = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(label)
	return "Bang_luong_" + label + ".xlsx"
}

func (s *Service) startRun(ctx context.Context, kind model.RunKind, label string, files []model.UploadedFile) string {
	id := uuid.New().String()
	if s.runs == nil {
		return id
	}
	assignments := make([]model.FileAssignment, 0, len(files))
	for _, f := range files {
		assignments = append(assignments, model.FileAssignment{Filename: f.OriginalFilename, Size: f.Size})
	}
	if err := s.runs.CreateRun(ctx, model.Run{ID: id, Kind: kind, Label: label, Files: assignments}); err != nil {
		s.log.Warn("failed to record run", zap.String("run_id", id), zap.Error(err))
	}
	return id
}

func (s *Service) completeRun(ctx context.Context, id string, stats model.RunStats, files []model.FileAssignment) {
	if s.runs == nil {
		return
	}
	if err := s.runs.CompleteRun(ctx, id, stats, files); err != nil {
		s.log.Warn("failed to complete run", zap.String("run_id", id), zap.Error(err))
	}
}

func (s *Service) failRun(ctx context.Context, id string, cause error) {
	s.log.Warn("run failed", zap.String("run_id", id), zap.Error(cause))
	if s.runs == nil {
		return
	}
	if err := s.runs.FailRun(ctx, id, cause.Error()); err != nil {
		s.log.Warn("failed to record run failure", zap.String("run_id", id), zap.Error(err))
	}
}
