package excel

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/parser"
)

// RetroFirstRow first data row of a truy lĩnh export (row 12)
const RetroFirstRow = 11

// DefaultBonusTitle title used for a sheet without a name
const DefaultBonusTitle = "Thưởng"

// ParseBonusSheet reads name in B and amount in C from the second row on.
// Rows without a name or with a non-positive amount are skipped.
func ParseBonusSheet(rows [][]string, title string) model.BonusSource {
	src := model.BonusSource{Title: title, Amounts: model.NewIndex[float64]()}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := getCell(row, 1)
		amount := parser.ToNumber(getCell(row, 2))
		if name == "" || amount <= 0 {
			continue
		}
		src.Amounts.Put(parser.NormalizeName(name), name, amount)
	}
	return src
}

// ParseBonusWorkbook one bonus source per sheet, titled by the sheet name.
func ParseBonusWorkbook(wb *Workbook) []model.BonusSource {
	if wb == nil {
		return nil
	}
	out := make([]model.BonusSource, 0, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		out = append(out, ParseBonusSheet(sheet.Rows, SheetTitle(sheet.Name)))
	}
	return out
}

// SheetTitle bonus title from a sheet name: underscores become spaces
func SheetTitle(sheetName string) string {
	title := strings.TrimSpace(strings.ReplaceAll(sheetName, "_", " "))
	if title == "" {
		return DefaultBonusTitle
	}
	return title
}

// FilenameTitle bonus title from an upload name: text before the first dot, underscores become spaces
func FilenameTitle(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	title := strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if title == "" {
		return DefaultBonusTitle
	}
	return title
}

// ParseDependents reads name in B and dependent count in C from the second row on.
func ParseDependents(rows [][]string) *model.Index[int] {
	idx := model.NewIndex[int]()
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := getCell(row, 1)
		if name == "" {
			continue
		}
		count := int(parser.ToNumber(getCell(row, 2)))
		idx.Put(parser.NormalizeName(name), name, count)
	}
	return idx
}

// ParseRetro reads a truy lĩnh export: STT in A, name in B, taxable income in J,
// insurance components in K, L and M.
func ParseRetro(rows [][]string) *model.Index[model.RetroEntry] {
	idx := model.NewIndex[model.RetroEntry]()
	for i := RetroFirstRow; i < len(rows); i++ {
		row := rows[i]
		if getCell(row, 0) == "" {
			continue
		}
		name := getCell(row, 1)
		if !parser.IsText(name) {
			continue
		}
		entry := model.RetroEntry{
			TaxableIncome: parser.ToNumber(getCell(row, 9)),
			Insurance: parser.ToNumber(getCell(row, 10)) +
				parser.ToNumber(getCell(row, 11)) +
				parser.ToNumber(getCell(row, 12)),
		}
		idx.Put(parser.NormalizeName(name), name, entry)
	}
	return idx
}

// SourceReader opens side-source uploads. A file that cannot be read yields an
// empty source and a warning instead of an error.
type SourceReader struct {
	log *zap.Logger
}

// NewSourceReader creates a reader
func NewSourceReader(log *zap.Logger) *SourceReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &SourceReader{log: log}
}

// Bonuses parses every bonus upload in order. Each sheet of a workbook is its own source;
// an unreadable file keeps one empty source titled after the filename.
func (r *SourceReader) Bonuses(files []model.UploadedFile) ([]model.BonusSource, []model.Warning) {
	var (
		out      []model.BonusSource
		warnings []model.Warning
	)
	for _, f := range files {
		wb, err := OpenWorkbook(f.Buffer, f.OriginalFilename)
		if err == nil && len(wb.Sheets) > 0 {
			sheets := ParseBonusWorkbook(wb)
			for _, s := range sheets {
				r.log.Debug("bonus sheet parsed",
					zap.String("file", f.OriginalFilename),
					zap.String("title", s.Title),
					zap.Int("entries", s.Amounts.Len()))
			}
			out = append(out, sheets...)
			continue
		}
		warnings = append(warnings, r.unreadable(f, err))
		out = append(out, ParseBonusSheet(nil, FilenameTitle(f.OriginalFilename)))
	}
	return out, warnings
}

// Dependents parses the NPT upload; nil file means no dependents.
func (r *SourceReader) Dependents(f *model.UploadedFile) (*model.Index[int], []model.Warning) {
	if f == nil {
		return model.NewIndex[int](), nil
	}
	wb, err := OpenWorkbook(f.Buffer, f.OriginalFilename)
	if err != nil {
		return model.NewIndex[int](), []model.Warning{r.unreadable(*f, err)}
	}
	idx := ParseDependents(wb.FirstSheet())
	r.log.Debug("dependents parsed", zap.String("file", f.OriginalFilename), zap.Int("entries", idx.Len()))
	return idx, nil
}

// Retro parses the truy lĩnh upload; nil file means no retro payments.
func (r *SourceReader) Retro(f *model.UploadedFile) (*model.Index[model.RetroEntry], []model.Warning) {
	if f == nil {
		return model.NewIndex[model.RetroEntry](), nil
	}
	wb, err := OpenWorkbook(f.Buffer, f.OriginalFilename)
	if err != nil {
		return model.NewIndex[model.RetroEntry](), []model.Warning{r.unreadable(*f, err)}
	}
	idx := ParseRetro(wb.FirstSheet())
	r.log.Debug("retro parsed", zap.String("file", f.OriginalFilename), zap.Int("entries", idx.Len()))
	return idx, nil
}

func (r *SourceReader) unreadable(f model.UploadedFile, err error) model.Warning {
	msg := "file has no readable sheet"
	if err != nil {
		msg = err.Error()
	}
	r.log.Warn("side source unreadable, treated as empty",
		zap.String("file", f.OriginalFilename), zap.String("error", msg))
	return model.Warning{
		Kind:    model.WarnUnreadableSource,
		Source:  f.OriginalFilename,
		Message: msg,
	}
}
