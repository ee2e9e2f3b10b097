package pit

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thinhvd77/Tax/internal/model"
	"github.com/thinhvd77/Tax/internal/service/payroll"
)

// Multipart field names
const (
	FieldDataFiles      = "dataFiles"
	FieldMonth          = "month"
	FieldExistingReport = "existingReport"
	FieldNewBonusFile   = "newBonusFile"
	FieldNewBonusTitle  = "newBonusTitle"
)

// MaxUploadFiles upper bound of files accepted by one calculate or preview request
const MaxUploadFiles = 20

// Response headers carrying run metadata next to a spreadsheet body
const (
	HeaderRunID    = "X-Run-Id"
	HeaderWarnings = "X-Warnings"
)

// Calculate POST /api/pit/calculate
// multipart: dataFiles (many), month (optional label). Responds with the xlsx report.
func (h *Handler) Calculate(c *gin.Context) {
	files, err := h.dataFiles(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	rep, err := h.engine.Calculate(c.Request.Context(), files, c.PostForm(FieldMonth))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeReport(c, rep)
}

// Preview POST /api/pit/preview
// Same form as calculate; responds with rows, summary and warnings as JSON.
func (h *Handler) Preview(c *gin.Context) {
	files, err := h.dataFiles(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	p, err := h.engine.Preview(c.Request.Context(), files, c.PostForm(FieldMonth))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update POST /api/pit/update
// multipart: existingReport, newBonusFile, newBonusTitle (optional). Responds with the updated report.
func (h *Handler) Update(c *gin.Context) {
	existing, err := formFile(c, FieldExistingReport)
	if err != nil {
		h.writeError(c, err)
		return
	}
	bonus, err := formFile(c, FieldNewBonusFile)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if existing == nil || bonus == nil {
		h.writeError(c, model.NewInputError("update", model.ErrMissingUpdateInput))
		return
	}

	rep, err := h.engine.Update(c.Request.Context(), existing, bonus, c.PostForm(FieldNewBonusTitle))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeReport(c, rep)
}

func (h *Handler) dataFiles(c *gin.Context) ([]model.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, model.NewInputError("upload", fmt.Errorf("invalid multipart form: %w", err))
	}
	headers := form.File[FieldDataFiles]
	if len(headers) == 0 {
		return nil, model.NewInputError("upload", model.ErrNoFiles)
	}
	if len(headers) > MaxUploadFiles {
		return nil, model.NewInputError("upload", fmt.Errorf("too many files: %d, at most %d", len(headers), MaxUploadFiles))
	}

	files := make([]model.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	h.log.Debug("files received", zap.Int("count", len(files)))
	return files, nil
}

// formFile the single file in field, nil when absent
func formFile(c *gin.Context, field string) (*model.UploadedFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, model.NewInputError("upload", fmt.Errorf("invalid %s: %w", field, err))
	}
	f, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func readUpload(fh *multipart.FileHeader) (model.UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	buf, err := io.ReadAll(src)
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return model.NewUploadedFile(fh.Filename, buf), nil
}

func writeReport(c *gin.Context, rep *payroll.Report) {
	c.Header("Content-Disposition", contentDisposition(rep.Filename))
	c.Header(HeaderRunID, rep.RunID)
	c.Header(HeaderWarnings, strconv.Itoa(len(rep.Warnings)))
	c.Data(http.StatusOK, rep.ContentType, rep.Buffer)
}

// contentDisposition attachment header with an ASCII fallback and the UTF-8 name
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}
