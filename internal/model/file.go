package model

// FileRole role of an uploaded workbook in one consolidation run
type FileRole string

const (
	FileRoleUnknown    FileRole = ""
	FileRolePayroll    FileRole = "payroll"    // lương V1
	FileRoleDependents FileRole = "dependents" // người phụ thuộc (NPT)
	FileRoleRetro      FileRole = "retro"      // truy lĩnh
	FileRoleBonus      FileRole = "bonus"      // thưởng
	FileRoleIgnored    FileRole = "ignored"
)

// UploadedFile an in-memory upload handed over by the caller
type UploadedFile struct {
	Buffer           []byte `json:"-"`
	OriginalFilename string `json:"filename"`
	Size             int64  `json:"size"`
}

// NewUploadedFile wraps a buffer and fills Size from it.
func NewUploadedFile(filename string, buf []byte) UploadedFile {
	return UploadedFile{Buffer: buf, OriginalFilename: filename, Size: int64(len(buf))}
}

// Classification outcome of FileClassifier
type Classification struct {
	Payroll    *UploadedFile  `json:"payroll"`
	Dependents *UploadedFile  `json:"dependents"`
	Retro      *UploadedFile  `json:"retro"`
	Bonuses    []UploadedFile `json:"bonuses"`
	Ignored    []UploadedFile `json:"ignored"`
}

// FileAssignment one file and the role it was given
type FileAssignment struct {
	Filename string   `json:"filename"`
	Role     FileRole `json:"role"`
	Size     int64    `json:"size"`
}

// Assignments flattens the classification in role order.
func (c Classification) Assignments() []FileAssignment {
	out := make([]FileAssignment, 0, 3+len(c.Bonuses)+len(c.Ignored))
	add := func(f *UploadedFile, role FileRole) {
		if f == nil {
			return
		}
		out = append(out, FileAssignment{Filename: f.OriginalFilename, Role: role, Size: f.Size})
	}
	add(c.Payroll, FileRolePayroll)
	add(c.Dependents, FileRoleDependents)
	add(c.Retro, FileRoleRetro)
	for i := range c.Bonuses {
		add(&c.Bonuses[i], FileRoleBonus)
	}
	for i := range c.Ignored {
		add(&c.Ignored[i], FileRoleIgnored)
	}
	return out
}
