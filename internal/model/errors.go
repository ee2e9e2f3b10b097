package model

import "errors"

var (
	ErrNoFiles            = errors.New("at least one file must be uploaded")
	ErrMissingPayroll     = errors.New("a payroll file is required (file name must contain 'luong v1')")
	ErrUnreadablePayroll  = errors.New("payroll file cannot be read as a spreadsheet")
	ErrMissingUpdateInput = errors.New("both the existing report and the new bonus file are required")
	ErrUnreadableReport   = errors.New("existing report cannot be read as a spreadsheet")
)

// InputError a failure caused by the caller's files rather than by the engine.
type InputError struct {
	Op  string
	Err error
}

// NewInputError wraps err for operation op
func NewInputError(op string, err error) *InputError {
	return &InputError{Op: op, Err: err}
}

func (e *InputError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err carries an *InputError anywhere in its chain.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
