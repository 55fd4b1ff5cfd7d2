package waitlist

import "errors"

var (
	ErrNotFound           = errors.New("patient not found")
	ErrDuplicatePatientID = errors.New("patient id already on the waitlist")
	ErrValidation         = errors.New("validation failed")
)
