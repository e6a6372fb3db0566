package service

import (
	"errors"
	"fmt"
)

var (
	ErrFailedValidation     = errors.New("failed validation")
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("edit conflict")
	ErrNoCopiesAvailable    = errors.New("no copies available")
	ErrDuplicateLoan        = errors.New("book already borrowed by user")
	ErrConsistencyFault     = errors.New("lending ledger inconsistency")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrContentTooLarge      = errors.New("content too large")
	ErrBadRequest           = errors.New("bad request")
)

// failedValidation loops through a validation error map and returns an
// error wrapping ErrFailedValidation with the key and value of each entry,
// so callers can still match the sentinel with errors.Is.
func (s *service) failedValidation(errorMap map[string]string) error {
	err := ErrFailedValidation
	for k, v := range errorMap {
		err = fmt.Errorf("%w: %q %s", err, k, v)
	}
	return err
}
