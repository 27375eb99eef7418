package validation

import (
	"fmt"

	"vsx/internal/errors"
)

type Validator interface {
	Validate() error
}

// Each validates loaded records and reports the first malformed one as an
// INVALID_RECORD error naming its position.
func Each[T Validator](kind string, records []T) error {
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return errors.InvalidRecord(kind, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return nil
}

// One validates a single loaded record.
func One(kind string, record Validator) error {
	if err := record.Validate(); err != nil {
		return errors.InvalidRecord(kind, err)
	}
	return nil
}
