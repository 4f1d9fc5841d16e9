package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceUnavailable is returned when the jobs file cannot be opened or read.
	ErrResourceUnavailable = errors.New("configuration resource unavailable")

	// ErrSyntax is returned when the tokenizer rejects a line of the jobs file.
	ErrSyntax = errors.New("configuration syntax error")

	// ErrMalformedRecord is returned for a key outside the recognized job keys.
	ErrMalformedRecord = errors.New("malformed configuration record")

	// ErrStorageExhausted is returned when the job store cannot grow.
	ErrStorageExhausted = errors.New("out of storage")
)

// RecordError describes the record that aborted a load.
type RecordError struct {
	Section string
	Key     string
	Entry   int // index of the entry being populated, -1 if none
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: section %q key %q (entry %d)", ErrMalformedRecord, e.Section, e.Key, e.Entry)
}

// Unwrap lets errors.Is match ErrMalformedRecord.
func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}
