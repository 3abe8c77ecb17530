package backup

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedBackup   = errors.New("invalid backup file")
	ErrUnsupportedSchema = errors.New("unsupported backup schema version")
	ErrCorruptImage      = errors.New("corrupt backup image")
)

// MalformedBackupError reports text that is not JSON or does not have the
// envelope/record shape.
type MalformedBackupError struct {
	Path string // location in the document, e.g. "data[2].targetAmount"
	Err  error
}

func (e *MalformedBackupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrMalformedBackup, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedBackup, e.Path, e.Err)
}

func (e *MalformedBackupError) Unwrap() error { return e.Err }

func (e *MalformedBackupError) Is(target error) bool { return target == ErrMalformedBackup }

// UnsupportedSchemaError reports a version this codec cannot read.
type UnsupportedSchemaError struct {
	Version   int
	Supported int
}

func (e *UnsupportedSchemaError) Error() string {
	if e.Version > e.Supported {
		return fmt.Sprintf("%s: version %d is newer than %d", ErrUnsupportedSchema, e.Version, e.Supported)
	}
	return fmt.Sprintf("%s: no migration from version %d", ErrUnsupportedSchema, e.Version)
}

func (e *UnsupportedSchemaError) Is(target error) bool { return target == ErrUnsupportedSchema }

// CorruptImageError reports an image field that failed base64 or image decoding.
type CorruptImageError struct {
	Goal  int // index into data
	Title string
	Err   error
}

func (e *CorruptImageError) Error() string {
	return fmt.Sprintf("%s: data[%d] (%q): %v", ErrCorruptImage, e.Goal, e.Title, e.Err)
}

func (e *CorruptImageError) Unwrap() error { return e.Err }

func (e *CorruptImageError) Is(target error) bool { return target == ErrCorruptImage }

func malformed(path string, format string, args ...any) error {
	return &MalformedBackupError{Path: path, Err: fmt.Errorf(format, args...)}
}
