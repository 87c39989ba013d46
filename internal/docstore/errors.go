package docstore

import (
	"errors"
	"fmt"
)

// The store returns a small closed set of tagged error variants so callers
// branch on kind, not message text.

// NotFoundError means no file exists at the path.
type NotFoundError struct {
	Path string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

// IsNotFound checks if an error is a store NotFoundError (including wrapped errors).
func IsNotFound(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// EmptyDocumentError means the file exists but its trimmed content is
// zero-length. Distinguished from NotFoundError so the integrity check can
// report EMPTY separately from missing.
type EmptyDocumentError struct {
	Path string
}

func (e EmptyDocumentError) Error() string {
	return fmt.Sprintf("document is empty: %s", e.Path)
}

// IsEmptyDocument checks if error is EmptyDocumentError.
func IsEmptyDocument(err error) bool {
	var ee EmptyDocumentError
	return errors.As(err, &ee)
}

// ParseError means the file held malformed JSON. Diagnostic preserves the
// underlying decoder message.
type ParseError struct {
	Path       string
	Diagnostic string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("document is corrupt: %s: %s", e.Path, e.Diagnostic)
}

// IsParseError checks if error is ParseError.
func IsParseError(err error) bool {
	var pe ParseError
	return errors.As(err, &pe)
}

// IsRecoverable reports whether a read failure permits safe recreation of
// the document: most callers treat empty and corrupt files like missing
// ones for read-repair purposes.
func IsRecoverable(err error) bool {
	return IsNotFound(err) || IsEmptyDocument(err) || IsParseError(err)
}
