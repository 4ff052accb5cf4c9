package docpipe

import "fmt"

// DecodeError is returned when a payload's bytes are not valid for its
// declared encoding (e.g. a txt attachment that is not UTF-8).
type DecodeError struct {
	Format Format
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("docpipe: %s payload is not valid UTF-8", e.Format)
}

// MalformedDocumentError is returned when a payload's structure cannot be
// parsed (corrupt archive, broken cross-reference table, invalid XML).
type MalformedDocumentError struct {
	Format Format
	Cause  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("docpipe: malformed %s document: %v", e.Format, e.Cause)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Cause }

// UnsupportedFormatError is returned when the format tag is not one of the
// supported set.
type UnsupportedFormatError struct {
	Tag string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("docpipe: unsupported format: %q", e.Tag)
}
