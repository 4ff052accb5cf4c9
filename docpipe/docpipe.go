// Package docpipe extracts plain text from in-memory document payloads.
//
// Supported formats:
//   - txt   — strict UTF-8 decode (no transformation)
//   - pdf   — page-ordered text via pdfcpu content streams
//   - docx  — archive/zip → word/document.xml, paragraphs joined by newlines
//   - html  — markup converted to readable markdown text
//
// Payloads arrive as byte slices (chat attachments are buffered in memory,
// never written to disk). Extraction is CPU-bound and never blocks.
//
// Usage:
//
//	ext := docpipe.New(docpipe.Config{})
//	text, err := ext.Extract(data, docpipe.FormatPDF)
package docpipe

import (
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format identifies a document payload type.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatHTML Format = "html"
)

// Config configures the extractor.
type Config struct {
	// Logger for debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor turns raw document bytes into plain text.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{logger: cfg.Logger}
}

// Detect returns the document format based on file extension.
func Detect(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".text":
		return FormatTXT, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", &UnsupportedFormatError{Tag: ext}
	}
}

// Extract decodes data according to format and returns its text content.
// Output is never truncated; length limits belong to the transport layer.
//
// Failure modes: *DecodeError (invalid encoding), *MalformedDocumentError
// (corrupt or unreadable structure), *UnsupportedFormatError (unknown tag).
func (e *Extractor) Extract(data []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatTXT:
		text, err = extractText(data)
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDocx:
		text, err = extractDocx(data)
	case FormatHTML:
		text, err = extractHTML(data)
	default:
		return "", &UnsupportedFormatError{Tag: string(format)}
	}
	if err != nil {
		return "", err
	}

	e.logger.Debug("document extracted", "format", format, "bytes", len(data), "chars", len(text))
	return text, nil
}

// extractText decodes a plain-text payload as strict UTF-8.
// The decoded string is returned exactly as-is.
func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &DecodeError{Format: FormatTXT}
	}
	return string(data), nil
}

// SupportedFormats returns all supported format tags.
func SupportedFormats() []string {
	return []string{"txt", "pdf", "docx", "html"}
}
