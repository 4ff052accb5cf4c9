package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDocx parses a .docx payload by reading word/document.xml from the
// ZIP archive. Paragraph text is concatenated in document order, joined by
// newlines.
func extractDocx(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatDocx, Cause: fmt.Errorf("open zip: %w", err)}
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", &MalformedDocumentError{Format: FormatDocx,
			Cause: fmt.Errorf("word/document.xml not found in archive")}
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatDocx, Cause: fmt.Errorf("open document.xml: %w", err)}
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", &MalformedDocumentError{Format: FormatDocx, Cause: err}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs streams WordprocessingML and collects one string per <w:p>.
func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, nil
}
