// Package extract turns uploaded files into plain text for analysis.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Supported MIME types.
const (
	MIMEPlainText = "text/plain"
	MIMEDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPDF       = "application/pdf"
	MIMEXlsx      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrUnsupportedType is returned for MIME types with no extractor.
var ErrUnsupportedType = errors.New("unsupported file type")

// Stage names the step of extraction that failed.
type Stage string

const (
	StageOpen  Stage = "open"
	StageParse Stage = "parse"
	StageRead  Stage = "read"
)

// ExtractionError reports why a file produced no text.
type ExtractionError struct {
	MIME  string
	Stage Stage
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.MIME, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor converts one file format to text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(data []byte) (string, error) {
	return f(data)
}

var extractors = map[string]Extractor{
	MIMEPlainText: ExtractorFunc(plainText),
	MIMEDocx:      ExtractorFunc(docx),
}

// ForMIME returns the extractor for mimeType. Parameters such as charset
// are ignored.
func ForMIME(mimeType string) (Extractor, error) {
	base := normalize(mimeType)
	if e, ok := extractors[base]; ok {
		return e, nil
	}
	return nil, &ExtractionError{MIME: base, Stage: StageOpen, Err: ErrUnsupportedType}
}

// Extract converts data of the given MIME type to text.
func Extract(mimeType string, data []byte) (string, error) {
	e, err := ForMIME(mimeType)
	if err != nil {
		return "", err
	}

	text, err := e.Extract(data)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			ee.MIME = normalize(mimeType)
			return "", ee
		}
		return "", &ExtractionError{MIME: normalize(mimeType), Stage: StageParse, Err: err}
	}
	return text, nil
}

// DetectMIME picks a MIME type from a declared content type, falling back to
// the file extension when the declared type is missing or generic.
func DetectMIME(declared, filename string) string {
	base := normalize(declared)
	if base != "" && base != "application/octet-stream" {
		return base
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".log", ".csv":
		return MIMEPlainText
	case ".docx":
		return MIMEDocx
	case ".pdf":
		return MIMEPDF
	case ".xlsx":
		return MIMEXlsx
	}
	return base
}

func normalize(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
