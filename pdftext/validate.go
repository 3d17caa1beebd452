package pdftext

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const pdfMIME = "application/pdf"

// IsPDF sniffs the file content; the extension is not trusted.
func IsPDF(path string) (bool, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "detect file type of %s", path)
	}
	return m.Is(pdfMIME), nil
}

// IsPDFBytes is IsPDF for in-memory uploads.
func IsPDFBytes(data []byte) bool {
	return mimetype.Detect(data).Is(pdfMIME)
}
