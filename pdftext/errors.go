package pdftext

import "errors"

var (
	ErrNotPDF     = errors.New("not a valid PDF")
	ErrNoText     = errors.New("no text extracted from PDF")
	ErrPagePanics = errors.New("pdf reader panicked")

	ErrExtractTimeout = errors.New("pdf text extraction timed out")
)
