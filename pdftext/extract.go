package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"consultai/utils/log"
)

// Document is the plain text of a PDF.
type Document struct {
	Pages     []string
	PageCount int
	// Decrypted is set when the file had to go through pdfcpu first.
	Decrypted bool
}

// Text joins the non-empty pages with newlines.
func (d Document) Text() string {
	var sb strings.Builder
	for _, p := range d.Pages {
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Extract reads the file at path. Non-PDF content is rejected with ErrNotPDF.
func Extract(path string) (Document, error) {
	ok, err := IsPDF(path)
	if err != nil {
		return Document{}, err
	}
	if !ok {
		return Document{}, errors.Wrap(ErrNotPDF, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "read %s", path)
	}
	return ExtractBytes(data)
}

// extractTimeout bounds one pass of the text reader, which can spin forever
// on strings in some decrypted AES-256 files.
var extractTimeout = 30 * time.Second

// ExtractBytes extracts an in-memory PDF. Encrypted files are retried after
// decrypting them with an empty user password. When the text reader cannot
// handle the decrypted file, its page content streams are scanned directly.
func ExtractBytes(data []byte) (Document, error) {
	doc, err := extractWithin(data)
	if err == nil {
		return doc, nil
	}

	log.Debug(context.Background(), "plain read failed, trying decrypt", zap.Error(err))
	plain, derr := decrypt(data)
	if derr != nil {
		// not an encryption problem, report the reader's error
		return Document{}, errors.Wrap(err, "read pdf")
	}
	doc, err = extractWithin(plain)
	if err != nil {
		log.Warn(context.Background(), "decrypted pdf unreadable, scanning content streams", zap.Error(err))
		doc, err = extractContent(plain)
		if err != nil {
			return Document{}, errors.Wrap(err, "read decrypted pdf")
		}
	}
	doc.Decrypted = true
	return doc, nil
}

// extractWithin runs extract under extractTimeout.
func extractWithin(data []byte) (Document, error) {
	return runWithin(extractTimeout, func() (Document, error) {
		return extract(bytes.NewReader(data), int64(len(data)))
	})
}

// runWithin returns fn's result or ErrExtractTimeout once d has passed. An
// overrunning fn is abandoned; its goroutine exits only if fn ever returns.
func runWithin(d time.Duration, fn func() (Document, error)) (Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	type result struct {
		doc Document
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := fn()
		done <- result{doc, err}
	}()

	select {
	case r := <-done:
		return r.doc, r.err
	case <-ctx.Done():
		return Document{}, errors.Wrapf(ErrExtractTimeout, "after %s", d)
	}
}

// ExtractReader is ExtractBytes for a reader.
func ExtractReader(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, errors.Wrap(err, "read upload")
	}
	if !IsPDFBytes(data) {
		return Document{}, ErrNotPDF
	}
	return ExtractBytes(data)
}

func extract(ra io.ReaderAt, size int64) (doc Document, err error) {
	// the reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPagePanics, r)
		}
	}()

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return Document{}, err
	}

	total := r.NumPage()
	doc.PageCount = total
	for pageIndex := 1; pageIndex <= total; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			// image-only or broken page
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, content)
	}
	if len(doc.Pages) == 0 {
		return doc, ErrNoText
	}
	return doc, nil
}

func decrypt(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = ""
	conf.OwnerPW = ""

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
