package pdftext

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// Info is the document metadata shown next to a report.
type Info struct {
	Title  string
	Author string
}

// ReadInfo reads the info dictionary. Callers treat failure as "no metadata".
func ReadInfo(data []byte) (Info, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return Info{}, errors.Wrap(err, "read pdf context")
	}
	return Info{
		Title:  ctx.Title,
		Author: ctx.Author,
	}, nil
}
