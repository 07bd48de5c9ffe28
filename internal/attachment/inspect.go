package attachment

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

const textPreviewBytes = 280

// Details are optional hints shown next to a document placeholder.
type Details struct {
	Pages   int
	Preview string
}

// Inspect decodes the attachment and extracts display hints for documents.
// Errors only mean the hints are missing; callers still render the file.
func Inspect(a models.Attachment) (Details, error) {
	var d Details
	mt := MediaTypeOf(a.FileName)
	if mt != "application/pdf" && mt != "text/plain" {
		return d, nil
	}
	data, err := Decode(a)
	if err != nil {
		return d, fmt.Errorf("decode %s: %w", a.FileName, err)
	}
	switch mt {
	case "application/pdf":
		pages, err := pageCount(data)
		if err != nil {
			return d, err
		}
		d.Pages = pages
	case "text/plain":
		d.Preview = textPreview(data)
	}
	return d, nil
}

func pageCount(data []byte) (pages int, err error) {
	// the pdf reader panics on some truncated xref tables
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("read pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("new pdf reader: %w", err)
	}
	return doc.NumPage(), nil
}

func textPreview(data []byte) string {
	if len(data) <= textPreviewBytes {
		return string(bytes.ToValidUTF8(data, nil))
	}
	i := textPreviewBytes
	for i > 0 && !utf8.RuneStart(data[i]) {
		i--
	}
	return string(bytes.ToValidUTF8(data[:i], nil)) + "…"
}
