package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/bugparty/wpctl/internal/models"
)

// FormItemNameMapper renames a form field before encoding. isArray is true
// when the field holds several values, in which case name already ends
// with "[]".
type FormItemNameMapper func(name string, isArray bool) string

// BoundaryFunc returns a fresh multipart boundary
type BoundaryFunc func() string

// NewBoundary builds a boundary from a random UUID
func NewBoundary() string {
	return "WPCTLFormBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

type formValue struct {
	text  string
	media *models.Media
}

// FormItems collects named text and file parts of a multipart body.
// Names keep their insertion order.
type FormItems struct {
	names  []string
	values map[string][]formValue
}

// NewFormItems creates an empty form
func NewFormItems() *FormItems {
	return &FormItems{values: make(map[string][]formValue)}
}

// Append adds a text part
func (f *FormItems) Append(name, value string) *FormItems {
	f.add(name, formValue{text: value})
	return f
}

// AppendMedia adds a file part
func (f *FormItems) AppendMedia(name string, media models.Media) *FormItems {
	f.add(name, formValue{media: &media})
	return f
}

func (f *FormItems) add(name string, v formValue) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = append(f.values[name], v)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode renders the multipart/form-data body using boundary
func (f *FormItems) Encode(boundary string, mapper FormItemNameMapper) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("invalid multipart boundary: %w", err)
	}

	for _, name := range f.names {
		values := f.values[name]
		isArray := len(values) > 1
		partName := name
		if isArray {
			partName = name + "[]"
		}
		if mapper != nil {
			partName = mapper(partName, isArray)
		}

		for _, v := range values {
			if err := writePart(w, partName, v); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *multipart.Writer, name string, v formValue) error {
	header := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))

	var payload []byte
	if v.media != nil {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(v.media.FileName))
		contentType := v.media.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		payload = v.media.Content
	} else {
		payload = []byte(v.text)
	}
	header.Set("Content-Disposition", disposition)

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form part %s: %w", name, err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("failed to write form part %s: %w", name, err)
	}
	return nil
}
