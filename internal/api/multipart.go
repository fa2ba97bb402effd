package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/tphakala/faunagram-go/internal/errors"
)

// Form is a multipart/form-data payload built from text fields and files.
// Fields keep their insertion order.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	field    string
	filename string
	path     string
	content  io.Reader
}

// NewForm creates an empty form
func NewForm() *Form {
	return &Form{}
}

// Field adds a text field
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// FieldIfSet adds a text field only when value is not empty
func (f *Form) FieldIfSet(name, value string) *Form {
	if value == "" {
		return f
	}
	return f.Field(name, value)
}

// File attaches the file at path, read when the request is sent
func (f *Form) File(field, path string) *Form {
	f.files = append(f.files, formFile{field: field, filename: filepath.Base(path), path: path})
	return f
}

// FileReader attaches in-memory content under filename
func (f *Form) FileReader(field, filename string, content io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// Value returns the first value of a text field
func (f *Form) Value(name string) (string, bool) {
	for _, fld := range f.fields {
		if fld.name == name {
			return fld.value, true
		}
	}
	return "", false
}

// HasFile reports whether a file is attached under field
func (f *Form) HasFile(field string) bool {
	for _, ff := range f.files {
		if ff.field == field {
			return true
		}
	}
	return false
}

func (f *Form) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", formError(err, fld.name)
		}
	}

	for _, ff := range f.files {
		if err := writeFile(w, ff); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", formError(err, "")
	}
	return buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, ff formFile) error {
	content := ff.content
	if content == nil {
		file, err := os.Open(ff.path)
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Component("api").
				Context("field", ff.field).
				Context("path", ff.path).
				Build()
		}
		defer func() { _ = file.Close() }()
		content = file
	}

	part, err := w.CreateFormFile(ff.field, ff.filename)
	if err != nil {
		return formError(err, ff.field)
	}
	if _, err := io.Copy(part, content); err != nil {
		return formError(err, ff.field)
	}
	return nil
}

func formError(err error, field string) error {
	return errors.New(err).
		Category(errors.CategoryHTTP).
		Component("api").
		Context("operation", "encode-multipart").
		Context("field", field).
		Build()
}
