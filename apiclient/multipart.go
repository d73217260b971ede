package apiclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// File is one file part of a multipart form.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type field struct {
	name, value string
}

// Form is a multipart body built in memory so it can be re-sent after a token refresh.
type Form struct {
	fields []field
	files  []File
}

func NewForm() *Form {
	return &Form{}
}

// Field appends a text field, keeping insertion order.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, field{name: name, value: value})
	return f
}

func (f *Form) File(file File) *Form {
	f.files = append(f.files, file)
	return f
}

func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fl := range f.fields {
		if err := w.WriteField(fl.name, fl.value); err != nil {
			return nil, "", fmt.Errorf("multipart field %s: %w", fl.name, err)
		}
	}
	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart close: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Request encodes the form as a POST to path. timeout zero uses the client timeout.
func (f *Form) Request(path string, timeout time.Duration) (Request, error) {
	body, contentType, err := f.Encode()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: contentType,
		Timeout:     timeout,
	}, nil
}
