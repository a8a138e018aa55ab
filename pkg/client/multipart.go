package client

import (
	"bytes"
	"io"
	"mime/multipart"
)

// MultipartForm accumulates form fields and file parts. The first write
// error sticks and is reported by Encode.
type MultipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func NewMultipartForm() *MultipartForm {
	f := &MultipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *MultipartForm) Field(name, value string) *MultipartForm {
	if f.err != nil {
		return f
	}
	f.err = f.writer.WriteField(name, value)
	return f
}

func (f *MultipartForm) File(field, filename string, content io.Reader) *MultipartForm {
	if f.err != nil {
		return f
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = io.Copy(part, content)
	return f
}

// Encode closes the form and returns the body with its Content-Type,
// boundary included.
func (f *MultipartForm) Encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return bytes.NewReader(f.buf.Bytes()), f.writer.FormDataContentType(), nil
}
