package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FileField is a file part of a multipart request.
type FileField struct {
	FieldName   string
	FileName    string
	ContentType string
	// Data takes precedence over Reader. Prefer Data when retries are
	// enabled so the body can be re-encoded.
	Data   []byte
	Reader io.Reader
}

// MultipartBody describes a multipart/form-data request body.
type MultipartBody struct {
	Fields map[string]string
	Files  []FileField
}

// encode builds the request body and returns it with the content type
// carrying the boundary.
func (b MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range b.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", name, err)
		}
	}

	for _, f := range b.Files {
		part, err := createFilePart(w, f)
		if err != nil {
			return nil, "", err
		}
		switch {
		case f.Data != nil:
			if _, err := part.Write(f.Data); err != nil {
				return nil, "", fmt.Errorf("writing file %q: %w", f.FileName, err)
			}
		case f.Reader != nil:
			if _, err := io.Copy(part, f.Reader); err != nil {
				return nil, "", fmt.Errorf("copying file %q: %w", f.FileName, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func createFilePart(w *multipart.Writer, f FileField) (io.Writer, error) {
	if f.ContentType == "" {
		part, err := w.CreateFormFile(f.FieldName, f.FileName)
		if err != nil {
			return nil, fmt.Errorf("creating file part %q: %w", f.FileName, err)
		}
		return part, nil
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		escapeQuotes(f.FieldName), escapeQuotes(f.FileName)))
	h.Set("Content-Type", f.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating file part %q: %w", f.FileName, err)
	}
	return part, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
