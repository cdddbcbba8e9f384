package contract

import (
	"io"
	"mime/multipart"
	"net/http"
)

// maxMultipartMemory is the maximum memory used for multipart form parsing
// (32 MB); larger files spill to disk before being buffered.
const maxMultipartMemory = 32 << 20

// multipartInput is the outcome of parsing a multipart request body.
type multipartInput struct {
	files  []UploadedFile
	form   map[string]string
	parsed any
}

// parseMultipartBody extracts the declared file fields and form fields from
// a multipart request. A required file that is absent and a form field that
// fails its schema are reported together as one validation failure so the
// client sees every problem at once.
func parseMultipartBody(r *http.Request, c *Contract, intr Introspector) (*multipartInput, *Error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, BadRequestf("malformed multipart body")
	}

	var failures []FieldError
	in := &multipartInput{form: make(map[string]string)}

	for _, ff := range c.FileFields {
		headers := r.MultipartForm.File[ff.Name]
		if len(headers) == 0 {
			if ff.Required {
				failures = append(failures, FieldError{
					Field:   ff.Name,
					Code:    codeRequired,
					Message: "file is required",
				})
			}
			continue
		}

		for _, header := range headers {
			file, err := readUploadedFile(ff.Name, header)
			if err != nil {
				return nil, BadRequestf("malformed multipart body")
			}
			in.files = append(in.files, *file)
		}
	}

	for name, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			in.form[name] = values[0]
		}
	}

	if c.Form != nil {
		parsed, ferrs := intr.Validate(c.Form, in.form)
		failures = append(failures, ferrs...)
		in.parsed = parsed
	}

	if len(failures) > 0 {
		return nil, ValidationFailed(failures)
	}
	return in, nil
}

func readUploadedFile(fieldName string, header *multipart.FileHeader) (*UploadedFile, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck // read-only temp file

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &UploadedFile{
		FieldName: fieldName,
		Filename:  header.Filename,
		MimeType:  mimeType,
		SizeBytes: header.Size,
		Content:   content,
	}, nil
}
