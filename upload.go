package contract

// UploadedFile holds one fully-buffered file from a multipart upload. Values
// are created during multipart parsing and never mutated afterwards; durable
// storage is the handler's concern.
type UploadedFile struct {
	FieldName string
	Filename  string
	MimeType  string
	SizeBytes int64
	Content   []byte
}
