package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const sniffLen = 3072

var allowedMediaTypes = []string{
	"application/pdf",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// AllowedMediaTypes lists the MIME types accepted for analysis.
func AllowedMediaTypes() []string {
	out := make([]string, len(allowedMediaTypes))
	copy(out, allowedMediaTypes)
	return out
}

func isAllowed(mediaType string) bool {
	for _, a := range allowedMediaTypes {
		if a == mediaType {
			return true
		}
	}
	return false
}

// resolveMediaType checks the declared type against the allow-list. Generic
// or missing declarations are sniffed from the first bytes of body, which are
// then stitched back in front of the returned reader.
func resolveMediaType(declared string, size int64, body io.Reader) (string, io.Reader, error) {
	if body == nil {
		return "", nil, fmt.Errorf("%w: missing body", ErrInvalidUpload)
	}

	mt := normalizeMediaType(declared)
	if mt != "" && mt != "application/octet-stream" {
		if !isAllowed(mt) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt)
		}
		if size == 0 {
			return "", nil, fmt.Errorf("%w: empty file", ErrInvalidUpload)
		}
		return mt, body, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("%w: read: %v", ErrInvalidUpload, err)
	}
	if n == 0 {
		return "", nil, fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	for _, a := range allowedMediaTypes {
		if detected.Is(a) {
			return a, io.MultiReader(bytes.NewReader(head), body), nil
		}
	}
	return "", nil, fmt.Errorf("%w: detected %s", ErrUnsupportedMediaType, detected.String())
}

func normalizeMediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mt, _, _ = strings.Cut(raw, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
