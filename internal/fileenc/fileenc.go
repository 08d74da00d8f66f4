// Package fileenc converts file content to and from data URIs.
package fileenc

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vincent-petithory/dataurl"
)

// DefaultMimeType is used when the content type is unknown or unparsable.
const DefaultMimeType = "application/octet-stream"

const scheme = "data:"

var (
	// ErrNotDataURI is returned when the input does not start with "data:".
	ErrNotDataURI = errors.New("not a data uri")
	// ErrMalformedDataURI is returned when a data uri cannot be decoded.
	ErrMalformedDataURI = errors.New("malformed data uri")
)

// Encode reads r to the end and returns data:<mime>;base64,<payload>.
func Encode(r io.Reader, mimeType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("fileenc: read content: %w", err)
	}

	return EncodeBytes(data, mimeType), nil
}

// EncodeBytes is Encode for content already in memory.
func EncodeBytes(data []byte, mimeType string) string {
	mediaType, params := splitMimeType(mimeType)

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, k, v)
	}

	return dataurl.New(data, mediaType, pairs...).String()
}

// Decode parses a base64 or percent-encoded data uri and returns its
// media type without parameters and the raw content.
func Decode(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", nil, ErrNotDataURI
	}

	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}

	return du.ContentType(), du.Data, nil
}

// HumanSize renders n bytes the way the portal displays file sizes.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}

	return humanize.Bytes(uint64(n))
}

// splitMimeType always returns a type/subtype pair; dataurl.New panics otherwise.
func splitMimeType(mimeType string) (string, map[string]string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil || strings.Count(mediaType, "/") != 1 {
		return DefaultMimeType, nil
	}

	return mediaType, params
}
