// Package datauri decodes data: URIs into raw bytes.
package datauri

import (
	"encoding/base64"
	"errors"
	"regexp"
)

// ErrFormat is returned when the input does not match the data: scheme.
var ErrFormat = errors.New("invalid data URI")

var dataURIRegex = regexp.MustCompile(`(?s)^data:([\w/+.-]+)?(?:;charset=[^;,]+)?(;base64)?,(.*)$`)

type URI struct {
	MIME    string
	Base64  bool
	Payload string
}

func Parse(raw string) (*URI, error) {
	match := dataURIRegex.FindStringSubmatch(raw)
	if match == nil {
		return nil, ErrFormat
	}
	return &URI{
		MIME:    match[1],
		Base64:  match[2] != "",
		Payload: match[3],
	}, nil
}

// Decode extracts the payload bytes of a data URI. Base64 payloads that fail
// to decode fall back to the literal payload text. The fallback can corrupt
// binary payloads that were never valid base64 to begin with; callers that
// need to distinguish can inspect Parse's Base64 flag.
func Decode(raw string) ([]byte, error) {
	uri, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if decoded, err := base64.StdEncoding.DecodeString(uri.Payload); err == nil {
		return decoded, nil
	}
	return []byte(uri.Payload), nil
}
