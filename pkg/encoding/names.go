// Package encoding provides text encoding utilities for XAY material names.
package encoding

import (
	"errors"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrInvalidName is returned for material names that are not valid UTF-8.
var ErrInvalidName = errors.New("material name is not valid UTF-8")

// DecodeName validates raw name bytes as UTF-8 and returns them as a string.
// The bytes are not trimmed: XAY stores the name length explicitly.
func DecodeName(data []byte) (string, error) {
	result, _, err := transform.Bytes(xencoding.UTF8Validator, data)
	if err != nil {
		return "", ErrInvalidName
	}
	return string(result), nil
}

// EncodeName returns the bytes written for a material name.
// Names are validated so the encoder never produces a file the decoder rejects.
func EncodeName(s string) ([]byte, error) {
	result, _, err := transform.Bytes(xencoding.UTF8Validator, []byte(s))
	if err != nil {
		return nil, ErrInvalidName
	}
	return result, nil
}
