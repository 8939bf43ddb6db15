// Package value implements the tagged Utf8/Binary payload type returned
// by lookups and accepted by stores.
package value

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// Kind distinguishes the two Value variants.
type Kind int

const (
	Utf8 Kind = iota
	Binary
)

// Value is a tagged sum of a UTF-8 string and arbitrary bytes.
type Value struct {
	kind  Kind
	text  string
	bytes []byte
}

// FromBytes classifies b as Utf8 if it is valid UTF-8, else Binary.
func FromBytes(b []byte) Value {
	if utf8.Valid(b) {
		return Value{kind: Utf8, text: string(b)}
	}
	return Value{kind: Binary, bytes: append([]byte(nil), b...)}
}

// FromPath reads the whole file at path and classifies it like FromBytes.
func FromPath(path string) (Value, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Value{}, vaulterr.Wrap(vaulterr.KindFileRead, fmt.Sprintf("read %s", path), err)
	}
	return FromBytes(b), nil
}

// FromReader reads all bytes from r (typically os.Stdin) until EOF and
// classifies them like FromBytes.
func FromReader(r io.Reader) (Value, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Value{}, vaulterr.Wrap(vaulterr.KindStdinRead, "read stdin", err)
	}
	return FromBytes(b), nil
}

// FromBase64OrUTF8 decodes s as standard base64 if possible, otherwise
// treats it as a literal UTF-8 string. Used by CLI callers that accept a
// secret value either as plain text or as base64-wrapped binary.
func FromBase64OrUTF8(s string) Value {
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return FromBytes(decoded)
	}
	return Value{kind: Utf8, text: s}
}

// IsUtf8 reports whether the value holds the Utf8 variant.
func (v Value) IsUtf8() bool {
	return v.kind == Utf8
}

// AsBytes returns the underlying bytes for either variant.
func (v Value) AsBytes() []byte {
	if v.kind == Utf8 {
		return []byte(v.text)
	}
	return v.bytes
}

// OutputToStdout writes the raw bytes to w with no added newline.
func (v Value) OutputToStdout(w io.Writer) error {
	_, err := w.Write(v.AsBytes())
	return err
}

// OutputToFile creates (or truncates) path and writes the raw bytes.
func (v Value) OutputToFile(path string) error {
	return os.WriteFile(path, v.AsBytes(), 0o600)
}

// EncodeBase64 converts a Binary value into a Utf8 value holding its
// base64 encoding. A Utf8 value is returned unchanged.
func (v Value) EncodeBase64() Value {
	if v.kind == Utf8 {
		return v
	}
	return Value{kind: Utf8, text: base64.StdEncoding.EncodeToString(v.bytes)}
}

// DecodeBase64 converts a Utf8 value holding valid base64 into a Binary
// value. Returns an error if the text is not valid base64.
func (v Value) DecodeBase64() (Value, error) {
	if v.kind == Binary {
		return v, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(v.text)
	if err != nil {
		return Value{}, vaulterr.Wrap(vaulterr.KindNonceBase64, "decode base64 value", err)
	}
	return Value{kind: Binary, bytes: decoded}, nil
}

// String renders Utf8 as-is and Binary as lowercase hex with no separators.
func (v Value) String() string {
	if v.kind == Utf8 {
		return v.text
	}
	return fmt.Sprintf("%x", v.bytes)
}
