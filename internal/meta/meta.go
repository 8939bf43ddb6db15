// Package meta implements the sidecar {alg, nonce} record stored alongside
// every ciphertext object. Its JSON encoding doubles as the AEAD's
// additional authenticated data, so callers must always carry the exact
// bytes read from storage rather than re-marshal a parsed Meta.
package meta

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// NonceSize is the required length, in bytes, of a decoded nonce.
const NonceSize = 12

// AlgAESGCM is the only algorithm identifier this vault writes or accepts.
const AlgAESGCM = "AESGCM"

// Meta is the canonical {"alg":"AESGCM","nonce":"<base64>"} sidecar record.
type Meta struct {
	Alg   string `json:"alg"`
	Nonce string `json:"nonce"`
}

// New builds a Meta from a raw 12-byte nonce.
func New(nonce [NonceSize]byte) Meta {
	return Meta{
		Alg:   AlgAESGCM,
		Nonce: base64.StdEncoding.EncodeToString(nonce[:]),
	}
}

// ToJSON renders the canonical encoding whose bytes are later used as AAD.
func (m Meta) ToJSON() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindMetaJSON, "marshal meta", err)
	}
	return b, nil
}

// Parse decodes a Meta from its JSON bytes. Callers must keep the original
// bytes around for use as AAD; do not reconstruct them via ToJSON.
func Parse(b []byte) (Meta, error) {
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, vaulterr.Wrap(vaulterr.KindMetaJSON, "unmarshal meta", err)
	}
	return m, nil
}

// DecodedNonce base64-decodes the Nonce field and validates its length.
func (m Meta) DecodedNonce() ([NonceSize]byte, error) {
	var out [NonceSize]byte
	raw, err := base64.StdEncoding.DecodeString(m.Nonce)
	if err != nil {
		return out, vaulterr.Wrap(vaulterr.KindNonceBase64, "decode nonce", err)
	}
	if len(raw) != NonceSize {
		return out, vaulterr.New(vaulterr.KindInvalidNonceLength,
			fmt.Sprintf("nonce must decode to %d bytes, got %d", NonceSize, len(raw)))
	}
	copy(out[:], raw)
	return out, nil
}
