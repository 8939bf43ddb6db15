package meta_test

import (
	"testing"

	"github.com/bignyap/cloudvault/internal/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndToJSON(t *testing.T) {
	var nonce [12]byte
	for i := range nonce {
		nonce[i] = byte(i)
	}

	m := meta.New(nonce)
	assert.Equal(t, meta.AlgAESGCM, m.Alg)

	b, err := m.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"alg":"AESGCM"`)
	assert.Contains(t, string(b), `"nonce":`)
}

func TestParseRoundTrip(t *testing.T) {
	var nonce [12]byte
	copy(nonce[:], []byte("abcdefghijkl"))
	original := meta.New(nonce)

	b, err := original.ToJSON()
	require.NoError(t, err)

	parsed, err := meta.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)

	decoded, err := parsed.DecodedNonce()
	require.NoError(t, err)
	assert.Equal(t, nonce, decoded)
}

func TestDecodedNonce_WrongLength(t *testing.T) {
	m := meta.Meta{Alg: meta.AlgAESGCM, Nonce: "YWJj"} // "abc", 3 bytes
	_, err := m.DecodedNonce()
	assert.Error(t, err)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := meta.Parse([]byte("not json"))
	assert.Error(t, err)
}
