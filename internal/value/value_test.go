package value_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bignyap/cloudvault/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		wantUtf8 bool
	}{
		{"valid utf8", []byte("hello"), true},
		{"empty", []byte(""), true},
		{"invalid utf8", []byte{0x00, 0xff, 0xfe, 0x80}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := value.FromBytes(tt.input)
			assert.Equal(t, tt.wantUtf8, v.IsUtf8())
			assert.Equal(t, tt.input, v.AsBytes())
		})
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0xff, 0x10}, 0o600))

	v, err := value.FromPath(path)
	require.NoError(t, err)
	assert.False(t, v.IsUtf8())
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, v.AsBytes())
}

func TestFromPath_MissingFile(t *testing.T) {
	_, err := value.FromPath("/no/such/file")
	assert.Error(t, err)
}

func TestFromReader(t *testing.T) {
	v, err := value.FromReader(bytes.NewBufferString("hi there"))
	require.NoError(t, err)
	assert.True(t, v.IsUtf8())
	assert.Equal(t, "hi there", v.String())
}

func TestBase64RoundTrip(t *testing.T) {
	original := value.FromBytes([]byte{0x01, 0x02, 0x03, 0xff})
	encoded := original.EncodeBase64()
	assert.True(t, encoded.IsUtf8())

	decoded, err := encoded.DecodeBase64()
	require.NoError(t, err)
	assert.Equal(t, original.AsBytes(), decoded.AsBytes())
}

func TestDecodeBase64_Invalid(t *testing.T) {
	v := value.FromBytes([]byte("not-valid-base64!!!"))
	_, err := v.DecodeBase64()
	assert.Error(t, err)
}

func TestString_BinaryIsHex(t *testing.T) {
	v := value.FromBytes([]byte{0x00, 0xff, 0xfe, 0x80})
	assert.Equal(t, "00fffe80", v.String())
}

func TestOutputToStdout(t *testing.T) {
	v := value.FromBytes([]byte("raw-bytes"))
	var buf bytes.Buffer
	require.NoError(t, v.OutputToStdout(&buf))
	assert.Equal(t, "raw-bytes", buf.String())
}

func TestOutputToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	v := value.FromBytes([]byte("file-contents"))
	require.NoError(t, v.OutputToFile(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-contents", string(got))
}
