package crypto_test

import (
	"context"
	"crypto/aes"
	cipherpkg "crypto/cipher"
	"crypto/rand"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/bignyap/cloudvault/internal/crypto"
	"github.com/bignyap/cloudvault/internal/vaulterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKMS is a minimal in-memory stand-in for clients.KeyService: it holds
// a single master key and "wraps" data keys by sealing them with it,
// rather than calling AWS.
type fakeKMS struct {
	master []byte
}

func newFakeKMS(t *testing.T) *fakeKMS {
	t.Helper()
	master := make([]byte, 32)
	_, err := rand.Read(master)
	require.NoError(t, err)
	return &fakeKMS{master: master}
}

func (f *fakeKMS) gcm() cipherpkg.AEAD {
	block, err := aes.NewCipher(f.master)
	if err != nil {
		panic(err)
	}
	g, err := cipherpkg.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return g
}

func (f *fakeKMS) GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error) {
	dek := make([]byte, 32)
	if _, err := rand.Read(dek); err != nil {
		return nil, err
	}
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	wrapped := f.gcm().Seal(nonce, nonce, dek, nil)
	return &kms.GenerateDataKeyOutput{
		Plaintext:      dek,
		CiphertextBlob: wrapped,
	}, nil
}

func (f *fakeKMS) Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	wrapped := f.gcm().Seal(nonce, nonce, params.Plaintext, nil)
	return &kms.EncryptOutput{CiphertextBlob: wrapped}, nil
}

func (f *fakeKMS) Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	blob := params.CiphertextBlob
	nonce, ct := blob[:12], blob[12:]
	plain, err := f.gcm().Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, err
	}
	return &kms.DecryptOutput{Plaintext: plain}, nil
}

func TestSealOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	enc, err := crypto.Seal(ctx, k, "arn:aws:kms:fake", []byte("hello world"))
	require.NoError(t, err)

	plain, err := crypto.Open(ctx, k, enc.DataKey, enc.Ciphertext, enc.MetaBytes)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(plain))
}

func TestSeal_EmptyData(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	enc, err := crypto.Seal(ctx, k, "arn:aws:kms:fake", []byte(""))
	require.NoError(t, err)

	plain, err := crypto.Open(ctx, k, enc.DataKey, enc.Ciphertext, enc.MetaBytes)
	require.NoError(t, err)
	assert.Equal(t, "", string(plain))
}

func TestSeal_MissingKeyArn(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	_, err := crypto.Seal(ctx, k, "", []byte("data"))
	assert.Error(t, err)
}

func TestOpen_TamperedMetaFailsAuth(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	enc, err := crypto.Seal(ctx, k, "arn:aws:kms:fake", []byte("secret value"))
	require.NoError(t, err)

	// Re-encode with identical alg/nonce values but different whitespace:
	// still valid JSON with the same semantic meta, but different AAD bytes.
	tamperedMeta := append(append([]byte(nil), enc.MetaBytes[:len(enc.MetaBytes)-1]...), ' ', '}')

	_, err = crypto.Open(ctx, k, enc.DataKey, enc.Ciphertext, tamperedMeta)
	assert.Error(t, err)
	var vErr *vaulterr.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, vaulterr.KindNonceDecryption, vErr.Kind)
}

func TestOpen_TamperedCiphertextFailsAuth(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	enc, err := crypto.Seal(ctx, k, "arn:aws:kms:fake", []byte("secret value"))
	require.NoError(t, err)

	tampered := append([]byte(nil), enc.Ciphertext...)
	tampered[0] ^= 0xFF

	_, err = crypto.Open(ctx, k, enc.DataKey, tampered, enc.MetaBytes)
	assert.Error(t, err)
}

func TestDirectEncryptDecryptRoundTrip(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	wrapped, err := crypto.DirectEncrypt(ctx, k, "arn:aws:kms:fake", []byte("ad-hoc payload"))
	require.NoError(t, err)

	plain, err := crypto.DirectDecrypt(ctx, k, wrapped)
	require.NoError(t, err)
	assert.Equal(t, "ad-hoc payload", string(plain))
}

func TestDirectEncrypt_MissingKeyArn(t *testing.T) {
	ctx := context.Background()
	k := newFakeKMS(t)

	_, err := crypto.DirectEncrypt(ctx, k, "", []byte("data"))
	assert.Error(t, err)
}
