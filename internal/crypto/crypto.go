// Package crypto implements the envelope-encryption primitives: AES-256-GCM
// sealing/opening with a KMS-generated data key, and direct KMS
// encrypt/decrypt for ad-hoc payloads.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/bignyap/cloudvault/internal/clients"
	"github.com/bignyap/cloudvault/internal/meta"
	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// EncryptObject is the transient result of one Seal call: the wrapped data
// key, the sealed ciphertext (including the GCM tag), and the exact meta
// JSON bytes used as AAD.
type EncryptObject struct {
	DataKey    []byte
	Ciphertext []byte
	MetaBytes  []byte
}

// Seal envelope-encrypts plaintext: it asks KMS for a fresh AES-256 data
// key, seals plaintext under a random 12-byte nonce with AAD equal to the
// freshly-built meta JSON, and returns the wrapped key alongside the
// ciphertext and meta bytes for storage.
func Seal(ctx context.Context, kmsClient clients.KeyService, keyArn string, plaintext []byte) (EncryptObject, error) {
	if keyArn == "" {
		return EncryptObject{}, vaulterr.New(vaulterr.KindKeyArnMissing, "no key ARN configured, can't encrypt")
	}

	dek, err := kmsClient.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(keyArn),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return EncryptObject{}, vaulterr.Wrap(vaulterr.KindGenerateDataKey, "generate data key", err)
	}
	if dek.Plaintext == nil {
		return EncryptObject{}, vaulterr.New(vaulterr.KindDataKeyPlaintextMissing, "no plaintext in generated data key")
	}
	if dek.CiphertextBlob == nil {
		return EncryptObject{}, vaulterr.New(vaulterr.KindDataKeyCiphertextMissing, "no ciphertext blob in generated data key")
	}

	gcm, err := newGCM(dek.Plaintext)
	if err != nil {
		return EncryptObject{}, err
	}

	var nonce [meta.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return EncryptObject{}, vaulterr.Wrap(vaulterr.KindCiphertextEncryption, "generate nonce", err)
	}

	m := meta.New(nonce)
	metaBytes, err := m.ToJSON()
	if err != nil {
		return EncryptObject{}, err
	}

	ciphertext := gcm.Seal(nil, nonce[:], plaintext, metaBytes)

	return EncryptObject{
		DataKey:    dek.CiphertextBlob,
		Ciphertext: ciphertext,
		MetaBytes:  metaBytes,
	}, nil
}

// Open envelope-decrypts a ciphertext given its wrapped data key and the
// literal meta bytes read from storage. The meta bytes are used verbatim
// as AAD — never re-serialised from a parsed Meta — so that tampering
// with the stored .meta object invalidates the GCM tag.
func Open(ctx context.Context, kmsClient clients.KeyService, wrappedKey, ciphertext, metaBytes []byte) ([]byte, error) {
	m, err := meta.Parse(metaBytes)
	if err != nil {
		return nil, err
	}
	nonce, err := m.DecodedNonce()
	if err != nil {
		return nil, err
	}

	plaintextKey, err := DirectDecrypt(ctx, kmsClient, wrappedKey)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(plaintextKey)
	if err != nil {
		return nil, err
	}

	out, err := gcm.Open(nil, nonce[:], ciphertext, metaBytes)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindNonceDecryption, "open ciphertext", err)
	}
	return out, nil
}

// DirectEncrypt calls the KMS Encrypt operation against keyArn directly,
// without any local AES-GCM sealing.
func DirectEncrypt(ctx context.Context, kmsClient clients.KeyService, keyArn string, plaintext []byte) ([]byte, error) {
	if keyArn == "" {
		return nil, vaulterr.New(vaulterr.KindKeyArnMissing, "no key ARN configured, can't encrypt")
	}
	out, err := kmsClient.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(keyArn),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindEncrypt, "kms encrypt", err)
	}
	return out.CiphertextBlob, nil
}

// DirectDecrypt calls the KMS Decrypt operation on wrapped, inferring the
// key from the blob itself.
func DirectDecrypt(ctx context.Context, kmsClient clients.KeyService, wrapped []byte) ([]byte, error) {
	out, err := kmsClient.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob:      wrapped,
		EncryptionAlgorithm: types.EncryptionAlgorithmSpecSymmetricDefault,
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindDecrypt, "kms decrypt", err)
	}
	if out.Plaintext == nil {
		return nil, vaulterr.New(vaulterr.KindDataKeyPlaintextMissing, "no plaintext in kms decrypt response")
	}
	return out.Plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindInvalidNonceLength, "build AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindInvalidNonceLength, "build GCM", err)
	}
	return gcm, nil
}
