// Package vault implements the core secret operations: store, lookup,
// delete, enumerate, and ad-hoc direct encrypt/decrypt, against an S3
// object store and a KMS key service.
package vault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/bignyap/cloudvault/internal/clients"
	"github.com/bignyap/cloudvault/internal/config"
	"github.com/bignyap/cloudvault/internal/crypto"
	"github.com/bignyap/cloudvault/internal/logger"
	"github.com/bignyap/cloudvault/internal/objectnames"
	"github.com/bignyap/cloudvault/internal/value"
	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// Vault stores and retrieves secrets as envelope-encrypted S3 objects.
type Vault struct {
	objectStore clients.ObjectStore
	keyService  clients.KeyService
	bucket      string
	keyArn      string
	prefix      string
	log         logger.Logger
}

// New constructs a Vault from already-built clients and resolved params.
// Tests use this directly with fakes; production code typically goes
// through NewFromAWSConfig.
func New(params config.Params, objectStore clients.ObjectStore, keyService clients.KeyService, log logger.Logger) *Vault {
	if log == nil {
		log = logger.Noop()
	}
	return &Vault{
		objectStore: objectStore,
		keyService:  keyService,
		bucket:      params.Bucket,
		keyArn:      params.KeyArn,
		prefix:      params.Prefix,
		log:         log.WithComponent("vault"),
	}
}

// NewFromAWSConfig builds real S3 and KMS clients from cfg and wires them
// into a Vault using the already-resolved params.
func NewFromAWSConfig(cfg aws.Config, params config.Params, log logger.Logger) *Vault {
	return New(params, s3.NewFromConfig(cfg), kms.NewFromConfig(cfg), log)
}

func (v *Vault) combinedName(name string) string {
	return v.prefix + name
}

// Store envelope-encrypts data under name and writes all three sibling
// objects concurrently. A failure in any one leg cancels the other legs'
// context; Store returns the first error once all three legs have
// returned. No rollback of partial writes is attempted — matching the
// original implementation's best-effort model.
func (v *Vault) Store(ctx context.Context, name string, data []byte) error {
	enc, err := crypto.Seal(ctx, v.keyService, v.keyArn, data)
	if err != nil {
		v.log.Error("seal secret", err, logger.String("name", name))
		return err
	}

	names := objectnames.New(v.combinedName(name))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.putObject(gctx, names.Cipher, enc.Ciphertext) })
	g.Go(func() error { return v.putObject(gctx, names.Key, enc.DataKey) })
	g.Go(func() error { return v.putObject(gctx, names.Meta, enc.MetaBytes) })

	if err := g.Wait(); err != nil {
		v.log.Error("store failed", err, logger.String("name", name))
		return err
	}
	v.log.Info("stored secret", logger.String("name", name), logger.Int("bytes", len(data)))
	return nil
}

func (v *Vault) putObject(ctx context.Context, key string, body []byte) error {
	_, err := v.objectStore.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
		Body:   newReader(body),
		ACL:    types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindPut, fmt.Sprintf("put object %q", key), err)
	}
	return nil
}

// Exists reports whether name is present by heading its .key object only
// — no other sibling object is consulted, so a partially-written secret
// (two of three objects present) still reads as existing.
func (v *Vault) Exists(ctx context.Context, name string) (bool, error) {
	names := objectnames.New(v.combinedName(name))
	_, err := v.objectStore.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(names.Key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, vaulterr.Wrap(vaulterr.KindHead, fmt.Sprintf("head object %q", names.Key), err)
}

// Lookup fetches and decrypts the secret stored under name.
func (v *Vault) Lookup(ctx context.Context, name string) (value.Value, error) {
	combined := v.combinedName(name)
	names := objectnames.New(combined)

	var cipherBytes, keyBytes, metaBytes []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := v.getCipherObject(gctx, combined, names.Cipher)
		cipherBytes = b
		return err
	})
	g.Go(func() error {
		b, err := v.getObject(gctx, names.Key)
		keyBytes = b
		return err
	})
	g.Go(func() error {
		b, err := v.getObject(gctx, names.Meta)
		metaBytes = b
		return err
	})
	if err := g.Wait(); err != nil {
		v.log.Error("lookup failed", err, logger.String("name", name))
		return value.Value{}, err
	}

	plaintext, err := crypto.Open(ctx, v.keyService, keyBytes, cipherBytes, metaBytes)
	if err != nil {
		v.log.Error("open secret", err, logger.String("name", name))
		return value.Value{}, err
	}
	val := value.FromBytes(plaintext)
	v.log.Debug("decrypted secret", logger.String("name", name), logger.Bool("utf8", val.IsUtf8()))
	return val, nil
}

// getObject fetches a single sibling object, surfacing any failure
// (including not-found) as KindGet — the spec only special-cases
// not-found for the exists/delete preflight, not for lookups.
func (v *Vault) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := v.objectStore.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindGet, fmt.Sprintf("get object %q", key), err)
	}
	defer out.Body.Close()
	body, err := readAll(out.Body)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindBodyDecode, fmt.Sprintf("read object %q", key), err)
	}
	return body, nil
}

// getCipherObject fetches the sealed ciphertext object. If it's missing,
// it checks for a legacy (pre-AES-GCM) object under the same logical
// name and, if found, surfaces KindDeprecatedEncryption instead of a
// plain KindGet — no silent upgrade attempt.
func (v *Vault) getCipherObject(ctx context.Context, combinedName, cipherKey string) ([]byte, error) {
	out, err := v.objectStore.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(cipherKey),
	})
	if err != nil {
		if isNotFound(err) {
			legacyKey := objectnames.Legacy(combinedName)
			if _, headErr := v.objectStore.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(v.bucket),
				Key:    aws.String(legacyKey),
			}); headErr == nil {
				return nil, vaulterr.New(vaulterr.KindDeprecatedEncryption, fmt.Sprintf("%q was written by the deprecated pre-AES-GCM path", combinedName))
			}
		}
		return nil, vaulterr.Wrap(vaulterr.KindGet, fmt.Sprintf("get object %q", cipherKey), err)
	}
	defer out.Body.Close()
	body, err := readAll(out.Body)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KindBodyDecode, fmt.Sprintf("read object %q", cipherKey), err)
	}
	return body, nil
}

// Delete removes a single secret's three sibling objects, after
// confirming it exists.
func (v *Vault) Delete(ctx context.Context, name string) error {
	exists, err := v.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return vaulterr.New(vaulterr.KindKeyDoesNotExist, fmt.Sprintf("secret %q does not exist", name))
	}
	if err := v.deleteObjects(ctx, name); err != nil {
		v.log.Error("delete failed", err, logger.String("name", name))
		return err
	}
	v.log.Info("deleted secret", logger.String("name", name))
	return nil
}

// DeleteMany removes several secrets' objects in one batch DeleteObjects
// call per secret; existence is not pre-checked — deleting an absent
// object is a no-op as far as S3 is concerned.
func (v *Vault) DeleteMany(ctx context.Context, names []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range names {
		n := n
		g.Go(func() error { return v.deleteObjects(gctx, n) })
	}
	if err := g.Wait(); err != nil {
		v.log.Error("delete many failed", err, logger.Int("count", len(names)))
		return err
	}
	v.log.Info("deleted secrets", logger.Int("count", len(names)))
	return nil
}

func (v *Vault) deleteObjects(ctx context.Context, name string) error {
	names := objectnames.New(v.combinedName(name))
	_, err := v.objectStore.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(v.bucket),
		Delete: &types.Delete{
			Objects: []types.ObjectIdentifier{
				{Key: aws.String(names.Cipher)},
				{Key: aws.String(names.Key)},
				{Key: aws.String(names.Meta)},
			},
		},
	})
	if err != nil {
		return vaulterr.Wrap(vaulterr.KindDeleteBatch, fmt.Sprintf("delete objects for %q", name), err)
	}
	return nil
}

// All enumerates every secret name in the bucket. It does not filter the
// S3 listing by the configured prefix — it lists the whole bucket and
// reports every object ending in the cipher suffix, matching the
// original implementation rather than the narrower prefix-scoped read
// one might expect.
func (v *Vault) All(ctx context.Context) ([]string, error) {
	var names []string
	var continuationToken *string
	for {
		out, err := v.objectStore.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(v.bucket),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, vaulterr.Wrap(vaulterr.KindList, "list objects", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			if logical, ok := objectnames.StripCipherSuffix(*obj.Key); ok {
				names = append(names, logical)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuationToken = out.NextContinuationToken
	}
	return names, nil
}

// DirectEncrypt encrypts plaintext directly with the vault's KMS key,
// without AES-GCM envelope wrapping.
func (v *Vault) DirectEncrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	return crypto.DirectEncrypt(ctx, v.keyService, v.keyArn, plaintext)
}

// DirectDecrypt decrypts a blob produced by DirectEncrypt (or by KMS
// Encrypt against the same key outside the vault).
func (v *Vault) DirectDecrypt(ctx context.Context, wrapped []byte) ([]byte, error) {
	return crypto.DirectDecrypt(ctx, v.keyService, wrapped)
}

// Bucket returns the resolved bucket name the vault is operating against.
func (v *Vault) Bucket() string { return v.bucket }

// KeyArn returns the resolved KMS key ARN the vault is operating against.
func (v *Vault) KeyArn() string { return v.keyArn }
