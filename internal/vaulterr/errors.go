// Package vaulterr defines the closed set of error kinds surfaced by the
// vault core. Every external failure path is wrapped into an *Error
// carrying a Kind so callers can switch on it instead of string-matching.
package vaulterr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a vault error.
type Kind int

const (
	KindUnknown Kind = iota

	// Configuration
	KindNoRegion
	KindKeyArnMissing
	KindBucketNameMissing
	KindStackOutputsMissing
	KindStackVersionNotFound
	KindMissingAccountID
	KindMissingStackID
	KindMissingStackStatus

	// Object store
	KindGet
	KindPut
	KindHead
	KindList
	KindDelete
	KindDeleteBatch
	KindBuildIdentifier
	KindBodyDecode
	KindNoContents
	KindKeyDoesNotExist
	KindAlreadyExists

	// Key service
	KindGenerateDataKey
	KindEncrypt
	KindDecrypt
	KindDataKeyPlaintextMissing
	KindDataKeyCiphertextMissing

	// Cryptography
	KindInvalidNonceLength
	KindCiphertextEncryption
	KindNonceDecryption
	KindNonUtf8Body
	KindDeprecatedEncryption

	// Serialisation
	KindMetaJSON
	KindNonceBase64

	// Provisioning
	KindDescribeStack
	KindCreateStack
	KindUpdateStack
	KindDeleteStack
	KindListStacks
	KindCloudFormationError

	// I/O
	KindFileRead
	KindStdinRead
	KindCallerID
)

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown",
	KindNoRegion:                 "no_region",
	KindKeyArnMissing:            "key_arn_missing",
	KindBucketNameMissing:        "bucket_name_missing",
	KindStackOutputsMissing:      "stack_outputs_missing",
	KindStackVersionNotFound:     "stack_version_not_found",
	KindMissingAccountID:         "missing_account_id",
	KindMissingStackID:           "missing_stack_id",
	KindMissingStackStatus:       "missing_stack_status",
	KindGet:                      "s3_get",
	KindPut:                      "s3_put",
	KindHead:                     "s3_head",
	KindList:                     "s3_list",
	KindDelete:                   "s3_delete",
	KindDeleteBatch:              "s3_delete_batch",
	KindBuildIdentifier:          "s3_build_identifier",
	KindBodyDecode:               "s3_body_decode",
	KindNoContents:               "s3_no_contents",
	KindKeyDoesNotExist:          "key_does_not_exist",
	KindAlreadyExists:            "already_exists",
	KindGenerateDataKey:          "kms_generate_data_key",
	KindEncrypt:                  "kms_encrypt",
	KindDecrypt:                  "kms_decrypt",
	KindDataKeyPlaintextMissing:  "kms_data_key_plaintext_missing",
	KindDataKeyCiphertextMissing: "kms_data_key_ciphertext_missing",
	KindInvalidNonceLength:       "invalid_nonce_length",
	KindCiphertextEncryption:     "ciphertext_encryption",
	KindNonceDecryption:          "nonce_decryption",
	KindNonUtf8Body:              "non_utf8_body",
	KindDeprecatedEncryption:     "deprecated_encryption",
	KindMetaJSON:                 "meta_json",
	KindNonceBase64:              "nonce_base64",
	KindDescribeStack:            "describe_stack",
	KindCreateStack:              "create_stack",
	KindUpdateStack:              "update_stack",
	KindDeleteStack:              "delete_stack",
	KindListStacks:               "list_stacks",
	KindCloudFormationError:      "cloudformation_error",
	KindFileRead:                 "file_read",
	KindStdinRead:                "stdin_read",
	KindCallerID:                 "caller_id",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is the closed tagged-variant error type for the vault core.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error that carries cause as its Unwrap() target.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a vaulterr.Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
// Returns KindUnknown for any other error, including nil.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
