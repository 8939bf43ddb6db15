// Package objectnames derives the three physical S3 object keys used to
// store one logical secret.
package objectnames

// CipherSuffix is the suffix identifying a sealed ciphertext object and
// the only suffix All() enumerates on.
const CipherSuffix = ".aesgcm.encrypted"

const (
	keySuffix  = ".key"
	metaSuffix = ".meta"
)

// LegacySuffix identifies an object written by the deprecated,
// pre-AES-GCM encryption path. It is never written, only detected.
const LegacySuffix = ".encrypted"

// Legacy returns the deprecated pre-AES-GCM ciphertext key for
// combinedName, used only to detect it, never to write it.
func Legacy(combinedName string) string {
	return combinedName + LegacySuffix
}

// Names holds the three sibling object keys derived from one combined
// (prefix+logical) secret name.
type Names struct {
	Cipher string
	Key    string
	Meta   string
}

// New derives the three object keys for combinedName.
func New(combinedName string) Names {
	return Names{
		Cipher: combinedName + CipherSuffix,
		Key:    combinedName + keySuffix,
		Meta:   combinedName + metaSuffix,
	}
}

// StripCipherSuffix returns the logical name for an object key ending in
// CipherSuffix, and false if it doesn't.
func StripCipherSuffix(objectKey string) (string, bool) {
	if len(objectKey) < len(CipherSuffix) {
		return "", false
	}
	cut := len(objectKey) - len(CipherSuffix)
	if objectKey[cut:] != CipherSuffix {
		return "", false
	}
	return objectKey[:cut], true
}
