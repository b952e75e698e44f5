package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLen is the length of a hex encoded fingerprint.
const FingerprintLen = sha256.Size * 2

// Fingerprint returns the deduplication key of an item: the hex sha256 of
// the text bytes followed by the link bytes. A missing link is "".
//
// The byte layout matches what the legacy parser stored in content_hash, so
// rows it wrote keep colliding with new submissions of the same post.
func Fingerprint(text, link string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte(link))
	return hex.EncodeToString(h.Sum(nil))
}

// IsFingerprint reports whether s looks like a value produced by Fingerprint.
func IsFingerprint(s string) bool {
	if len(s) != FingerprintLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
