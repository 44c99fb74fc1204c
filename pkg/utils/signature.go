package utils

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignBody returns the hex HMAC-SHA256 of body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "sha256=<hex>", "sha1=<hex>" or bare hex (sha256) header against body.
func VerifySignature(secret string, body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if secret == "" || header == "" {
		return false
	}

	newHash := sha256.New
	if algo, sig, ok := strings.Cut(header, "="); ok {
		switch strings.ToLower(algo) {
		case "sha256":
		case "sha1":
			newHash = sha1.New
		default:
			return false
		}
		header = sig
	}

	got, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
