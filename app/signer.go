package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"strings"
)

// SignatureHeader is the HTTP header carrying the payload signature.
const SignatureHeader = "X-Signature"

var signatureHeaderPattern = regexp.MustCompile(`^sha256=[a-f0-9]+$`)

// Sign computes the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue formats a signature for the X-Signature header.
func SignatureHeaderValue(payload []byte, secret string) string {
	return "sha256=" + Sign(payload, secret)
}

// Verify checks a hex-encoded HMAC-SHA256 signature against payload using a
// constant-time comparison. Length mismatches always fail.
func Verify(payload []byte, signatureHex string, secret string) bool {
	expected := Sign(payload, secret)
	if len(expected) != len(signatureHex) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureHex)) == 1
}

// ParseSignatureHeader extracts the hex digest from an "sha256=<hex>" header
// value. Anything that does not match the exact format is rejected.
func ParseSignatureHeader(value string) (string, error) {
	if !signatureHeaderPattern.MatchString(value) {
		return "", NewError(KindAuth, "INVALID_SIGNATURE_FORMAT", "signature header must be sha256=<lowercase hex>")
	}
	return strings.TrimPrefix(value, "sha256="), nil
}

// VerifyHeader validates an X-Signature header value against payload.
func VerifyHeader(payload []byte, headerValue string, secret string) error {
	digest, err := ParseSignatureHeader(headerValue)
	if err != nil {
		return err
	}
	if !Verify(payload, digest, secret) {
		return NewError(KindAuth, "SIGNATURE_MISMATCH", "signature does not match payload")
	}
	return nil
}
