package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const signatureHeader = "X-Hub-Signature-256"

// SignatureHeader is the request header the provider signs payloads into.
func SignatureHeader() string {
	return signatureHeader
}

// VerifySignature checks the provider's webhook signature: an HMAC-SHA256 of
// the raw request body keyed by the access token, hex encoded and prefixed
// with "sha256=". Comparison is constant-time.
func VerifySignature(body []byte, header, accessToken string) bool {
	if header == "" || accessToken == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(accessToken))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(header), []byte(expected))
}
