package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(body []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const token = "test-access-token"
	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)

	if !VerifySignature(body, sign(body, token), token) {
		t.Error("correct HMAC over the exact body must pass")
	}

	// Tampered body with the original header must fail.
	tampered := []byte(`{"object":"whatsapp_business_account","entry":[{}]}`)
	if VerifySignature(tampered, sign(body, token), token) {
		t.Error("tampered body must fail verification even with an unchanged header")
	}

	if VerifySignature(body, sign(body, "other-token"), token) {
		t.Error("signature keyed by a different token must fail")
	}

	if VerifySignature(body, "", token) {
		t.Error("empty header must fail")
	}

	if VerifySignature(body, sign(body, token), "") {
		t.Error("empty access token must fail closed")
	}
}
