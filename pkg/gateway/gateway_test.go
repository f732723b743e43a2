package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"innkeep/pkg/logger"
)

func testClient(keySecret, webhookSecret string) *Client {
	return New(Config{
		BaseURL:       "https://gateway.test",
		KeyID:         "key_test",
		KeySecret:     keySecret,
		WebhookSecret: webhookSecret,
		Log:           logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
	})
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := testClient("secret123", "")

	valid := sign("secret123", []byte("order_abc|pay_xyz"))
	if !c.VerifyPaymentSignature("order_abc", "pay_xyz", valid) {
		t.Error("valid signature rejected")
	}
	if c.VerifyPaymentSignature("order_abc", "pay_xyz", "deadbeef") {
		t.Error("invalid signature accepted")
	}
	if c.VerifyPaymentSignature("order_other", "pay_xyz", valid) {
		t.Error("signature for different order accepted")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	c := testClient("apisecret", "hooksecret")
	if !c.VerifyWebhookSignature(body, sign("hooksecret", body)) {
		t.Error("valid webhook signature rejected")
	}
	if c.VerifyWebhookSignature(body, sign("apisecret", body)) {
		t.Error("signature with wrong secret accepted when webhook secret is set")
	}

	// Without a dedicated webhook secret the API secret is used.
	c = testClient("apisecret", "")
	if !c.VerifyWebhookSignature(body, sign("apisecret", body)) {
		t.Error("fallback to API secret failed")
	}
}

func TestConfigured(t *testing.T) {
	if testClient("", "").Configured() {
		t.Error("client without secret reported configured")
	}
	if !testClient("secret", "").Configured() {
		t.Error("client with credentials reported unconfigured")
	}
}
