package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"

	"innkeep/pkg/client"
	"innkeep/pkg/logger"
)

// Client talks to the Razorpay-compatible payment gateway. It is constructed
// once at startup and injected into the payment service; there is no package
// level state.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	http          *client.HttpClient
	log           *logger.Logger
}

type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Log           *logger.Logger
}

func New(cfg Config) *Client {
	return &Client{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		http:          client.NewHttpClient(cfg.BaseURL),
		log:           cfg.Log,
	}
}

// Configured reports whether gateway credentials were provided. Online
// payments are rejected up front when they were not.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// Order is the gateway-side order a client pays against. Amount is in the
// smallest currency unit (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order with the gateway. amount is in rupees; the
// gateway API wants paise.
func (c *Client) CreateOrder(amount float64, currency, receipt string) (*Order, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("payment gateway is not configured")
	}

	req := orderRequest{
		Amount:   int64(amount * 100),
		Currency: currency,
		Receipt:  receipt,
	}

	resp, err := c.http.POSTWithHeaders("/orders", req, map[string]string{
		"Authorization": c.basicAuth(),
	})
	if err != nil {
		return nil, fmt.Errorf("gateway order request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway order creation failed: status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var order Order
	if err := resp.DecodeJSON(&order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order: %w", err)
	}

	c.log.Info("Gateway order created", "order_id", order.ID, "amount", order.Amount, "receipt", order.Receipt)
	return &order, nil
}

// VerifyPaymentSignature checks the checkout callback signature: HMAC-SHA256
// over "orderID|paymentID" keyed by the API secret, hex encoded.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook signature: HMAC-SHA256 over the
// raw request body keyed by the webhook secret. Falls back to the API secret
// when no dedicated webhook secret is configured, matching gateway behavior.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	secret := c.webhookSecret
	if secret == "" {
		secret = c.keySecret
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.keyID+":"+c.keySecret))
}

// WebhookEvent is the subset of the gateway webhook payload the backend
// consumes.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Method  string `json:"method"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

const EventPaymentCaptured = "payment.captured"
