package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopmcp/internal/model"
)

const (
	// DefaultBaseURL is the live Stripe API endpoint.
	DefaultBaseURL = "https://api.stripe.com"

	// DefaultPaymentMethod is Stripe's shared test card token, used when no
	// payment method is configured.
	DefaultPaymentMethod = "pm_card_visa"

	requestTimeout = 15 * time.Second
)

// StripeClient creates payment intents over Stripe's form-encoded REST API.
// Only the create-intent operation is used, so the full SDK stays out.
type StripeClient struct {
	baseURL       string
	secretKey     string
	paymentMethod string
	httpClient    *http.Client
}

func NewStripeClient(baseURL, secretKey, paymentMethod string, httpClient *http.Client) *StripeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &StripeClient{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secretKey:     strings.TrimSpace(secretKey),
		paymentMethod: paymentMethod,
		httpClient:    httpClient,
	}
}

// Configured reports whether a secret key is present.
func (c *StripeClient) Configured() bool {
	return c.secretKey != ""
}

// CreatePaymentIntent creates and auto-confirms a payment intent with
// automatic payment methods enabled and redirects disabled. Amount is in the
// currency's smallest unit; the caller validates it is positive.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (model.PaymentIntent, error) {
	if !c.Configured() {
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:      "stripe.create_intent",
			Code:    "config_invalid",
			Message: "stripe secret key is not configured",
			Cause:   model.ErrNotConfigured,
		}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("payment_method", c.paymentMethod)
	form.Set("confirm", "true")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")

	endpoint := c.baseURL + "/v1/payment_intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:      "stripe.create_intent",
			Code:    "config_invalid",
			Message: "failed to create payment request",
			Cause:   err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:        "stripe.create_intent",
			Code:      "unavailable",
			Message:   "payment provider request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:        "stripe.create_intent",
			Code:      "unavailable",
			Message:   "failed to read payment provider response",
			Retryable: true,
			Cause:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := extractStripeError(body)
		if message == "" {
			message = fmt.Sprintf("payment intent creation failed with status %d", resp.StatusCode)
		}
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:         "stripe.create_intent",
			Code:       "create_failed",
			Message:    message,
			Retryable:  resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}

	var intent model.PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return model.PaymentIntent{}, &model.CollaboratorError{
			Op:      "stripe.create_intent",
			Code:    "bad_response",
			Message: "payment provider returned malformed response",
			Cause:   err,
		}
	}
	return intent, nil
}

func extractStripeError(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error.Message)
}
