package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopmcp/internal/model"
)

func TestCreatePaymentIntentSendsExpectedForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Fatalf("authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		checks := map[string]string{
			"amount":                                     "1250",
			"currency":                                   "eur",
			"payment_method":                             "pm_card_visa",
			"confirm":                                    "true",
			"automatic_payment_methods[enabled]":         "true",
			"automatic_payment_methods[allow_redirects]": "never",
		}
		for key, want := range checks {
			if got := r.PostForm.Get(key); got != want {
				t.Fatalf("form %q = %q, want %q", key, got, want)
			}
		}
		_, _ = w.Write([]byte(`{"id":"pi_123","status":"succeeded","amount":1250,"currency":"eur","client_secret":"pi_123_secret"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test_123", "", nil)
	intent, err := c.CreatePaymentIntent(context.Background(), 1250, "eur")
	if err != nil {
		t.Fatalf("CreatePaymentIntent failed: %v", err)
	}
	if intent.ID != "pi_123" || intent.Status != "succeeded" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestCreatePaymentIntentSurfacesStripeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined.","code":"card_declined"}}`))
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test_123", "", nil)
	_, err := c.CreatePaymentIntent(context.Background(), 500, "eur")
	var collab *model.CollaboratorError
	if !errors.As(err, &collab) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if collab.Message != "Your card was declined." {
		t.Fatalf("message = %q", collab.Message)
	}
	if collab.Retryable {
		t.Fatalf("4xx must not be retryable")
	}
}

func TestCreatePaymentIntentUnconfigured(t *testing.T) {
	c := NewStripeClient("", "", "", nil)
	if c.Configured() {
		t.Fatalf("client without key must report unconfigured")
	}
	_, err := c.CreatePaymentIntent(context.Background(), 500, "eur")
	if !errors.Is(err, model.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreatePaymentIntentCustomPaymentMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("payment_method"); got != "pm_custom" {
			t.Fatalf("payment_method = %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"pi_9","status":"processing","amount":100,"currency":"usd"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test_123", "pm_custom", nil)
	if _, err := c.CreatePaymentIntent(context.Background(), 100, "usd"); err != nil {
		t.Fatalf("CreatePaymentIntent failed: %v", err)
	}
}
