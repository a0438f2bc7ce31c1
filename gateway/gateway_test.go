package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreatePaymentRequest(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "sk_test")
	intent, err := client.CreatePaymentRequest(context.Background(), PaymentRequest{
		Amount:             900,
		Currency:           "jpy",
		DestinationAccount: "acct_merchant",
		ApplicationFee:     30,
		Metadata: map[string]string{
			"payment_code":  "12345",
			"customer_code": "C001",
		},
	})
	if err != nil {
		t.Fatalf("create payment request: %v", err)
	}
	if intent.Reference != "pi_123" {
		t.Errorf("reference = %s", intent.Reference)
	}

	want := map[string]string{
		"amount":                     "900",
		"currency":                   "jpy",
		"transfer_data[destination]": "acct_merchant",
		"application_fee_amount":     "30",
		"metadata[payment_code]":     "12345",
		"metadata[customer_code]":    "C001",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestCreatePaymentRequestGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "sk_test")
	_, err := client.CreatePaymentRequest(context.Background(), PaymentRequest{Amount: 100})
	if !errors.Is(err, ErrGatewayRequest) {
		t.Fatalf("got %v, want ErrGatewayRequest", err)
	}
}

func TestInterpretEvent(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		outcome string
		amount  int64
		wantErr bool
	}{
		{
			name:    "succeeded",
			raw:     `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":900,"status":"succeeded"}}}`,
			outcome: OutcomeSucceeded,
			amount:  900,
		},
		{
			name:    "failed",
			raw:     `{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","amount":900,"status":"requires_payment_method"}}}`,
			outcome: OutcomeFailed,
			amount:  900,
		},
		{
			name:    "canceled maps to failed",
			raw:     `{"id":"evt_3","type":"payment_intent.canceled","data":{"object":{"id":"pi_3","amount":500,"status":"canceled"}}}`,
			outcome: OutcomeFailed,
			amount:  500,
		},
		{
			name:    "unknown type fails closed",
			raw:     `{"id":"evt_4","type":"charge.refunded","data":{"object":{"id":"pi_4","amount":100,"status":"succeeded"}}}`,
			outcome: OutcomeFailed,
		},
		{
			name:    "success type with wrong status fails closed",
			raw:     `{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{"id":"pi_5","amount":100,"status":"processing"}}}`,
			outcome: OutcomeFailed,
		},
		{name: "garbage", raw: `not json`, wantErr: true},
		{name: "missing reference", raw: `{"id":"evt_6","type":"payment_intent.succeeded","data":{"object":{}}}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := InterpretEvent([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedEvent) {
					t.Fatalf("got %v, want ErrMalformedEvent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("interpret: %v", err)
			}
			if ev.Outcome != tc.outcome {
				t.Errorf("outcome = %s, want %s", ev.Outcome, tc.outcome)
			}
			if tc.amount != 0 && ev.SettledAmount != tc.amount {
				t.Errorf("amount = %d, want %d", ev.SettledAmount, tc.amount)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	now := time.Now().Unix()

	header := SignatureHeader(now, payload, secret)
	if err := VerifySignature(payload, header, secret, DefaultSignatureTolerance); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := VerifySignature(payload, header, "whsec_other", DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wrong secret: got %v", err)
	}
	if err := VerifySignature([]byte("tampered"), header, secret, DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("tampered payload: got %v", err)
	}
	if err := VerifySignature(payload, "", secret, DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("missing header: got %v", err)
	}

	stale := SignatureHeader(now-3600, payload, secret)
	if err := VerifySignature(payload, stale, secret, DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("stale timestamp: got %v", err)
	}

	withExtra := header + ",v1=deadbeef"
	if err := VerifySignature(payload, withExtra, secret, DefaultSignatureTolerance); err != nil {
		t.Errorf("extra candidate signature should still verify: %v", err)
	}
}
