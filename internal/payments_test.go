package internal

import (
	"context"
	"glodipay/config"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestPayments(t *testing.T, gatewayUrl string) *Payments {
	t.Helper()
	privatePem, publicPem := testKeyPair(t)
	signer, err := NewSigner(privatePem, publicPem)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	conf := &config.Config{}
	conf.Merchant.Id = "GLODI-001"
	conf.Merchant.GatewayUrl = gatewayUrl
	payments := NewPayments(conf, signer)
	payments.SetLogger(NewLogger("payments-test", false, nil))
	return payments
}

func TestCreatePaymentRedirect(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != checkoutPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("merchantId") != "GLODI-001" {
			t.Errorf("merchantId = %q", r.PostForm.Get("merchantId"))
		}
		if r.PostForm.Get("amount") != "19.50" {
			t.Errorf("amount = %q", r.PostForm.Get("amount"))
		}
		if r.PostForm.Get("signature") == "" {
			t.Error("signature field missing")
		}
		w.Header().Set("Location", "https://gw.example/pay/abc")
		w.WriteHeader(http.StatusFound)
	}))
	defer gateway.Close()

	payments := newTestPayments(t, gateway.URL)
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if !response.Success {
		t.Fatalf("unexpected failure: %+v", response)
	}
	if response.PaymentUrl != "https://gw.example/pay/abc" {
		t.Fatalf("payment url = %q", response.PaymentUrl)
	}
}

func TestCreatePaymentFailureStatus(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer gateway.Close()

	payments := newTestPayments(t, gateway.URL)
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if response.Success {
		t.Fatal("400 classified as success")
	}
	if !strings.Contains(response.Error, "400") {
		t.Fatalf("error does not mention status: %s", response.Error)
	}
}

func TestCreatePaymentHtmlBody(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><form method=\"post\"></form></html>"))
	}))
	defer gateway.Close()

	payments := newTestPayments(t, gateway.URL)
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if !response.Success {
		t.Fatalf("unexpected failure: %+v", response)
	}
	if !strings.HasPrefix(response.PaymentUrl, payments.checkoutUrl) {
		t.Fatalf("payment url %q does not target the checkout endpoint", response.PaymentUrl)
	}
}

func TestCreatePaymentJsonBody(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"payment_url":"https://gw.example/pay/xyz","transaction_id":"tx-9"}`))
	}))
	defer gateway.Close()

	payments := newTestPayments(t, gateway.URL)
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if !response.Success || response.PaymentUrl != "https://gw.example/pay/xyz" || response.TransactionId != "tx-9" {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestCreatePaymentThreeDSecure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"acs_url":"https://acs.example/step-up","md":"md-1","pa_req":"pareq-1"}`))
	}))
	defer gateway.Close()

	payments := newTestPayments(t, gateway.URL)
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if response.ThreeDSecure == nil {
		t.Fatalf("step-up branch not taken: %+v", response)
	}
	if response.ThreeDSecure.TermUrl != "https://portal.example/pay/return" {
		t.Fatalf("term url = %q", response.ThreeDSecure.TermUrl)
	}
}

func TestCreatePaymentNetworkError(t *testing.T) {
	payments := newTestPayments(t, "http://127.0.0.1:1")
	response, err := payments.CreatePayment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("transport error escaped as error: %v", err)
	}
	if response.Success {
		t.Fatal("network failure classified as success")
	}
	if response.Error == "" {
		t.Fatal("failure response missing message")
	}
}

func TestCreatePaymentInvalidRequest(t *testing.T) {
	payments := newTestPayments(t, "http://127.0.0.1:1")

	request := testRequest()
	request.Amount = request.Amount.Neg()
	if _, err := payments.CreatePayment(context.Background(), request); err == nil {
		t.Error("negative amount accepted")
	}

	request = testRequest()
	request.OrderRef = ""
	if _, err := payments.CreatePayment(context.Background(), request); err == nil {
		t.Error("empty order reference accepted")
	}
}

func TestCreatePaymentAbortsOnLocalVerifyFailure(t *testing.T) {
	var calls int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer gateway.Close()

	// private key from one pair, public key from another: signatures are
	// valid but never verify locally
	privateA, _ := testKeyPair(t)
	_, publicB := testKeyPair(t)
	signer, err := NewSigner(privateA, publicB)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	conf := &config.Config{}
	conf.Merchant.Id = "GLODI-001"
	conf.Merchant.GatewayUrl = gateway.URL
	payments := NewPayments(conf, signer)
	payments.SetLogger(NewLogger("payments-test", false, nil))

	_, err = payments.CreatePayment(context.Background(), testRequest())
	if err == nil {
		t.Fatal("mismatched key pair not rejected")
	}
	if !strings.Contains(err.Error(), "local signature verification failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("gateway was called despite local verification failure")
	}
}

func TestVerifyPayment(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"completed", 200, `{"success":true,"status":"completed"}`, true},
		{"pending", 200, `{"success":true,"status":"pending"}`, false},
		{"not successful", 200, `{"success":false,"status":"completed"}`, false},
		{"gateway error", 500, `{}`, false},
		{"malformed body", 200, `not json`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != verifyPath {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Header.Get(merchantHeader) != "GLODI-001" {
					t.Errorf("merchant header = %q", r.Header.Get(merchantHeader))
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer gateway.Close()

			payments := newTestPayments(t, gateway.URL)
			if got := payments.VerifyPayment(context.Background(), "tx-9", "sig"); got != tc.want {
				t.Fatalf("verified = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifyPaymentNetworkError(t *testing.T) {
	payments := newTestPayments(t, "http://127.0.0.1:1")
	if payments.VerifyPayment(context.Background(), "tx-9", "sig") {
		t.Fatal("network error reported as verified")
	}
}

func TestTransactionUniqueDiffersBetweenAttempts(t *testing.T) {
	a := transactionUnique("VISA-1042")
	b := transactionUnique("VISA-1042")
	if a == "" || b == "" {
		t.Fatal("empty transaction unique key")
	}
	if a == b {
		t.Fatal("transaction unique key repeated across attempts")
	}
}
