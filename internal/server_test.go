package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"glodipay/config"
	"glodipay/entity"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type stubPayments struct {
	response *entity.PaymentResponse
	err      error
	verified bool
	notified [][]byte
}

func (s *stubPayments) CreatePayment(_ context.Context, _ *entity.PaymentRequest) (*entity.PaymentResponse, error) {
	return s.response, s.err
}

func (s *stubPayments) VerifyPayment(_ context.Context, _, _ string) bool {
	return s.verified
}

func (s *stubPayments) Notify(_ context.Context, data []byte) error {
	s.notified = append(s.notified, data)
	return nil
}

func newTestServer(stub *stubPayments) *httptest.Server {
	server := NewServer(&config.Config{})
	server.SetLogger(NewLogger("server-test", false, nil))
	server.SetPaymentsService(stub)

	router := httprouter.New()
	server.Register(router)
	return httptest.NewServer(router)
}

func TestCreatePaymentRoute(t *testing.T) {
	stub := &stubPayments{
		response: &entity.PaymentResponse{
			Success:       true,
			PaymentUrl:    "https://gw.example/pay/abc",
			TransactionId: "tx-9",
		},
	}
	ts := newTestServer(stub)
	defer ts.Close()

	body, _ := json.Marshal(testRequest())
	resp, err := http.Post(ts.URL+createPayment, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var decoded entity.PaymentResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Success || decoded.PaymentUrl != "https://gw.example/pay/abc" {
		t.Fatalf("unexpected response: %+v", decoded)
	}
}

func TestCreatePaymentRouteBadBody(t *testing.T) {
	ts := newTestServer(&stubPayments{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+createPayment, "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVerifyPaymentRoute(t *testing.T) {
	ts := newTestServer(&stubPayments{verified: true})
	defer ts.Close()

	body, _ := json.Marshal(&entity.VerifyRequest{TransactionId: "tx-9", Signature: "sig"})
	resp, err := http.Post(ts.URL+verifyPayment, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var decoded map[string]bool
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded["verified"] {
		t.Fatalf("unexpected response: %+v", decoded)
	}
}

func TestVerifyPaymentRouteEmptyTransaction(t *testing.T) {
	ts := newTestServer(&stubPayments{verified: true})
	defer ts.Close()

	body, _ := json.Marshal(&entity.VerifyRequest{Signature: "sig"})
	resp, err := http.Post(ts.URL+verifyPayment, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPaymentNotifyRoute(t *testing.T) {
	stub := &stubPayments{}
	ts := newTestServer(stub)
	defer ts.Close()

	payload := "orderRef=VISA-1042&status=completed&transaction_id=tx-9&signature=sig"
	resp, err := http.Post(ts.URL+paymentNotify, "application/x-www-form-urlencoded", bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(stub.notified) != 1 || string(stub.notified[0]) != payload {
		t.Fatalf("notification not forwarded: %v", stub.notified)
	}
}
