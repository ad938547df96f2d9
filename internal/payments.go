package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"gitee.com/golang-module/dongle"
	"glodipay/config"
	"glodipay/entity"
	"glodipay/services"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	checkoutPath = "/v1/checkout"
	verifyPath   = "/payment/verify"

	merchantHeader = "X-Merchant-Id"
)

// Payments is the GloDiPay gateway client. Every payment attempt is an
// independent single-shot operation: build the canonical payload, sign it,
// self-verify, submit one form POST, classify the answer. The only shared
// state is the immutable configuration and signer, so any number of attempts
// may run concurrently. Duplicate-charge avoidance stays with the caller via
// the order reference; this client does not deduplicate or retry.
type Payments struct {
	conf        *config.Config
	database    services.Database
	logger      services.LogHandler
	signer      *Signer
	checkoutUrl string
	verifyUrl   string
	httpClient  *http.Client
}

// NewPayments creates the gateway client. Redirects from the gateway are
// captured, not followed: a 302 is a successful checkout handoff and its
// Location header is the product of the call.
func NewPayments(conf *config.Config, signer *Signer) *Payments {
	base := strings.TrimRight(conf.Merchant.GatewayUrl, "/")
	return &Payments{
		conf:        conf,
		signer:      signer,
		checkoutUrl: base + checkoutPath,
		verifyUrl:   base + verifyPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
	if p.conf.DisablePayment {
		p.logger.Warn("service disabled")
	} else {
		p.logger.Info("service enabled")
	}
}

// CreatePayment runs one payment attempt against the gateway checkout
// endpoint. Configuration defects (bad request, key trouble, a signature
// that fails local verification) are returned as errors before any network
// traffic; transport and gateway failures come back as a failure-shaped
// response with a nil error.
func (p *Payments) CreatePayment(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentResponse, error) {
	if p.conf.DisablePayment {
		return nil, fmt.Errorf("payment service disabled")
	}
	if p.conf.Merchant.Id == "" || p.conf.Merchant.GatewayUrl == "" {
		return nil, fmt.Errorf("merchant not configured")
	}
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payment request: %v", err)
	}

	parameters := CanonicalParameters(request, p.conf.Merchant.Id)
	payload, err := parameters.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize parameters: %v", err)
	}
	p.logger.Debug(fmt.Sprintf("canonical payload: %s", payload))

	signature, err := p.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("create signature: %v", err)
	}
	// fail fast on key mismatch before any money-moving traffic
	if !p.signer.Verify(payload, signature) {
		return nil, fmt.Errorf("local signature verification failed")
	}

	form := parameters.Values()
	form.Set("signature", signature)

	order := p.openOrder(ctx, request)

	response := p.submitCheckout(ctx, request, form)
	p.closeOrder(ctx, order, response)
	return response, nil
}

// submitCheckout posts the signed form and classifies the gateway's answer.
func (p *Payments) submitCheckout(ctx context.Context, request *entity.PaymentRequest, form url.Values) *entity.PaymentResponse {
	fb := &replyFallbacks{
		paymentUrl:    p.checkoutUrl + "?orderRef=" + url.QueryEscape(request.OrderRef),
		transactionId: request.OrderRef,
		termUrl:       request.ReturnUrl,
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.checkoutUrl, strings.NewReader(form.Encode()))
	if err != nil {
		p.logger.Error("create http request", err)
		return &entity.PaymentResponse{Success: false, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Error("checkout request timeout or cancelled", ctx.Err())
		} else {
			p.logger.Error("post checkout request", err)
		}
		return &entity.PaymentResponse{Success: false, Error: fmt.Sprintf("gateway request failed: %v", err)}
	}
	defer func(body io.ReadCloser) {
		if e := body.Close(); e != nil {
			p.logger.Error("close response body", e)
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("read response body", err)
		return &entity.PaymentResponse{Success: false, Error: fmt.Sprintf("read gateway response: %v", err)}
	}

	response, rule := classifyCheckout(&gatewayReply{
		status: resp.StatusCode,
		header: resp.Header,
		body:   body,
	}, fb)

	p.logger.Info(fmt.Sprintf("checkout %s: status %d classified as %s; success %v",
		request.OrderRef, resp.StatusCode, rule, response.Success))
	if !response.Success {
		p.logger.Debug(fmt.Sprintf("gateway body: %s", string(body)))
	}
	return response
}

// VerifyPayment asks the gateway's verify endpoint whether a transaction
// completed. Every failure mode, transport error, non-2xx status or
// malformed body, resolves to false rather than an error; the log carries
// the distinction for post-hoc review.
func (p *Payments) VerifyPayment(ctx context.Context, transactionId, signature string) bool {
	body, err := json.Marshal(&entity.VerifyRequest{
		TransactionId: transactionId,
		Signature:     signature,
	})
	if err != nil {
		p.logger.Error("encode verify request", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.verifyUrl, bytes.NewBuffer(body))
	if err != nil {
		p.logger.Error("create verify request", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(merchantHeader, p.conf.Merchant.Id)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error(fmt.Sprintf("verify %s: post request", secret(transactionId)), err)
		return false
	}
	defer func(body io.ReadCloser) {
		if e := body.Close(); e != nil {
			p.logger.Error("close response body", e)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warn(fmt.Sprintf("verify %s: gateway status %d", secret(transactionId), resp.StatusCode))
		return false
	}

	replyBody, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("read verify response", err)
		return false
	}
	var reply entity.VerifyReply
	if err = json.Unmarshal(replyBody, &reply); err != nil {
		p.logger.Warn(fmt.Sprintf("verify %s: unrecognized response: %s", secret(transactionId), string(replyBody)))
		return false
	}

	verified := reply.Success && reply.Status == "completed"
	p.logger.Info(fmt.Sprintf("verify %s: success %v; status %s", secret(transactionId), reply.Success, reply.Status))
	return verified
}

// Notify records a gateway callback against its payment order. The callback
// is form-encoded with orderRef, transaction_id, status and signature fields;
// the stored signature is what the reconciler later verifies with.
func (p *Payments) Notify(ctx context.Context, data []byte) error {
	params, err := url.ParseQuery(string(data))
	if err != nil {
		p.logger.Info(string(data))
		return fmt.Errorf("parse query: %v", err)
	}

	orderRef := params.Get("orderRef")
	if orderRef == "" {
		return fmt.Errorf("notification without order reference")
	}
	status := params.Get("status")
	p.logger.Info(fmt.Sprintf("notification: order %s; status %s", orderRef, status))

	if p.database == nil {
		return nil
	}
	order, err := p.database.GetPaymentOrder(ctx, orderRef)
	if err != nil {
		return fmt.Errorf("get payment order %s: %v", orderRef, err)
	}

	if id := params.Get("transaction_id"); id != "" {
		order.TransactionId = id
	}
	if sig := params.Get("signature"); sig != "" {
		order.Signature = sig
	}
	switch status {
	case "completed", "success":
		order.Close(entity.OrderStatusCompleted, fmt.Sprintf("%s by notification", status))
	case "failed", "cancelled", "error":
		order.Close(entity.OrderStatusFailed, fmt.Sprintf("%s by notification", status))
	}

	if err = p.database.SavePaymentOrder(ctx, order); err != nil {
		return fmt.Errorf("save payment order %s: %v", orderRef, err)
	}
	return nil
}

// openOrder persists the attempt before it goes out. Persistence is
// best-effort; a missing database never blocks a payment.
func (p *Payments) openOrder(ctx context.Context, request *entity.PaymentRequest) *entity.PaymentOrder {
	order := &entity.PaymentOrder{
		Order:             request.OrderRef,
		TransactionUnique: transactionUnique(request.OrderRef),
		Amount:            request.Amount.StringFixed(2),
		Currency:          request.Currency,
		Description:       request.Description,
		CustomerEmail:     request.CustomerEmail,
		CustomerName:      request.CustomerName,
		Status:            entity.OrderStatusOpen,
		TimeOpened:        time.Now(),
	}
	if p.database == nil {
		return order
	}
	if err := p.database.SavePaymentOrder(ctx, order); err != nil {
		p.logger.Error(fmt.Sprintf("save order %s", order.Order), err)
	}
	return order
}

func (p *Payments) closeOrder(ctx context.Context, order *entity.PaymentOrder, response *entity.PaymentResponse) {
	if response.Success {
		// order stays open until the notification or the reconciler
		// confirms the customer finished the checkout
		order.TransactionId = response.TransactionId
		order.PaymentUrl = response.PaymentUrl
	} else {
		order.Close(entity.OrderStatusFailed, response.Error)
	}
	if p.database == nil {
		return
	}
	if err := p.database.SavePaymentOrder(ctx, order); err != nil {
		p.logger.Error(fmt.Sprintf("save order %s", order.Order), err)
	}
}

// transactionUnique derives the per-attempt key from the order reference and
// the submission time. It is tracking metadata only and never enters the
// signed payload, which must stay deterministic for a fixed request.
func transactionUnique(orderRef string) string {
	seed := fmt.Sprintf("%s:%d", orderRef, time.Now().UnixNano())
	return dongle.Encrypt.FromString(seed).ByMd5().ToHexString()
}

func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
