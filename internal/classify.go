package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"glodipay/entity"
	"net/http"
)

// gatewayReply is the raw material a checkout response is classified from.
type gatewayReply struct {
	status int
	header http.Header
	body   []byte
}

// replyFallbacks are the request-derived defaults used when the gateway
// response omits a field.
type replyFallbacks struct {
	paymentUrl    string
	transactionId string
	termUrl       string
}

// classifyRule inspects a gateway reply and either claims it, producing a
// response, or passes. Rules are evaluated in order; the first match wins.
type classifyRule struct {
	name  string
	apply func(reply *gatewayReply, fb *replyFallbacks) *entity.PaymentResponse
}

// checkoutRules is the ordered classification of the gateway's inconsistent
// checkout responses: explicit redirect, HTML payment page, JSON body,
// lenient 2xx fallback, and finally failure for everything else.
var checkoutRules = []classifyRule{
	{name: "redirect", apply: redirectRule},
	{name: "html form", apply: htmlFormRule},
	{name: "json body", apply: jsonBodyRule},
	{name: "lenient body", apply: lenientBodyRule},
	{name: "failure", apply: failureRule},
}

// classifyCheckout runs the rule chain and returns the response together
// with the name of the rule that claimed the reply.
func classifyCheckout(reply *gatewayReply, fb *replyFallbacks) (*entity.PaymentResponse, string) {
	for _, rule := range checkoutRules {
		if response := rule.apply(reply, fb); response != nil {
			return response, rule.name
		}
	}
	// failureRule claims everything, so this is unreachable
	return failureRule(reply, fb), "failure"
}

// redirectRule treats 301/302 as success; the Location header is the payment
// redirect target, with a synthesized fallback when the gateway omits it.
func redirectRule(reply *gatewayReply, fb *replyFallbacks) *entity.PaymentResponse {
	if reply.status != http.StatusMovedPermanently && reply.status != http.StatusFound {
		return nil
	}
	paymentUrl := reply.header.Get("Location")
	if paymentUrl == "" {
		paymentUrl = fb.paymentUrl
	}
	return &entity.PaymentResponse{
		Success:       true,
		PaymentUrl:    paymentUrl,
		TransactionId: fb.transactionId,
	}
}

// htmlFormRule treats a 2xx HTML payment page as success; the checkout
// endpoint itself is the redirect target.
func htmlFormRule(reply *gatewayReply, fb *replyFallbacks) *entity.PaymentResponse {
	if !is2xx(reply.status) || !looksLikeHtml(reply.body) {
		return nil
	}
	return &entity.PaymentResponse{
		Success:       true,
		PaymentUrl:    fb.paymentUrl,
		TransactionId: fb.transactionId,
	}
}

// jsonBodyRule parses a 2xx JSON body, branching to 3-D Secure when the
// gateway asks for a step-up.
func jsonBodyRule(reply *gatewayReply, fb *replyFallbacks) *entity.PaymentResponse {
	if !is2xx(reply.status) {
		return nil
	}
	var parsed entity.CheckoutReply
	if err := json.Unmarshal(reply.body, &parsed); err != nil {
		return nil
	}

	if parsed.AcsUrl != "" && parsed.PaReq != "" {
		termUrl := parsed.TermUrl
		if termUrl == "" {
			termUrl = fb.termUrl
		}
		return &entity.PaymentResponse{
			Success:       true,
			TransactionId: firstOf(parsed.TransactionId, fb.transactionId),
			ThreeDSecure: &entity.ThreeDSecure{
				AcsUrl:  parsed.AcsUrl,
				MD:      parsed.MD,
				PaReq:   parsed.PaReq,
				TermUrl: termUrl,
			},
		}
	}

	return &entity.PaymentResponse{
		Success:       true,
		PaymentUrl:    firstOf(parsed.PaymentUrl, parsed.RedirectUrl, fb.paymentUrl),
		TransactionId: firstOf(parsed.TransactionId, fb.transactionId),
	}
}

// lenientBodyRule accepts any other 2xx with fallback values; the gateway's
// response shape varies and an unparseable body is not treated as failure.
func lenientBodyRule(reply *gatewayReply, fb *replyFallbacks) *entity.PaymentResponse {
	if !is2xx(reply.status) {
		return nil
	}
	return &entity.PaymentResponse{
		Success:       true,
		PaymentUrl:    fb.paymentUrl,
		TransactionId: fb.transactionId,
	}
}

func failureRule(reply *gatewayReply, _ *replyFallbacks) *entity.PaymentResponse {
	return &entity.PaymentResponse{
		Success: false,
		Error:   fmt.Sprintf("gateway returned status %d", reply.status),
	}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

func looksLikeHtml(body []byte) bool {
	lower := bytes.ToLower(body)
	return bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<form")) || bytes.Contains(lower, []byte("<!doctype"))
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
