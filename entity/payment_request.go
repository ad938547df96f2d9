// Package entity defines data models for the GloDiPay payment service.
package entity

import (
	"fmt"
	"github.com/shopspring/decimal"
)

// PaymentRequest describes a single payment attempt as supplied by the caller.
// The order reference is the caller's idempotency key; it must be unique per
// attempted charge.
type PaymentRequest struct {
	// Amount in major currency units (e.g. 19.50)
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	// OrderRef is the caller-supplied tracking key, unique per attempt
	OrderRef      string `json:"order_ref"`
	Description   string `json:"description"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	ReturnUrl     string `json:"return_url"`
	CancelUrl     string `json:"cancel_url"`
}

// Validate checks the request invariants before any signing work is done.
func (r *PaymentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", r.Amount.String())
	}
	if r.OrderRef == "" {
		return fmt.Errorf("empty order reference")
	}
	return nil
}
