package entity

// CheckoutReply is the JSON body the gateway may return from the checkout
// endpoint. The gateway's response shape is inconsistent, so every field is
// optional and missing values fall back to request-derived defaults.
type CheckoutReply struct {
	Success       bool   `json:"success"`
	PaymentUrl    string `json:"payment_url"`
	RedirectUrl   string `json:"redirect_url"`
	TransactionId string `json:"transaction_id"`
	// 3-D Secure step-up fields
	AcsUrl  string `json:"acs_url"`
	MD      string `json:"md"`
	PaReq   string `json:"pa_req"`
	TermUrl string `json:"term_url"`
}

// VerifyRequest is the body of the secondary server-side verification call.
type VerifyRequest struct {
	TransactionId string `json:"transaction_id"`
	Signature     string `json:"signature"`
}

// VerifyReply is the gateway's answer to a verification call.
// A payment counts as verified only when Success is true and Status
// is "completed".
type VerifyReply struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}
