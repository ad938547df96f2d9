package entity

// PaymentResponse is the outcome of a payment attempt returned to the caller.
// Exactly one of the three shapes applies: plain success (PaymentUrl and
// TransactionId set), success requiring a 3-D Secure step-up (ThreeDSecure
// set), or failure (Error set).
type PaymentResponse struct {
	Success       bool          `json:"success"`
	PaymentUrl    string        `json:"payment_url,omitempty"`
	TransactionId string        `json:"transaction_id,omitempty"`
	Error         string        `json:"error,omitempty"`
	ThreeDSecure  *ThreeDSecure `json:"three_d_secure,omitempty"`
}

// ThreeDSecure carries the fields needed to auto-submit a 3-D Secure
// step-up form to the issuer's access control server.
type ThreeDSecure struct {
	AcsUrl  string `json:"acs_url"`
	MD      string `json:"md"`
	PaReq   string `json:"pa_req"`
	TermUrl string `json:"term_url"`
}
