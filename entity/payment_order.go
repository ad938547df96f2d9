package entity

import "time"

// Payment order statuses.
const (
	OrderStatusOpen      = "open"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// PaymentOrder is the persisted record of a payment attempt. One document is
// written when the attempt is submitted and updated when the gateway answers,
// when its callback arrives, or when the reconciler closes the order.
type PaymentOrder struct {
	// Order is the caller-supplied order reference
	Order string `json:"order" bson:"order"`
	// TransactionUnique is the per-attempt key derived from the order
	// reference and the submission timestamp
	TransactionUnique string `json:"transaction_unique" bson:"transaction_unique"`
	TransactionId     string `json:"transaction_id" bson:"transaction_id"`
	// Signature received from the gateway callback, used for later
	// server-side verification
	Signature     string    `json:"signature" bson:"signature"`
	Amount        string    `json:"amount" bson:"amount"`
	Currency      string    `json:"currency" bson:"currency"`
	Description   string    `json:"description" bson:"description"`
	CustomerEmail string    `json:"customer_email" bson:"customer_email"`
	CustomerName  string    `json:"customer_name" bson:"customer_name"`
	PaymentUrl    string    `json:"payment_url" bson:"payment_url"`
	Status        string    `json:"status" bson:"status"`
	Result        string    `json:"result" bson:"result"`
	TimeOpened    time.Time `json:"time_opened" bson:"time_opened"`
	TimeClosed    time.Time `json:"time_closed" bson:"time_closed"`
}

// IsOpen reports whether the order is still awaiting a final outcome.
func (o *PaymentOrder) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

// Close marks the order finished with the given status and result text.
func (o *PaymentOrder) Close(status, result string) {
	o.Status = status
	o.Result = result
	o.TimeClosed = time.Now()
}
