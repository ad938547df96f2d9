package services

import (
	"context"
	"glodipay/entity"
)

type Payments interface {
	CreatePayment(ctx context.Context, request *entity.PaymentRequest) (*entity.PaymentResponse, error)
	VerifyPayment(ctx context.Context, transactionId, signature string) bool
	Notify(ctx context.Context, data []byte) error
}
