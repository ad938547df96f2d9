package services

import (
	"context"
	"glodipay/entity"
	"time"
)

type Database interface {
	WriteLogMessage(data Data) error

	SavePaymentOrder(ctx context.Context, order *entity.PaymentOrder) error
	GetPaymentOrder(ctx context.Context, orderRef string) (*entity.PaymentOrder, error)
	GetOpenOrders(ctx context.Context, openedBefore time.Time) ([]entity.PaymentOrder, error)
}

type Data interface {
	DataType() string
}
