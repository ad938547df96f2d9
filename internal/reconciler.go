package internal

import (
	"context"
	"fmt"
	"github.com/robfig/cron/v3"
	"glodipay/config"
	"glodipay/entity"
	"glodipay/services"
	"time"
)

// Reconciler sweeps payment orders that are still open long after submission
// and asks the gateway what really happened. Orders can be left open when the
// customer never returns from the redirect or the notification is lost; this
// worker closes the ones the gateway reports as completed.
type Reconciler struct {
	conf     *config.Config
	payments services.Payments
	database services.Database
	logger   services.LogHandler
	cron     *cron.Cron
}

func NewReconciler(conf *config.Config, payments services.Payments, database services.Database) *Reconciler {
	return &Reconciler{
		conf:     conf,
		payments: payments,
		database: database,
		cron:     cron.New(),
	}
}

func (r *Reconciler) SetLogger(logger services.LogHandler) {
	r.logger = logger
}

// Start schedules the sweep. Without a database there is nothing to
// reconcile and the worker stays idle.
func (r *Reconciler) Start() error {
	if !r.conf.Reconcile.Enabled {
		r.logger.Info("reconciler disabled")
		return nil
	}
	if r.database == nil {
		r.logger.Warn("reconciler idle: no database")
		return nil
	}
	_, err := r.cron.AddFunc(r.conf.Reconcile.Schedule, r.sweep)
	if err != nil {
		return fmt.Errorf("schedule reconciler: %v", err)
	}
	r.cron.Start()
	r.logger.Info(fmt.Sprintf("reconciler scheduled: %s", r.conf.Reconcile.Schedule))
	return nil
}

func (r *Reconciler) Stop() {
	r.cron.Stop()
}

func (r *Reconciler) sweep() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in reconciler sweep", fmt.Errorf("panic: %v", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(r.conf.Reconcile.MinAgeMinutes) * time.Minute)
	orders, err := r.database.GetOpenOrders(ctx, cutoff)
	if err != nil {
		r.logger.Error("get open orders", err)
		return
	}
	if len(orders) == 0 {
		return
	}
	r.logger.Info(fmt.Sprintf("reconciling %d open orders", len(orders)))

	for i := range orders {
		order := &orders[i]
		// nothing to verify until the gateway callback supplied a
		// transaction id and signature
		if order.TransactionId == "" || order.Signature == "" {
			continue
		}
		if !r.payments.VerifyPayment(ctx, order.TransactionId, order.Signature) {
			continue
		}
		order.Close(entity.OrderStatusCompleted, "completed by reconciler")
		if err = r.database.SavePaymentOrder(ctx, order); err != nil {
			r.logger.Error(fmt.Sprintf("save order %s", order.Order), err)
			continue
		}
		r.logger.Info(fmt.Sprintf("order %s closed by reconciler", order.Order))
	}
}
