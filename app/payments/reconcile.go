package payments

import (
	"context"
	"errors"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"
)

// Reconcile repairs the intermediate state the two-phase payment apply can
// leave behind: a completed payment whose user never received the entitlement.
func Reconcile(ctx context.Context, storage mongo.Storage, statsdClient *statsd.Client) error {
	payments, err := storage.ListCompletedPayments(ctx)
	if err != nil {
		return err
	}

	for _, payment := range payments {
		user, err := storage.FindUser(ctx, payment.UserID)
		if errors.Is(err, lib.ErrNotFound) {
			log.Errorf("Reconcile: payment %s references missing user %s", payment.ID, payment.UserID)
			continue
		}
		if err != nil {
			return err
		}
		if user.SubscriptionStatus == models.ProSubscriptionName {
			continue
		}

		log.Warnf("Reconcile: repairing entitlement for user %s (payment %s)", user.ID, payment.ID)
		if err := storage.UpgradeUserToPro(ctx, user.ID); err != nil {
			return err
		}
		statsdClient.Incr("payments.reconcile.repaired", nil, 1)
	}
	return nil
}
