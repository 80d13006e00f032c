// Periodically repairs completed payments whose entitlement grant never landed.
package reconcile

import (
	"context"
	"researchchat/m/v2/app/config"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/payments"
	"time"

	log "github.com/sirupsen/logrus"
	backoff "gopkg.in/cenkalti/backoff.v1"
)

func Run(cfg *config.Config, storage mongo.Storage) func() {
	return func() {
		sweep := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			return payments.Reconcile(ctx, storage, cfg.DataDogClient)
		}
		if err := backoff.Retry(sweep, backoff.NewExponentialBackOff()); err != nil {
			log.Errorf("reconcile sweep failed: %v", err)
			return
		}
		log.Info("finished entitlement reconciliation")
	}
}
