// Periodically gauges availability of the store and both model providers.
package status

import (
	"context"
	"researchchat/m/v2/app/ai/gemini"
	"researchchat/m/v2/app/ai/nebius"
	"researchchat/m/v2/app/config"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/db/redis"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func Run(cfg *config.Config, storage mongo.Storage, redisClient redis.Client, geminiAPI *gemini.API, nebiusAPI *nebius.API) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		mongoUp := storage.Ping(ctx, readpref.Primary()) == nil
		redisUp := redisClient.Ping(ctx).Err() == nil
		geminiUp := geminiAPI.IsAvailable(ctx)
		nebiusUp := nebiusAPI.IsAvailable(ctx)

		gauge(cfg, "mongo", mongoUp)
		gauge(cfg, "redis", redisUp)
		gauge(cfg, "gemini", geminiUp)
		gauge(cfg, "nebius", nebiusUp)

		log.Infof("status: mongo=%t redis=%t gemini=%t nebius=%t", mongoUp, redisUp, geminiUp, nebiusUp)
	}
}

func gauge(cfg *config.Config, name string, up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	cfg.DataDogClient.Gauge("status_worker.up", value, []string{"dependency:" + name}, 1)
}
