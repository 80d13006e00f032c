package lib

import (
	"context"
	"fmt"
	"researchchat/m/v2/app/db/redis"
	"researchchat/m/v2/app/models"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"
)

// QuotaStore is the slice of storage the gate needs. The admission decision and
// the counter increment are a single conditional update in the store.
type QuotaStore interface {
	ConsumeChatAttempt(ctx context.Context, userID string) (bool, error)
	FindUser(ctx context.Context, userID string) (*models.MongoUser, error)
}

type QuotaGate struct {
	store  QuotaStore
	redis  redis.Client
	statsd *statsd.Client
}

func NewQuotaGate(store QuotaStore, redisClient redis.Client, statsdClient *statsd.Client) *QuotaGate {
	return &QuotaGate{
		store:  store,
		redis:  redisClient,
		statsd: statsdClient,
	}
}

// Admit decides whether a message may be recorded. Quota is lifetime-cumulative
// for free users: the counter never decays, only an upgrade resets it.
func (g *QuotaGate) Admit(ctx context.Context, user *models.MongoUser, isFromUser bool) error {
	if !isFromUser {
		return nil
	}
	if user.SubscriptionStatus == models.ProSubscriptionName {
		return nil
	}

	admitted, err := g.store.ConsumeChatAttempt(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("Admit: %w", err)
	}
	if admitted {
		g.count("quota.admitted", SystemTotalMessagesAdmittedKey)
		return nil
	}

	// The conditional update also misses when the user was upgraded between the
	// caller's read and this write, so re-read before denying.
	fresh, err := g.store.FindUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("Admit: %w", err)
	}
	if fresh.SubscriptionStatus == models.ProSubscriptionName {
		return nil
	}

	log.Infof("quota exceeded for user %s at %d attempts", user.ID, fresh.ChatAttempts)
	g.count("quota.denied", SystemTotalMessagesDeniedKey)
	return ErrQuotaExceeded
}

func (g *QuotaGate) count(metric, redisKey string) {
	g.statsd.Incr(metric, nil, 1)
	if g.redis != nil {
		g.redis.IncrBy(context.Background(), redisKey, 1)
	}
}
