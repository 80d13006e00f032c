package lib

import (
	"context"
	"errors"
	"researchchat/m/v2/app/db/redis"
	"researchchat/m/v2/app/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotaStore struct {
	user       *models.MongoUser
	consumeErr error
	consumed   int
}

func (s *fakeQuotaStore) ConsumeChatAttempt(ctx context.Context, userID string) (bool, error) {
	if s.consumeErr != nil {
		return false, s.consumeErr
	}
	if s.user == nil || s.user.SubscriptionStatus != models.FreeSubscriptionName || s.user.ChatAttempts >= models.FreeChatAttemptsLimit {
		return false, nil
	}
	s.user.ChatAttempts++
	s.consumed++
	return true, nil
}

func (s *fakeQuotaStore) FindUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	if s.user == nil {
		return nil, ErrNotFound
	}
	copied := *s.user
	return &copied, nil
}

func newTestGate(store QuotaStore) *QuotaGate {
	return NewQuotaGate(store, redis.NewMockRedisClient(), nil)
}

func TestAdmit_NonUserOriginated(t *testing.T) {
	store := &fakeQuotaStore{user: &models.MongoUser{ID: "u1", SubscriptionStatus: models.FreeSubscriptionName, ChatAttempts: models.FreeChatAttemptsLimit}}
	gate := newTestGate(store)

	// model-produced turns always pass and never touch the counter
	err := gate.Admit(context.Background(), store.user, false)
	require.NoError(t, err)
	assert.Zero(t, store.consumed)
}

func TestAdmit_ProNeverDenied(t *testing.T) {
	store := &fakeQuotaStore{user: &models.MongoUser{ID: "u1", SubscriptionStatus: models.ProSubscriptionName, ChatAttempts: 100}}
	gate := newTestGate(store)

	for i := 0; i < 10; i++ {
		require.NoError(t, gate.Admit(context.Background(), store.user, true))
	}
	assert.Zero(t, store.consumed)
}

func TestAdmit_FreeBelowLimit(t *testing.T) {
	store := &fakeQuotaStore{user: &models.MongoUser{ID: "u1", SubscriptionStatus: models.FreeSubscriptionName, ChatAttempts: models.FreeChatAttemptsLimit - 1}}
	gate := newTestGate(store)

	err := gate.Admit(context.Background(), store.user, true)
	require.NoError(t, err)
	assert.Equal(t, models.FreeChatAttemptsLimit, store.user.ChatAttempts)
}

func TestAdmit_FreeAtLimit(t *testing.T) {
	store := &fakeQuotaStore{user: &models.MongoUser{ID: "u1", SubscriptionStatus: models.FreeSubscriptionName, ChatAttempts: models.FreeChatAttemptsLimit}}
	gate := newTestGate(store)

	err := gate.Admit(context.Background(), store.user, true)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, models.FreeChatAttemptsLimit, store.user.ChatAttempts)
}

func TestAdmit_ConcurrentUpgradeAllows(t *testing.T) {
	// the caller read a free user, but the consume misses because the user
	// was upgraded in between
	store := &fakeQuotaStore{user: &models.MongoUser{ID: "u1", SubscriptionStatus: models.ProSubscriptionName}}
	gate := newTestGate(store)

	staleUser := &models.MongoUser{ID: "u1", SubscriptionStatus: models.FreeSubscriptionName, ChatAttempts: 3}
	err := gate.Admit(context.Background(), staleUser, true)
	require.NoError(t, err)
}

func TestAdmit_StoreFailure(t *testing.T) {
	store := &fakeQuotaStore{
		user:       &models.MongoUser{ID: "u1", SubscriptionStatus: models.FreeSubscriptionName},
		consumeErr: errors.New("connection reset"),
	}
	gate := newTestGate(store)

	err := gate.Admit(context.Background(), store.user, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
}
