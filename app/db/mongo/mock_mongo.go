package mongo

import (
	"context"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStorage is an in-memory Storage for unit tests of the gate, the
// verifier and the HTTP handlers.
type MockStorage struct {
	Storage

	mu       sync.Mutex
	Users    map[string]*models.MongoUser
	Messages []models.MongoMessage
	Payments []models.MongoPayment
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Users: make(map[string]*models.MongoUser),
	}
}

func (m *MockStorage) GetOrCreateUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	now := time.Now().UTC()
	user := &models.MongoUser{
		ID:                 userID,
		SubscriptionStatus: models.FreeSubscriptionName,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m.Users[userID] = user
	copied := *user
	return &copied, nil
}

func (m *MockStorage) FindUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[userID]
	if !ok {
		return nil, lib.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockStorage) ConsumeChatAttempt(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[userID]
	if !ok || user.SubscriptionStatus != models.FreeSubscriptionName || user.ChatAttempts >= models.FreeChatAttemptsLimit {
		return false, nil
	}
	user.ChatAttempts++
	user.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MockStorage) InsertMessage(ctx context.Context, userID, text string, isFromUser bool) (*models.MongoMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message := models.MongoMessage{
		ID:         uuid.NewString(),
		UserID:     userID,
		Message:    text,
		IsFromUser: isFromUser,
		Timestamp:  time.Now().UTC(),
	}
	m.Messages = append(m.Messages, message)
	return &message, nil
}

func (m *MockStorage) ListMessages(ctx context.Context, userID string) ([]models.MongoMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := []models.MongoMessage{}
	for _, message := range m.Messages {
		if message.UserID == userID {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (m *MockStorage) InsertPayment(ctx context.Context, payment *models.MongoPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payments = append(m.Payments, *payment)
	return nil
}

func (m *MockStorage) UpgradeUserToPro(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[userID]
	if !ok {
		return lib.ErrNotFound
	}
	user.SubscriptionStatus = models.ProSubscriptionName
	user.ChatAttempts = 0
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockStorage) ListCompletedPayments(ctx context.Context) ([]models.MongoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payments := []models.MongoPayment{}
	for _, payment := range m.Payments {
		if payment.Status == models.PaymentStatusCompleted {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}
