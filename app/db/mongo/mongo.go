package mongo

import (
	"context"
	"errors"
	"fmt"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UserCollection    = "users"
	MessageCollection = "messages"
	PaymentCollection = "payments"
)

// Client is a mongo client
type Client struct {
	*mongo.Client
	dbName string
}

type Storage interface {
	ConsumeChatAttempt(ctx context.Context, userID string) (bool, error)
	Disconnect(ctx context.Context) error
	FindUser(ctx context.Context, userID string) (*models.MongoUser, error)
	GetOrCreateUser(ctx context.Context, userID string) (*models.MongoUser, error)
	InsertMessage(ctx context.Context, userID, text string, isFromUser bool) (*models.MongoMessage, error)
	InsertPayment(ctx context.Context, payment *models.MongoPayment) error
	ListCompletedPayments(ctx context.Context) ([]models.MongoPayment, error)
	ListMessages(ctx context.Context, userID string) ([]models.MongoMessage, error)
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	UpgradeUserToPro(ctx context.Context, userID string) error
}

// NewClient creates a new mongo client
func NewClient(connection, dbName string) *Client {
	return &Client{
		Client: mustConnect(connection),
		dbName: dbName,
	}
}

// mustConnect connects to mongo and panics on error
func mustConnect(connection string) *mongo.Client {
	client, err := mongo.NewClient(options.Client().ApplyURI(connection).SetMaxConnecting(25))
	if err != nil {
		logrus.WithError(err).Panic("failed to create mongo client")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		logrus.WithError(err).Panic("failed to connect to mongo")
	}

	return client
}

func (c *Client) users() *mongo.Collection {
	return c.Database(c.dbName).Collection(UserCollection)
}

func (c *Client) messages() *mongo.Collection {
	return c.Database(c.dbName).Collection(MessageCollection)
}

func (c *Client) payments() *mongo.Collection {
	return c.Database(c.dbName).Collection(PaymentCollection)
}

// GetOrCreateUser returns the user document, creating a free-tier one on first
// access.
func (c *Client) GetOrCreateUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"subscription_status": models.FreeSubscriptionName,
			"chat_attempts":       0,
			"created_at":          now,
			"updated_at":          now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var user models.MongoUser
	err := c.users().FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateUser: %w", err)
	}
	return &user, nil
}

func (c *Client) FindUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	var user models.MongoUser
	err := c.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lib.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindUser: %w", err)
	}
	return &user, nil
}

// ConsumeChatAttempt admits one user-originated message for a free user and
// increments the attempt counter in the same conditional update, so two
// concurrent messages at the limit boundary can never both be admitted.
func (c *Client) ConsumeChatAttempt(ctx context.Context, userID string) (bool, error) {
	filter := bson.M{
		"_id":                 userID,
		"subscription_status": models.FreeSubscriptionName,
		"chat_attempts":       bson.M{"$lt": models.FreeChatAttemptsLimit},
	}
	update := bson.M{
		"$inc": bson.M{"chat_attempts": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	err := c.users().FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ConsumeChatAttempt: %w", err)
	}
	return true, nil
}

func (c *Client) InsertMessage(ctx context.Context, userID, text string, isFromUser bool) (*models.MongoMessage, error) {
	message := &models.MongoMessage{
		ID:         uuid.NewString(),
		UserID:     userID,
		Message:    text,
		IsFromUser: isFromUser,
		Timestamp:  time.Now().UTC(),
	}
	_, err := c.messages().InsertOne(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("InsertMessage: %w", err)
	}
	return message, nil
}

func (c *Client) ListMessages(ctx context.Context, userID string) ([]models.MongoMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := c.messages().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}

	messages := []models.MongoMessage{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	return messages, nil
}

func (c *Client) InsertPayment(ctx context.Context, payment *models.MongoPayment) error {
	_, err := c.payments().InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("InsertPayment: %w", err)
	}
	return nil
}

// UpgradeUserToPro grants the entitlement and resets the attempt counter. The
// counter is reset exactly here and nowhere else.
func (c *Client) UpgradeUserToPro(ctx context.Context, userID string) error {
	update := bson.M{
		"$set": bson.M{
			"subscription_status": models.ProSubscriptionName,
			"chat_attempts":       0,
			"updated_at":          time.Now().UTC(),
		},
	}
	result, err := c.users().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("UpgradeUserToPro: %w", err)
	}
	if result.MatchedCount == 0 {
		return lib.ErrNotFound
	}
	return nil
}

// ListCompletedPayments feeds the entitlement reconciliation sweep.
func (c *Client) ListCompletedPayments(ctx context.Context) ([]models.MongoPayment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.payments().Find(ctx, bson.M{"status": models.PaymentStatusCompleted}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListCompletedPayments: %w", err)
	}

	payments := []models.MongoPayment{}
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("ListCompletedPayments: %w", err)
	}
	return payments, nil
}
