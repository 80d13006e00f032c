package models

import "time"

type MongoSubscriptionName string

const (
	FreeSubscriptionName MongoSubscriptionName = "free"
	ProSubscriptionName  MongoSubscriptionName = "pro"
)

// FreeChatAttemptsLimit is the lifetime number of user-originated messages a
// free user may send before upgrading. There is no time-based reset.
const FreeChatAttemptsLimit = 6

type MongoUser struct {
	// ID is the external auth subject identifier.
	ID                 string                `bson:"_id" json:"userId"`
	SubscriptionStatus MongoSubscriptionName `bson:"subscription_status" json:"subscriptionStatus"`
	ChatAttempts       int                   `bson:"chat_attempts" json:"chatAttempts"`
	CreatedAt          time.Time             `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time             `bson:"updated_at" json:"updatedAt"`
}

type MongoMessage struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"userId"`
	Message    string    `bson:"message" json:"message"`
	IsFromUser bool      `bson:"is_from_user" json:"isFromUser"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type MongoPayment struct {
	ID     string `bson:"_id" json:"id"`
	UserID string `bson:"user_id" json:"userId"`
	// Amount is in minor currency units, as settled by the gateway.
	Amount        int64     `bson:"amount" json:"amount"`
	Currency      string    `bson:"currency" json:"currency"`
	Status        string    `bson:"status" json:"status"`
	OrderID       string    `bson:"order_id" json:"orderId"`
	TransactionID string    `bson:"transaction_id" json:"transactionId"`
	Receipt       string    `bson:"receipt" json:"receipt"`
	Method        string    `bson:"method" json:"method"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}
