package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/db/redis"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type VerificationRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	UserID    string
	Method    string
}

// Verifier adjudicates claimed payment completions: signature first, then the
// order's bound identity, then the entitlement grant. Nothing is mutated on
// any rejected branch.
type Verifier struct {
	gateway Gateway
	storage mongo.Storage
	secret  string
	redis   redis.Client
	statsd  *statsd.Client
}

func NewVerifier(gateway Gateway, storage mongo.Storage, secret string, redisClient redis.Client, statsdClient *statsd.Client) *Verifier {
	return &Verifier{
		gateway: gateway,
		storage: storage,
		secret:  secret,
		redis:   redisClient,
		statsd:  statsdClient,
	}
}

// Signature is the keyed hash the gateway signs a settled payment with:
// HMAC-SHA256 over "orderID|paymentID", hex encoded.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *Verifier) Verify(ctx context.Context, request VerificationRequest) (*models.MongoPayment, error) {
	expected := Signature(request.OrderID, request.PaymentID, v.secret)
	if !hmac.Equal([]byte(expected), []byte(request.Signature)) {
		log.Warnf("invalid payment signature for order %s", request.OrderID)
		v.statsd.Incr("payments.verify.rejected", []string{"reason:signature"}, 1)
		return nil, lib.ErrSignatureInvalid
	}

	order, err := v.gateway.FetchOrder(request.OrderID)
	if err != nil {
		if isOrderMissing(err) {
			v.statsd.Incr("payments.verify.rejected", []string{"reason:order_not_found"}, 1)
			return nil, lib.ErrOrderNotFound
		}
		log.Errorf("Verify: fetching order %s: %v", request.OrderID, err)
		return nil, &lib.UpstreamError{Provider: "razorpay", Message: err.Error()}
	}
	if len(order) == 0 {
		v.statsd.Incr("payments.verify.rejected", []string{"reason:order_not_found"}, 1)
		return nil, lib.ErrOrderNotFound
	}

	boundUserID := orderNote(order, models.OrderNoteUserID)
	if boundUserID == "" || boundUserID != request.UserID {
		log.Warnf("user identity mismatch! claimed: %s, order notes: %s", request.UserID, boundUserID)
		v.statsd.Incr("payments.verify.rejected", []string{"reason:identity"}, 1)
		return nil, lib.ErrIdentityMismatch
	}

	user, err := v.storage.FindUser(ctx, boundUserID)
	if errors.Is(err, lib.ErrNotFound) {
		// an issued order should never reference a user we don't have
		log.Errorf("user %s not found after verifying payment for order %s", boundUserID, request.OrderID)
		return nil, lib.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	method := request.Method
	if method == "" {
		method = "unknown"
	}
	payment := &models.MongoPayment{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Amount:        orderAmount(order),
		Currency:      orderString(order, "currency"),
		Status:        models.PaymentStatusCompleted,
		OrderID:       request.OrderID,
		TransactionID: request.PaymentID,
		Receipt:       orderString(order, "receipt"),
		Method:        method,
		CreatedAt:     time.Now().UTC(),
	}

	// Two-phase apply: stage the payment record first, grant the entitlement
	// second. A crash between the phases is repaired by Reconcile.
	if err := v.storage.InsertPayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := v.storage.UpgradeUserToPro(ctx, user.ID); err != nil {
		log.Errorf("payment %s staged but entitlement grant failed for user %s: %v", payment.ID, user.ID, err)
		return nil, err
	}

	v.statsd.Incr("payments.verify.applied", []string{"currency:" + payment.Currency}, 1)
	if v.redis != nil {
		v.redis.IncrBy(ctx, lib.SystemTotalPaymentsCompletedKey, 1)
	}
	return payment, nil
}

// The SDK surfaces an unknown order id as a BAD_REQUEST_ERROR whose body says
// "The id provided does not exist", not as an empty result.
func isOrderMissing(err error) bool {
	return strings.Contains(err.Error(), "does not exist")
}

func orderString(order map[string]interface{}, key string) string {
	value, _ := order[key].(string)
	return value
}

func orderNote(order map[string]interface{}, key string) string {
	notes, _ := order["notes"].(map[string]interface{})
	value, _ := notes[key].(string)
	return value
}

// orderAmount reads the gateway's settled amount in minor units; JSON numbers
// decode as float64.
func orderAmount(order map[string]interface{}) int64 {
	switch value := order["amount"].(type) {
	case float64:
		return int64(math.Round(value))
	case int64:
		return value
	case int:
		return int64(value)
	default:
		return 0
	}
}
