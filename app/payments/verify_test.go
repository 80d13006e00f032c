package payments

import (
	"context"
	"errors"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

func newTestVerifier(gateway Gateway, storage mongo.Storage) *Verifier {
	return NewVerifier(gateway, storage, testSecret, nil, nil)
}

func freeUserStorage(t *testing.T, userID string) *mongo.MockStorage {
	t.Helper()
	storage := mongo.NewMockStorage()
	_, err := storage.GetOrCreateUser(context.Background(), userID)
	require.NoError(t, err)
	return storage
}

func TestSignature(t *testing.T) {
	// HMAC-SHA256 of "order_1|pay_1" keyed by "s3cr3t"
	assert.Equal(t,
		"c4ba7785e595b717abd8b4847eaf30e97f23acbdbe1b8f5cbbf17d28d63b068f",
		Signature("order_1", "pay_1", testSecret))
}

func TestVerify_InvalidSignature(t *testing.T) {
	gateway := newFakeGateway()
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	valid := Signature("order_1", "pay_1", testSecret)

	// any single-character mutation of a valid signature is rejected
	mutated := []byte(valid)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}

	for _, signature := range []string{string(mutated), "", "deadbeef"} {
		_, err := verifier.Verify(context.Background(), VerificationRequest{
			OrderID:   "order_1",
			PaymentID: "pay_1",
			Signature: signature,
			UserID:    "user_1",
		})
		assert.ErrorIs(t, err, lib.ErrSignatureInvalid)
	}

	// rejected before anything else runs
	assert.Zero(t, gateway.fetchCalls)
	assert.Empty(t, storage.Payments)
	user, _ := storage.FindUser(context.Background(), "user_1")
	assert.Equal(t, models.FreeSubscriptionName, user.SubscriptionStatus)
}

func TestVerify_OrderNotFound(t *testing.T) {
	gateway := newFakeGateway()
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	_, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_unknown",
		PaymentID: "pay_1",
		Signature: Signature("order_unknown", "pay_1", testSecret),
		UserID:    "user_1",
	})
	assert.ErrorIs(t, err, lib.ErrOrderNotFound)
	assert.Empty(t, storage.Payments)
}

func TestVerify_OrderMissingAtGateway(t *testing.T) {
	gateway := newFakeGateway()
	gateway.fetchErr = errors.New(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`)
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	_, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_gone",
		PaymentID: "pay_1",
		Signature: Signature("order_gone", "pay_1", testSecret),
		UserID:    "user_1",
	})
	assert.ErrorIs(t, err, lib.ErrOrderNotFound)
	assert.Empty(t, storage.Payments)
}

func TestVerify_GatewayFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.fetchErr = errors.New("gateway timeout")
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	_, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Signature("order_1", "pay_1", testSecret),
		UserID:    "user_1",
	})

	var upstream *lib.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Empty(t, storage.Payments)
}

func TestVerify_IdentityMismatch(t *testing.T) {
	gateway := newFakeGateway()
	gateway.orders["order_1"] = map[string]interface{}{
		"id":       "order_1",
		"amount":   float64(49950),
		"currency": "INR",
		"receipt":  "receipt_user_other_1700000000000",
		"notes":    map[string]interface{}{models.OrderNoteUserID: "user_other"},
	}
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	_, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Signature("order_1", "pay_1", testSecret),
		UserID:    "user_1",
	})
	assert.ErrorIs(t, err, lib.ErrIdentityMismatch)

	// the user's subscription state is untouched
	user, _ := storage.FindUser(context.Background(), "user_1")
	assert.Equal(t, models.FreeSubscriptionName, user.SubscriptionStatus)
	assert.Empty(t, storage.Payments)
}

func TestVerify_UserNotFound(t *testing.T) {
	gateway := newFakeGateway()
	gateway.orders["order_1"] = map[string]interface{}{
		"id":    "order_1",
		"notes": map[string]interface{}{models.OrderNoteUserID: "user_ghost"},
	}
	storage := mongo.NewMockStorage()
	verifier := newTestVerifier(gateway, storage)

	_, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Signature("order_1", "pay_1", testSecret),
		UserID:    "user_ghost",
	})
	assert.ErrorIs(t, err, lib.ErrNotFound)
	assert.Empty(t, storage.Payments)
}

func TestVerify_Applied(t *testing.T) {
	gateway := newFakeGateway()
	gateway.orders["order_1"] = map[string]interface{}{
		"id":       "order_1",
		"amount":   float64(49950),
		"currency": "INR",
		"receipt":  "receipt_user_1_1700000000000",
		"notes":    map[string]interface{}{models.OrderNoteUserID: "user_1"},
	}
	storage := freeUserStorage(t, "user_1")
	verifier := newTestVerifier(gateway, storage)

	payment, err := verifier.Verify(context.Background(), VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Signature("order_1", "pay_1", testSecret),
		UserID:    "user_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "user_1", payment.UserID)
	assert.Equal(t, int64(49950), payment.Amount)
	assert.Equal(t, "INR", payment.Currency)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "order_1", payment.OrderID)
	assert.Equal(t, "pay_1", payment.TransactionID)
	assert.Equal(t, "receipt_user_1_1700000000000", payment.Receipt)
	assert.Equal(t, "unknown", payment.Method)

	require.Len(t, storage.Payments, 1)
	user, _ := storage.FindUser(context.Background(), "user_1")
	assert.Equal(t, models.ProSubscriptionName, user.SubscriptionStatus)
	assert.Equal(t, 0, user.ChatAttempts)
}

func TestReconcile_RepairsStagedPayment(t *testing.T) {
	storage := freeUserStorage(t, "user_1")

	// a completed payment whose entitlement grant never landed
	err := storage.InsertPayment(context.Background(), &models.MongoPayment{
		ID:            "payment_1",
		UserID:        "user_1",
		Amount:        49950,
		Currency:      "INR",
		Status:        models.PaymentStatusCompleted,
		OrderID:       "order_1",
		TransactionID: "pay_1",
	})
	require.NoError(t, err)

	require.NoError(t, Reconcile(context.Background(), storage, nil))

	user, _ := storage.FindUser(context.Background(), "user_1")
	assert.Equal(t, models.ProSubscriptionName, user.SubscriptionStatus)
	assert.Equal(t, 0, user.ChatAttempts)
}

func TestReconcile_LeavesProUsersAlone(t *testing.T) {
	storage := freeUserStorage(t, "user_1")
	require.NoError(t, storage.UpgradeUserToPro(context.Background(), "user_1"))
	require.NoError(t, storage.InsertPayment(context.Background(), &models.MongoPayment{
		ID:     "payment_1",
		UserID: "user_1",
		Status: models.PaymentStatusCompleted,
	}))

	require.NoError(t, Reconcile(context.Background(), storage, nil))

	user, _ := storage.FindUser(context.Background(), "user_1")
	assert.Equal(t, models.ProSubscriptionName, user.SubscriptionStatus)
}
