package payments

import (
	"context"
	"fmt"
	"math"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"
)

const DefaultCurrency = "INR"

// Issuer creates payment orders with the gateway, binding each order to a user
// identity through server-issued notes metadata.
type Issuer struct {
	gateway Gateway
	statsd  *statsd.Client
}

func NewIssuer(gateway Gateway, statsdClient *statsd.Client) *Issuer {
	return &Issuer{
		gateway: gateway,
		statsd:  statsdClient,
	}
}

func (i *Issuer) CreateOrder(ctx context.Context, userID string, amount float64, currency string) (models.OrderHandle, error) {
	if currency == "" {
		currency = DefaultCurrency
	}

	data := map[string]interface{}{
		"amount":   MinorUnits(amount),
		"currency": currency,
		"receipt":  Receipt(userID, time.Now()),
		"notes": map[string]interface{}{
			models.OrderNoteUserID: userID,
		},
	}

	order, err := i.gateway.CreateOrder(data)
	if err != nil {
		log.Errorf("CreateOrder: gateway rejected order for user %s: %v", userID, err)
		i.statsd.Incr("payments.order.failed", nil, 1)
		return nil, &lib.UpstreamError{Provider: "razorpay", Message: err.Error()}
	}

	i.statsd.Incr("payments.order.created", []string{"currency:" + currency}, 1)
	return models.OrderHandle(order), nil
}

// MinorUnits converts a whole-currency amount to the gateway's minor units.
// Exact for two-decimal currencies, a rounding boundary for anything else.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Receipt derives a reconciliation id from the user identity and the issuance
// instant. Two orders in the same millisecond for the same user collide.
func Receipt(userID string, issuedAt time.Time) string {
	return fmt.Sprintf("receipt_%s_%d", userID, issuedAt.UnixMilli())
}
