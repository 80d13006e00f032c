package payments

import (
	"researchchat/m/v2/app/config"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway is the slice of the payment gateway the issuer and verifier use.
// Orders come back as the gateway's raw JSON object.
type Gateway interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
	FetchOrder(orderID string) (map[string]interface{}, error)
}

type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret),
	}
}

func (g *RazorpayGateway) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	return g.client.Order.Create(data, nil)
}

func (g *RazorpayGateway) FetchOrder(orderID string) (map[string]interface{}, error) {
	return g.client.Order.Fetch(orderID, nil, nil)
}
