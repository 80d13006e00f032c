package payments

// fakeGateway records order creations and serves canned fetches.
type fakeGateway struct {
	created    []map[string]interface{}
	createErr  error
	orders     map[string]map[string]interface{}
	fetchErr   error
	fetchCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orders: make(map[string]map[string]interface{}),
	}
}

func (g *fakeGateway) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, data)
	order := map[string]interface{}{
		"id":       "order_fake_1",
		"amount":   data["amount"],
		"currency": data["currency"],
		"receipt":  data["receipt"],
		"notes":    data["notes"],
		"status":   "created",
	}
	return order, nil
}

func (g *fakeGateway) FetchOrder(orderID string) (map[string]interface{}, error) {
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.orders[orderID], nil
}
