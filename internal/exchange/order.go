// Package exchange models off-chain exchange orders and their graph
// representation as SwapAccount nodes linked by a Swap edge.
package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OrderType distinguishes a maker's buy order from a sell order.
type OrderType string

const (
	OrderTypeBuy  OrderType = "Buy"
	OrderTypeSell OrderType = "Sell"
)

// CompetingOffers counts how many open orders of the same type existed
// alongside an order at the moment it filled (created before and filled
// after that moment), how many of those were no larger in amount, and how
// many of those were priced at or below it — the signal used to flag a
// possible shill bid.
type CompetingOffers struct {
	OfferType              OrderType `json:"offer_type"`
	OpenSameType           uint64    `json:"open_same_type"`
	WithinAmount           uint64    `json:"within_amount"`
	WithinAmountLowerPrice uint64    `json:"within_amount_lower_price"`
}

// Order is one off-chain exchange order: a maker (User) posts it, a taker
// (Accepter) fills it. Amount and Price arrive from the exchange's export
// as quoted strings and are parsed to float64 on unmarshal.
type Order struct {
	User      uint32    `json:"user"`
	OrderType OrderType `json:"orderType"`
	Amount    float64   `json:"-"`
	Price     float64   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	FilledAt  time.Time `json:"filled_at"`
	Accepter  uint32    `json:"accepter"`

	RMSHour            float64
	RMS24Hour          float64
	PriceVsRMSHour     float64
	PriceVsRMS24Hour   float64
	AccepterShillDown  bool
	AccepterShillUp    bool
	CompetingOffers    *CompetingOffers
}

// rawOrder mirrors the wire JSON shape, where amount/price are quoted
// strings rather than numbers.
type rawOrder struct {
	User      uint32    `json:"user"`
	OrderType OrderType `json:"orderType"`
	Amount    string    `json:"amount"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	FilledAt  time.Time `json:"filled_at"`
	Accepter  uint32    `json:"accepter"`
}

// UnmarshalJSON parses the quoted-string amount/price fields the exchange
// export uses, rather than expecting them as JSON numbers.
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw rawOrder
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(raw.Amount, 64)
	if err != nil {
		return fmt.Errorf("parsing order amount %q: %w", raw.Amount, err)
	}
	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return fmt.Errorf("parsing order price %q: %w", raw.Price, err)
	}
	*o = Order{
		User:      raw.User,
		OrderType: raw.OrderType,
		Amount:    amount,
		Price:     price,
		CreatedAt: raw.CreatedAt,
		FilledAt:  raw.FilledAt,
		Accepter:  raw.Accepter,
	}
	return nil
}

// DeserializeOrders parses a JSON array of orders.
func DeserializeOrders(data []byte) ([]Order, error) {
	var orders []Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("deserializing exchange orders: %w", err)
	}
	return orders, nil
}
