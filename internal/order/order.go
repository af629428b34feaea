// Package order holds the value objects shared across the matching engine:
// the tradable identity, the four order variants, and the pure operations
// (split, crosses) defined over them.
package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidQuantity is returned when a quantity (or a split residual)
	// falls outside [1, quantity-1].
	ErrInvalidQuantity = errors.New("order: invalid quantity")
	// ErrInvalidPrice is returned when a limit order's price is non-positive.
	ErrInvalidPrice = errors.New("order: invalid price")
)

// Tradable is an opaque, equality-comparable symbol identity. An engine
// instance is bound to exactly one Tradable.
type Tradable struct {
	Symbol string // e.g. ticker
	ID     string // UUID-like identity, disambiguates symbol reuse
}

// NewTradable builds a Tradable. ID is typically a UUID minted once per
// listing; callers that only care about single-tradable tests may leave it
// blank.
func NewTradable(symbol, id string) Tradable {
	return Tradable{Symbol: symbol, ID: id}
}

func (t Tradable) String() string {
	if t.ID == "" {
		return t.Symbol
	}
	return fmt.Sprintf("%s/%s", t.Symbol, t.ID)
}

// Side is which half of the book an order belongs to.
type Side int

const (
	Ask Side = iota
	Bid
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

// Kind tags the four order variants: side and priced-ness are both
// determined by the tag, per the source repository's deep order hierarchy
// being re-architected as a sum type.
type Kind int

const (
	LimitAsk Kind = iota
	LimitBid
	MarketAsk
	MarketBid
)

func (k Kind) String() string {
	switch k {
	case LimitAsk:
		return "limit-ask"
	case LimitBid:
		return "limit-bid"
	case MarketAsk:
		return "market-ask"
	case MarketBid:
		return "market-bid"
	default:
		return "unknown"
	}
}

// Side reports which half-book a Kind belongs to.
func (k Kind) Side() Side {
	switch k {
	case LimitAsk, MarketAsk:
		return Ask
	default:
		return Bid
	}
}

// IsLimit reports whether the variant carries a price.
func (k Kind) IsLimit() bool {
	return k == LimitAsk || k == LimitBid
}

// Order is the common representation of all four variants. Price is
// meaningless (and always zero) on market orders.
type Order struct {
	Kind      Kind
	IssuerID  string
	Quantity  int64
	Timestamp int64
	Tradable  Tradable
	UUID      string
	Price     int64
}

func (o Order) Side() Side    { return o.Kind.Side() }
func (o Order) IsLimit() bool { return o.Kind.IsLimit() }

func (o Order) String() string {
	if o.Kind.IsLimit() {
		return fmt.Sprintf("%s(uuid=%s, tradable=%s, qty=%d, price=%d, ts=%d)",
			o.Kind, o.UUID, o.Tradable, o.Quantity, o.Price, o.Timestamp)
	}
	return fmt.Sprintf("%s(uuid=%s, tradable=%s, qty=%d, ts=%d)",
		o.Kind, o.UUID, o.Tradable, o.Quantity, o.Timestamp)
}

// NewUUID mints a fresh order identifier. Exposed so order factories (and
// callers that don't already have an id scheme) can use the same scheme the
// rest of the module does.
func NewUUID() string {
	return uuid.New().String()
}

func newLimit(kind Kind, issuerID string, quantity, price, timestamp int64, tradable Tradable, id string) (Order, error) {
	if quantity < 1 {
		return Order{}, ErrInvalidQuantity
	}
	if price < 1 {
		return Order{}, ErrInvalidPrice
	}
	if id == "" {
		id = NewUUID()
	}
	return Order{
		Kind:      kind,
		IssuerID:  issuerID,
		Quantity:  quantity,
		Timestamp: timestamp,
		Tradable:  tradable,
		UUID:      id,
		Price:     price,
	}, nil
}

func newMarket(kind Kind, issuerID string, quantity, timestamp int64, tradable Tradable, id string) (Order, error) {
	if quantity < 1 {
		return Order{}, ErrInvalidQuantity
	}
	if id == "" {
		id = NewUUID()
	}
	return Order{
		Kind:      kind,
		IssuerID:  issuerID,
		Quantity:  quantity,
		Timestamp: timestamp,
		Tradable:  tradable,
		UUID:      id,
	}, nil
}

// NewLimitAsk builds a validated LimitAsk order. Passing an empty id mints
// one via NewUUID.
func NewLimitAsk(issuerID string, quantity, price, timestamp int64, tradable Tradable, id string) (Order, error) {
	return newLimit(LimitAsk, issuerID, quantity, price, timestamp, tradable, id)
}

// NewLimitBid builds a validated LimitBid order.
func NewLimitBid(issuerID string, quantity, price, timestamp int64, tradable Tradable, id string) (Order, error) {
	return newLimit(LimitBid, issuerID, quantity, price, timestamp, tradable, id)
}

// NewMarketAsk builds a validated MarketAsk order.
func NewMarketAsk(issuerID string, quantity, timestamp int64, tradable Tradable, id string) (Order, error) {
	return newMarket(MarketAsk, issuerID, quantity, timestamp, tradable, id)
}

// NewMarketBid builds a validated MarketBid order.
func NewMarketBid(issuerID string, quantity, timestamp int64, tradable Tradable, id string) (Order, error) {
	return newMarket(MarketBid, issuerID, quantity, timestamp, tradable, id)
}

// Split divides o into a filled part (quantity = o.Quantity-residualQuantity)
// and a residual part (quantity = residualQuantity). Both parts preserve
// every other attribute, including uuid. o itself is not mutated.
func (o Order) Split(residualQuantity int64) (filled, residual Order, err error) {
	if residualQuantity < 1 || residualQuantity >= o.Quantity {
		return Order{}, Order{}, ErrInvalidQuantity
	}
	filled = o
	filled.Quantity = o.Quantity - residualQuantity
	residual = o
	residual.Quantity = residualQuantity
	return filled, residual, nil
}

// Crosses reports whether o and other are compatible on price to trade.
// Same-side orders never cross. Orders for different Tradables crossing
// this predicate is undefined behavior; the engine enforces the
// same-Tradable invariant before this is ever evaluated.
func (o Order) Crosses(other Order) bool {
	if o.Side() == other.Side() {
		return false
	}
	var ask, bid Order
	if o.Side() == Ask {
		ask, bid = o, other
	} else {
		ask, bid = other, o
	}
	// A MarketAsk crosses any bid; a LimitAsk crosses any MarketBid
	// unconditionally. Both collapse to "either side is a market order".
	if ask.Kind == MarketAsk || bid.Kind == MarketBid {
		return true
	}
	return ask.Price <= bid.Price
}
