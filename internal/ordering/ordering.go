// Package ordering implements the two total orderings (ask-side, bid-side)
// that give the matching engine price-time priority with market-first
// precedence: market orders before limit orders, then price, then
// timestamp, then uuid as a final deterministic tiebreak.
package ordering

import "doubleauction/internal/order"

// Less reports whether a sorts strictly ahead of b under a side's ordering
// the smaller element trades first. Both comparators below satisfy this
// signature so a half-book can be parameterized by either.
type Less func(a, b order.Order) bool

// AskLess ranks MarketAsk ahead of every LimitAsk, then lower price first,
// then earlier timestamp, then lexicographically smaller uuid.
func AskLess(a, b order.Order) bool {
	aMarket := a.Kind == order.MarketAsk
	bMarket := b.Kind == order.MarketAsk
	if aMarket != bMarket {
		return aMarket
	}
	if !aMarket && a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.UUID < b.UUID
}

// BidLess ranks MarketBid ahead of every LimitBid, then higher price first,
// then earlier timestamp, then lexicographically smaller uuid.
func BidLess(a, b order.Order) bool {
	aMarket := a.Kind == order.MarketBid
	bMarket := b.Kind == order.MarketBid
	if aMarket != bMarket {
		return aMarket
	}
	if !aMarket && a.Price != b.Price {
		return a.Price > b.Price
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.UUID < b.UUID
}
