// Package pricing implements the price-formation strategy: a pure function
// that, given the two orders being matched, the engine's reference price,
// and (for the market-vs-market case) the best resting limit ask as a price
// anchor, returns the execution price.
package pricing

import "doubleauction/internal/order"

// Strategy is the pluggable execution-price function. Implementations must
// be pure: no side effects, no mutation of the orders passed in.
//
// bestLimitAsk/hasBestLimitAsk carry the engine's current best resting
// limit ask, used only as a price anchor in the both-market case; callers
// that never reach that case may always pass hasBestLimitAsk=false.
type Strategy func(incoming, resting order.Order, referencePrice int64, bestLimitAsk order.Order, hasBestLimitAsk bool) int64

// Default implements the default continuous double-auction pricing policy:
//
//   - Both limit: execute at the resting order's price (price improvement
//     accrues to the incoming aggressor).
//   - One limit, one market: execute at the limit order's price, except
//     when the incoming order is the limit one and the resting order is
//     market, where the engine can't simply defer to "the limit price" if
//     the reference has since drifted past it: an incoming limit ask vs. a
//     resting market bid executes at max(referencePrice, incoming.Price);
//     an incoming limit bid vs. a resting market ask executes at
//     min(referencePrice, incoming.Price).
//   - Both market: min(bestLimitAsk, referencePrice) if a limit ask is
//     resting anywhere in the book as an anchor, else referencePrice alone.
func Default(incoming, resting order.Order, referencePrice int64, bestLimitAsk order.Order, hasBestLimitAsk bool) int64 {
	switch {
	case incoming.IsLimit() && resting.IsLimit():
		return resting.Price

	case resting.IsLimit():
		// incoming is market, resting is limit: trade at the resting limit.
		return resting.Price

	case incoming.IsLimit():
		// incoming is limit, resting is market: reference-aware limit price.
		if incoming.Side() == order.Ask {
			if referencePrice < incoming.Price {
				return incoming.Price
			}
			return referencePrice
		}
		if referencePrice > incoming.Price {
			return incoming.Price
		}
		return referencePrice

	default:
		// both market
		if hasBestLimitAsk && bestLimitAsk.Price < referencePrice {
			return bestLimitAsk.Price
		}
		return referencePrice
	}
}
