// Package engine implements the matching engine: a single-threaded,
// synchronous component owning one ask half-book and one bid half-book for
// a single Tradable, matching incoming orders under price-time priority,
// computing an execution price and reference price, and emitting fills.
// Input errors are reported to the caller; only a genuine internal
// invariant violation panics.
package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"doubleauction/internal/book"
	"doubleauction/internal/fill"
	"doubleauction/internal/order"
	"doubleauction/internal/ordering"
	"doubleauction/internal/pricing"
)

var (
	// ErrInvalidTradable is returned when the incoming order's Tradable
	// differs from the engine's. Engine state is unchanged.
	ErrInvalidTradable = errors.New("engine: invalid tradable")
	// ErrDuplicateOrder is returned when an order with the same uuid is
	// already resting in either half-book. Engine state is unchanged.
	ErrDuplicateOrder = errors.New("engine: duplicate order")
	// ErrInvalidQuantity is returned for a non-positive quantity.
	ErrInvalidQuantity = errors.New("engine: invalid quantity")
	// ErrInvalidPrice is returned for a non-positive price on a limit
	// order, or a non-positive initial reference price.
	ErrInvalidPrice = errors.New("engine: invalid price")
)

// InvariantViolation is panicked when an internal consistency check fails
// e.g. a negative split residual, or a post-fill reference price that
// isn't strictly positive. These must never occur from well-formed input;
// when one does, the engine is not recoverable thereafter.
type InvariantViolation struct{ Msg string }

func (e InvariantViolation) Error() string { return "engine: invariant violation: " + e.Msg }

// Engine owns both half-books for a single Tradable, the reference price,
// and the pluggable price-formation strategy. It performs no internal
// locking: exclusive-owner hosting needs nothing extra, concurrent hosting
// must serialize calls externally (see internal/dispatch).
type Engine struct {
	tradable       order.Tradable
	askBook        *book.HalfBook
	bidBook        *book.HalfBook
	referencePrice int64
	strategy       pricing.Strategy
}

// New builds an engine for tradable with the given side orderings, initial
// reference price, and price-formation strategy.
func New(tradable order.Tradable, askLess, bidLess ordering.Less, initialReferencePrice int64, strategy pricing.Strategy) (*Engine, error) {
	if initialReferencePrice < 1 {
		return nil, ErrInvalidPrice
	}
	return &Engine{
		tradable:       tradable,
		askBook:        book.New(tradable, order.Ask, askLess),
		bidBook:        book.New(tradable, order.Bid, bidLess),
		referencePrice: initialReferencePrice,
		strategy:       strategy,
	}, nil
}

// Tradable returns the Tradable this engine is bound to.
func (e *Engine) Tradable() order.Tradable { return e.tradable }

// ReferencePrice returns the engine's current reference price.
func (e *Engine) ReferencePrice() int64 { return e.referencePrice }

// LenAsks returns the number of resting ask orders.
func (e *Engine) LenAsks() int { return e.askBook.Len() }

// LenBids returns the number of resting bid orders.
func (e *Engine) LenBids() int { return e.bidBook.Len() }

// AskBookIter returns every resting ask order in priority order.
func (e *Engine) AskBookIter() []order.Order { return e.askBook.Iter() }

// BidBookIter returns every resting bid order in priority order.
func (e *Engine) BidBookIter() []order.Order { return e.bidBook.Iter() }

func (e *Engine) ownBook(side order.Side) *book.HalfBook {
	if side == order.Ask {
		return e.askBook
	}
	return e.bidBook
}

func (e *Engine) oppositeBook(side order.Side) *book.HalfBook {
	if side == order.Ask {
		return e.bidBook
	}
	return e.askBook
}

func (e *Engine) isResting(uuid string) bool {
	return e.askBook.Contains(uuid) || e.bidBook.Contains(uuid)
}

// bestLimitAskAnchor returns the best resting limit ask, skipping any
// market ask resting ahead of it; the price anchor the both-market
// branch of the pricing strategy uses.
func (e *Engine) bestLimitAskAnchor() (order.Order, bool) {
	return e.askBook.Find(func(o order.Order) bool { return o.IsLimit() })
}

func (e *Engine) panicInvariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error().
		Str("tradable", e.tradable.String()).
		Msg("engine: invariant violation: " + msg)
	panic(InvariantViolation{Msg: msg})
}

// assignSides returns (askOrder, bidOrder) given one order from each side,
// in whichever order a and b happen to have been passed.
func assignSides(a, b order.Order) (ask, bid order.Order) {
	if a.Side() == order.Ask {
		return a, b
	}
	return b, a
}

// FindMatch matches incoming against the opposite half-book under
// price-time priority, repeatedly pairing it with the best crossing
// resting order, emitting a Fill per pairing, until either incoming is
// fully consumed or no further cross exists (at which point any remaining
// residual rests in incoming's own half-book). Returns (nil, nil) when no
// fill was produced at all.
func (e *Engine) FindMatch(incoming order.Order) ([]fill.Fill, error) {
	if incoming.Tradable != e.tradable {
		return nil, ErrInvalidTradable
	}
	if incoming.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if incoming.IsLimit() && incoming.Price < 1 {
		return nil, ErrInvalidPrice
	}
	if e.isResting(incoming.UUID) {
		return nil, ErrDuplicateOrder
	}

	var fills []fill.Fill
	current := incoming
	oppositeBook := e.oppositeBook(current.Side())

	for {
		best, ok := oppositeBook.PeekBest()
		if !ok || !current.Crosses(best) {
			if err := e.ownBook(current.Side()).Add(current); err != nil {
				e.panicInvariant("resting %s failed: %v", current, err)
			}
			break
		}

		popped, ok := oppositeBook.PopBest()
		if !ok || popped.UUID != best.UUID {
			e.panicInvariant("half-book best changed between peek and pop")
		}

		tradeQuantity := min64(current.Quantity, popped.Quantity)
		anchor, hasAnchor := e.bestLimitAskAnchor()
		price := e.strategy(current, popped, e.referencePrice, anchor, hasAnchor)
		if price < 1 {
			e.panicInvariant("price-formation strategy returned non-positive price %d", price)
		}
		e.referencePrice = price

		askOrder, bidOrder := assignSides(current, popped)
		f := fill.Fill{AskOrder: askOrder, BidOrder: bidOrder, Price: price, Quantity: tradeQuantity}

		switch {
		case current.Quantity > popped.Quantity:
			_, residualIn, err := current.Split(current.Quantity - popped.Quantity)
			if err != nil {
				e.panicInvariant("split of incoming order failed: %v", err)
			}
			if residualIn.Side() == order.Ask {
				f.ResidualAsk = &residualIn
			} else {
				f.ResidualBid = &residualIn
			}
			fills = append(fills, f)
			current = residualIn
			continue

		case current.Quantity < popped.Quantity:
			_, residualBest, err := popped.Split(popped.Quantity - current.Quantity)
			if err != nil {
				e.panicInvariant("split of resting order failed: %v", err)
			}
			if residualBest.Side() == order.Ask {
				f.ResidualAsk = &residualBest
			} else {
				f.ResidualBid = &residualBest
			}
			fills = append(fills, f)
			if err := oppositeBook.Add(residualBest); err != nil {
				e.panicInvariant("re-resting split residual failed: %v", err)
			}
			return fills, nil

		default:
			fills = append(fills, f)
			return fills, nil
		}
	}

	if len(fills) == 0 {
		return nil, nil
	}
	return fills, nil
}

// Cancel removes a resting order by uuid from whichever half-book its side
// indicates. Returns (zero-value, false) if the order isn't resting
// (already filled, or cancelled once already); a second Cancel of the
// same order is idempotent.
func (e *Engine) Cancel(o order.Order) (order.Order, bool) {
	return e.ownBook(o.Side()).Remove(o.UUID)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
