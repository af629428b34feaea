// Package book implements the half-book: the keyed, sorted collection of
// resting orders for one side of the market. Orders are kept one btree
// entry per order rather than grouped into FIFO price levels, so that
// find/filter/remove-by-uuid can reach any resting order directly rather
// than only the front of its price level.
package book

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"doubleauction/internal/order"
	"doubleauction/internal/ordering"
)

var (
	// ErrInvalidTradable is returned by Add when the order's Tradable
	// doesn't match the book's.
	ErrInvalidTradable = errors.New("book: invalid tradable")
	// ErrWrongSide is returned by Add when the order's side doesn't match
	// the book's side.
	ErrWrongSide = errors.New("book: wrong side")
	// ErrDuplicateOrder is returned by Add when an order with the same
	// uuid is already resting.
	ErrDuplicateOrder = errors.New("book: duplicate order")
)

// InvariantViolation is panicked when the sorted view and the uuid index
// disagree, a bug in this package, never triggerable from well-formed
// input.
type InvariantViolation struct{ Msg string }

func (e InvariantViolation) Error() string { return "book: invariant violation: " + e.Msg }

// HalfBook holds all resting orders for one side of one Tradable: a
// btree-ordered view for price-time priority traversal, and a uuid index
// kept in lockstep. All mutations go through methods that update both or
// neither.
type HalfBook struct {
	tradable order.Tradable
	side     order.Side
	less     ordering.Less
	sorted   *btree.BTreeG[order.Order]
	byUUID   map[string]order.Order
}

// New creates an empty half-book for side of tradable, ordered by less.
func New(tradable order.Tradable, side order.Side, less ordering.Less) *HalfBook {
	return &HalfBook{
		tradable: tradable,
		side:     side,
		less:     less,
		sorted:   btree.NewBTreeG(func(a, b order.Order) bool { return less(a, b) }),
		byUUID:   make(map[string]order.Order),
	}
}

func (b *HalfBook) panicInvariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error().
		Str("tradable", b.tradable.String()).
		Str("side", b.side.String()).
		Msg("book: invariant violation: " + msg)
	panic(InvariantViolation{Msg: msg})
}

// Add inserts o. Success is silent.
func (b *HalfBook) Add(o order.Order) error {
	if o.Tradable != b.tradable {
		return ErrInvalidTradable
	}
	if o.Side() != b.side {
		return ErrWrongSide
	}
	if _, exists := b.byUUID[o.UUID]; exists {
		return ErrDuplicateOrder
	}
	b.sorted.Set(o)
	b.byUUID[o.UUID] = o
	return nil
}

// Remove deletes and returns the order with the given uuid, or
// (zero-value, false) if absent.
func (b *HalfBook) Remove(uuid string) (order.Order, bool) {
	o, ok := b.byUUID[uuid]
	if !ok {
		return order.Order{}, false
	}
	delete(b.byUUID, uuid)
	if _, existed := b.sorted.Delete(o); !existed {
		b.panicInvariant("uuid %s present in index but missing from sorted view", uuid)
	}
	return o, true
}

// PopBest removes and returns the minimum element of the ordering, or
// (zero-value, false) if empty.
func (b *HalfBook) PopBest() (order.Order, bool) {
	best, ok := b.sorted.Min()
	if !ok {
		return order.Order{}, false
	}
	if _, existed := b.sorted.Delete(best); !existed {
		b.panicInvariant("min element vanished between Min and Delete")
	}
	if _, existed := b.byUUID[best.UUID]; !existed {
		b.panicInvariant("uuid %s present in sorted view but missing from index", best.UUID)
	}
	delete(b.byUUID, best.UUID)
	return best, true
}

// PeekBest returns the minimum element without removing it.
func (b *HalfBook) PeekBest() (order.Order, bool) {
	return b.sorted.Min()
}

// Find returns the first order in priority order matching pred, or
// (zero-value, false).
func (b *HalfBook) Find(pred func(order.Order) bool) (order.Order, bool) {
	var found order.Order
	var ok bool
	b.sorted.Scan(func(o order.Order) bool {
		if pred(o) {
			found, ok = o, true
			return false
		}
		return true
	})
	return found, ok
}

// Filter returns all orders matching pred in priority order, or
// (nil, false) when nothing matches; an empty match set is deliberately
// not the same as a non-empty-but-zero-length collection.
func (b *HalfBook) Filter(pred func(order.Order) bool) ([]order.Order, bool) {
	var matches []order.Order
	b.sorted.Scan(func(o order.Order) bool {
		if pred(o) {
			matches = append(matches, o)
		}
		return true
	})
	if len(matches) == 0 {
		return nil, false
	}
	return matches, true
}

// Contains reports whether uuid is currently resting in this half-book.
func (b *HalfBook) Contains(uuid string) bool {
	_, ok := b.byUUID[uuid]
	return ok
}

// IsEmpty reports whether the half-book holds no orders.
func (b *HalfBook) IsEmpty() bool { return b.sorted.Len() == 0 }

// Len returns the number of resting orders.
func (b *HalfBook) Len() int { return b.sorted.Len() }

// Iter returns every resting order in priority order.
func (b *HalfBook) Iter() []order.Order {
	var all []order.Order
	b.sorted.Scan(func(o order.Order) bool {
		all = append(all, o)
		return true
	})
	return all
}
