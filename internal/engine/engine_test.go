package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"doubleauction/internal/engine"
	"doubleauction/internal/order"
	"doubleauction/internal/ordering"
	"doubleauction/internal/pricing"
)

var aapl = order.NewTradable("AAPL", "")
var goog = order.NewTradable("GOOG", "")

func newTestEngine(t *testing.T, referencePrice int64) *engine.Engine {
	t.Helper()
	eng, err := engine.New(aapl, ordering.AskLess, ordering.BidLess, referencePrice, pricing.Default)
	assert.NoError(t, err)
	return eng
}

// TestFindMatch_S1_RestInEmptyBook covers scenario S1.
func TestFindMatch_S1_RestInEmptyBook(t *testing.T) {
	eng := newTestEngine(t, 1)

	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)

	// 1. Act
	fills, err := eng.FindMatch(ask)

	// 2. Assertions
	assert.NoError(t, err)
	assert.Nil(t, fills)
	assert.Equal(t, 1, eng.LenAsks())
	assert.Equal(t, 0, eng.LenBids())
	assert.Equal(t, int64(1), eng.ReferencePrice())
	assert.Equal(t, "u1", eng.AskBookIter()[0].UUID)
}

// TestFindMatch_S2_EqualQuantityCross covers scenario S2.
func TestFindMatch_S2_EqualQuantityCross(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	bid, err := order.NewLimitBid("X", 10, 55, 2, aapl, "u2")
	assert.NoError(t, err)

	// 1. Act
	fills, err := eng.FindMatch(bid)

	// 2. Assertions
	assert.NoError(t, err)
	assert.Len(t, fills, 1)
	f := fills[0]
	assert.Equal(t, "u1", f.AskOrder.UUID)
	assert.Equal(t, "u2", f.BidOrder.UUID)
	assert.Equal(t, int64(50), f.Price)
	assert.Equal(t, int64(10), f.Quantity)
	assert.Nil(t, f.ResidualAsk)
	assert.Nil(t, f.ResidualBid)
	assert.Equal(t, 0, eng.LenAsks())
	assert.Equal(t, 0, eng.LenBids())
	assert.Equal(t, int64(50), eng.ReferencePrice())
}

// TestFindMatch_S3_IncomingLargerThanResting covers scenario S3.
func TestFindMatch_S3_IncomingLargerThanResting(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	bid, err := order.NewLimitBid("X", 15, 55, 2, aapl, "u2")
	assert.NoError(t, err)

	fills, err := eng.FindMatch(bid)

	assert.NoError(t, err)
	assert.Len(t, fills, 1)
	f := fills[0]
	assert.Equal(t, "u1", f.AskOrder.UUID)
	assert.Equal(t, "u2", f.BidOrder.UUID)
	assert.Equal(t, int64(50), f.Price)
	assert.Equal(t, int64(10), f.Quantity)
	assert.Nil(t, f.ResidualAsk)
	if assert.NotNil(t, f.ResidualBid) {
		assert.Equal(t, int64(5), f.ResidualBid.Quantity)
		assert.Equal(t, "u2", f.ResidualBid.UUID)
	}
	assert.Equal(t, 0, eng.LenAsks())
	assert.Equal(t, 1, eng.LenBids())
	assert.Equal(t, int64(5), eng.BidBookIter()[0].Quantity)
	assert.Equal(t, int64(50), eng.ReferencePrice())
}

// TestFindMatch_S4_IncomingSmallerThanResting covers scenario S4.
func TestFindMatch_S4_IncomingSmallerThanResting(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	bid, err := order.NewLimitBid("X", 4, 55, 2, aapl, "u2")
	assert.NoError(t, err)

	fills, err := eng.FindMatch(bid)

	assert.NoError(t, err)
	assert.Len(t, fills, 1)
	f := fills[0]
	assert.Equal(t, int64(50), f.Price)
	assert.Equal(t, int64(4), f.Quantity)
	assert.Nil(t, f.ResidualBid)
	if assert.NotNil(t, f.ResidualAsk) {
		assert.Equal(t, int64(6), f.ResidualAsk.Quantity)
		assert.Equal(t, "u1", f.ResidualAsk.UUID)
	}
	assert.Equal(t, 1, eng.LenAsks())
	assert.Equal(t, 0, eng.LenBids())
	assert.Equal(t, int64(6), eng.AskBookIter()[0].Quantity)
	assert.Equal(t, int64(50), eng.ReferencePrice())
}

// TestFindMatch_S5_MarketAgainstRestingLimit covers scenario S5.
func TestFindMatch_S5_MarketAgainstRestingLimit(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	bid, err := order.NewMarketBid("X", 10, 2, aapl, "u2")
	assert.NoError(t, err)

	fills, err := eng.FindMatch(bid)

	assert.NoError(t, err)
	assert.Len(t, fills, 1)
	assert.Equal(t, int64(50), fills[0].Price)
	assert.Equal(t, 0, eng.LenAsks())
	assert.Equal(t, 0, eng.LenBids())
	assert.Equal(t, int64(50), eng.ReferencePrice())
}

// TestFindMatch_S6_MarketVsMarketUsesReferenceWithMarketPriority covers
// scenario S6.
func TestFindMatch_S6_MarketVsMarketUsesReferenceWithMarketPriority(t *testing.T) {
	eng := newTestEngine(t, 1)

	marketBid, err := order.NewMarketBid("X", 7, 1, aapl, "u1")
	assert.NoError(t, err)
	fills, err := eng.FindMatch(marketBid)
	assert.NoError(t, err)
	assert.Nil(t, fills)

	limitBid, err := order.NewLimitBid("X", 7, 100, 2, aapl, "u2")
	assert.NoError(t, err)
	fills, err = eng.FindMatch(limitBid)
	assert.NoError(t, err)
	assert.Nil(t, fills)

	marketAsk, err := order.NewMarketAsk("X", 7, 3, aapl, "u3")
	assert.NoError(t, err)

	// Act: the incoming market ask must match the resting market bid
	// first, not the higher-priority-by-price limit bid, since market
	// orders sort ahead of limit orders on the bid side too.
	fills, err = eng.FindMatch(marketAsk)

	assert.NoError(t, err)
	assert.Len(t, fills, 1)
	f := fills[0]
	assert.Equal(t, "u3", f.AskOrder.UUID)
	assert.Equal(t, "u1", f.BidOrder.UUID)
	assert.Equal(t, int64(1), f.Price)
	assert.Equal(t, int64(7), f.Quantity)
	assert.Equal(t, 0, eng.LenAsks())
	assert.Equal(t, 1, eng.LenBids())
	assert.Equal(t, "u2", eng.BidBookIter()[0].UUID)
	assert.Equal(t, int64(1), eng.ReferencePrice())
}

// TestCancel_S7_IdempotentCancel covers scenario S7.
func TestCancel_S7_IdempotentCancel(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	cancelled, found := eng.Cancel(ask)
	assert.True(t, found)
	assert.Equal(t, "u1", cancelled.UUID)
	assert.Equal(t, 0, eng.LenAsks())

	_, found = eng.Cancel(ask)
	assert.False(t, found)
}

// TestFindMatch_S8_RejectWrongTradable covers scenario S8.
func TestFindMatch_S8_RejectWrongTradable(t *testing.T) {
	eng := newTestEngine(t, 1)

	foreignBid, err := order.NewLimitBid("X", 10, 50, 1, goog, "u1")
	assert.NoError(t, err)

	fills, err := eng.FindMatch(foreignBid)

	assert.ErrorIs(t, err, engine.ErrInvalidTradable)
	assert.Nil(t, fills)
	assert.Equal(t, 0, eng.LenAsks())
	assert.Equal(t, 0, eng.LenBids())
}

func TestFindMatch_RejectsDuplicateUUID(t *testing.T) {
	eng := newTestEngine(t, 1)
	ask, err := order.NewLimitAsk("X", 10, 50, 1, aapl, "u1")
	assert.NoError(t, err)
	_, err = eng.FindMatch(ask)
	assert.NoError(t, err)

	dup, err := order.NewLimitAsk("X", 5, 60, 2, aapl, "u1")
	assert.NoError(t, err)

	fills, err := eng.FindMatch(dup)
	assert.ErrorIs(t, err, engine.ErrDuplicateOrder)
	assert.Nil(t, fills)
}

func TestFindMatch_RejectsInvalidQuantity(t *testing.T) {
	eng := newTestEngine(t, 1)
	bad := order.Order{Kind: order.LimitAsk, Quantity: 0, Price: 50, Tradable: aapl, UUID: "bad"}

	fills, err := eng.FindMatch(bad)
	assert.ErrorIs(t, err, engine.ErrInvalidQuantity)
	assert.Nil(t, fills)
}

func TestFindMatch_RejectsInvalidPrice(t *testing.T) {
	eng := newTestEngine(t, 1)
	bad := order.Order{Kind: order.LimitAsk, Quantity: 10, Price: 0, Tradable: aapl, UUID: "bad"}

	fills, err := eng.FindMatch(bad)
	assert.ErrorIs(t, err, engine.ErrInvalidPrice)
	assert.Nil(t, fills)
}

func TestNew_RejectsNonPositiveInitialReferencePrice(t *testing.T) {
	_, err := engine.New(aapl, ordering.AskLess, ordering.BidLess, 0, pricing.Default)
	assert.ErrorIs(t, err, engine.ErrInvalidPrice)
}
