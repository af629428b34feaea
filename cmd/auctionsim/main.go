// Command auctionsim wires an Engine for one Tradable behind a Dispatcher,
// a fresh pair per scenario, and walks them through the eight canonical
// matching scenarios (a resting
// limit order, an equal-quantity cross, partial fills on either side, a
// market order against a resting limit, market-vs-market pricing, a
// cancel, and a rejected cross-tradable submission), logging the
// resulting fills. It is scaffolding around the matching engine library,
// not part of the engine's own public surface.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"doubleauction/internal/dispatch"
	"doubleauction/internal/engine"
	"doubleauction/internal/order"
	"doubleauction/internal/ordering"
	"doubleauction/internal/pricing"
)

func main() {
	symbol := flag.String("symbol", "AAPL", "ticker to simulate")
	referencePrice := flag.Int64("reference-price", 1, "initial reference price")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tradable := order.NewTradable(*symbol, order.NewUUID())

	for _, scenario := range []struct {
		name string
		run  func(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable)
	}{
		{"rest-in-empty-book", scenarioRestInEmptyBook},
		{"equal-quantity-cross", scenarioEqualQuantityCross},
		{"incoming-larger-partial", scenarioIncomingLargerPartial},
		{"incoming-smaller-partial", scenarioIncomingSmallerPartial},
		{"market-against-resting-limit", scenarioMarketAgainstRestingLimit},
		{"market-vs-market", scenarioMarketVsMarket},
		{"cancel-resting-order", scenarioCancelRestingOrder},
		{"reject-wrong-tradable", scenarioRejectWrongTradable},
	} {
		runScenario(ctx, scenario.name, tradable, *referencePrice, scenario.run)
	}
}

// runScenario builds a fresh Engine and Dispatcher so each scenario starts
// from a clean book, runs the dispatcher's consumer loop for the
// scenario's duration, then shuts it down.
func runScenario(ctx context.Context, name string, tradable order.Tradable, referencePrice int64, run func(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable)) {
	log.Info().Str("scenario", name).Msg("auctionsim: starting scenario")

	eng, err := engine.New(tradable, ordering.AskLess, ordering.BidLess, referencePrice, pricing.Default)
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build engine")
	}

	d := dispatch.New(eng)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	run(ctx, d, tradable)

	cancelRun()
	if err := <-done; err != nil && err != context.Canceled {
		log.Error().Err(err).Str("scenario", name).Msg("auctionsim: dispatcher stopped with error")
	}
}

// scenarioRestInEmptyBook: a single limit ask rests with no crossing bid.
func scenarioRestInEmptyBook(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)
	logSnapshot(ctx, d)
}

// scenarioEqualQuantityCross: a resting ask is fully consumed by a bid of
// the same quantity, trading at the resting price.
func scenarioEqualQuantityCross(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)

	bid, err := order.NewLimitBid("bob", 10, 55, 2, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, bid)
	logSnapshot(ctx, d)
}

// scenarioIncomingLargerPartial: an incoming bid larger than the resting
// ask leaves a bid residual resting afterward.
func scenarioIncomingLargerPartial(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)

	bid, err := order.NewLimitBid("bob", 15, 55, 2, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, bid)
	logSnapshot(ctx, d)
}

// scenarioIncomingSmallerPartial: an incoming bid smaller than the resting
// ask leaves an ask residual resting afterward.
func scenarioIncomingSmallerPartial(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)

	bid, err := order.NewLimitBid("bob", 4, 55, 2, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, bid)
	logSnapshot(ctx, d)
}

// scenarioMarketAgainstRestingLimit: a market bid trades at the resting
// ask's limit price.
func scenarioMarketAgainstRestingLimit(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)

	bid, err := order.NewMarketBid("bob", 10, 2, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, bid)
	logSnapshot(ctx, d)
}

// scenarioMarketVsMarket: a resting market bid (ahead of a resting limit
// bid) is matched by an incoming market ask at the reference price, market
// priority ranking it ahead of the higher-priced limit bid.
func scenarioMarketVsMarket(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	marketBid, err := order.NewMarketBid("alice", 7, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, marketBid)

	limitBid, err := order.NewLimitBid("bob", 7, 100, 2, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, limitBid)

	marketAsk, err := order.NewMarketAsk("carol", 7, 3, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, marketAsk)
	logSnapshot(ctx, d)
}

// scenarioCancelRestingOrder: cancelling a resting order succeeds once and
// is a no-op the second time.
func scenarioCancelRestingOrder(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	ask, err := order.NewLimitAsk("alice", 10, 50, 1, tradable, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, ask)

	cancelled, found, err := d.Cancel(ctx, ask)
	if err != nil {
		log.Error().Err(err).Msg("auctionsim: cancel failed")
		return
	}
	log.Info().Bool("found", found).Str("order", cancelled.String()).Msg("auctionsim: cancel")

	_, found, err = d.Cancel(ctx, ask)
	if err != nil {
		log.Error().Err(err).Msg("auctionsim: cancel failed")
		return
	}
	log.Info().Bool("found", found).Msg("auctionsim: second cancel is idempotent")
	logSnapshot(ctx, d)
}

// scenarioRejectWrongTradable: submitting an order for a different
// Tradable than the engine is bound to is rejected without mutating the
// book.
func scenarioRejectWrongTradable(ctx context.Context, d *dispatch.Dispatcher, tradable order.Tradable) {
	foreign := order.NewTradable("GOOG", order.NewUUID())
	bid, err := order.NewLimitBid("alice", 10, 50, 1, foreign, "")
	if err != nil {
		log.Fatal().Err(err).Msg("auctionsim: failed to build order")
	}
	logPlace(ctx, d, bid)
	logSnapshot(ctx, d)
}

func logPlace(ctx context.Context, d *dispatch.Dispatcher, o order.Order) {
	fills, err := d.Place(ctx, o)
	if err != nil {
		log.Error().Err(err).Str("order", o.String()).Msg("auctionsim: order rejected")
		return
	}
	if fills == nil {
		log.Info().Str("order", o.String()).Msg("auctionsim: order resting, no match")
		return
	}
	for _, f := range fills {
		log.Info().Str("fill", f.String()).Msg("auctionsim: fill")
	}
}

func logSnapshot(ctx context.Context, d *dispatch.Dispatcher) {
	snapshot, err := d.Inspect(ctx)
	if err != nil {
		log.Error().Err(err).Msg("auctionsim: failed to inspect engine")
		return
	}
	log.Info().
		Int64("referencePrice", snapshot.ReferencePrice).
		Int("lenAsks", snapshot.LenAsks).
		Int("lenBids", snapshot.LenBids).
		Msg("auctionsim: scenario complete")
}
