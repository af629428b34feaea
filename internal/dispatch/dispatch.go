// Package dispatch hosts a single Engine for concurrent callers: a message
// queue, not an actor system. One consumer goroutine, supervised by a
// tomb.Tomb, owns the Engine exclusively and drains a channel of typed
// commands; every Place/Cancel/Inspect call is an enqueue-and-wait from
// the caller's side.
package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"doubleauction/internal/engine"
	"doubleauction/internal/fill"
	"doubleauction/internal/order"
)

// ErrShuttingDown is returned by Place/Cancel once the dispatcher is no
// longer accepting work.
var ErrShuttingDown = errors.New("dispatch: shutting down")

type commandKind int

const (
	kindPlace commandKind = iota
	kindCancel
	kindInspect
)

type result struct {
	fills     []fill.Fill
	cancelled order.Order
	found     bool
	snapshot  Snapshot
	err       error
}

type command struct {
	kind   commandKind
	order  order.Order
	result chan result
}

// Snapshot is a read-only view of engine state, gathered on the consumer
// goroutine so it never races with an in-flight FindMatch/Cancel.
type Snapshot struct {
	ReferencePrice int64
	LenAsks        int
	LenBids        int
}

// Dispatcher serializes FindMatch/Cancel calls against one Engine onto a
// single consumer goroutine.
type Dispatcher struct {
	eng      *engine.Engine
	commands chan command
	t        *tomb.Tomb
}

// New builds a Dispatcher over eng, with its tomb ready to receive work.
// Call Run to start the consumer goroutine.
func New(eng *engine.Engine) *Dispatcher {
	return &Dispatcher{
		eng:      eng,
		commands: make(chan command, 64),
		t:        new(tomb.Tomb),
	}
}

// Run starts the consumer loop and blocks until it stops, either because
// ctx was cancelled or Shutdown was called. It is intended to be invoked
// via `go d.Run(ctx)`.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.t.Go(func() error {
		log.Info().Str("tradable", d.eng.Tradable().String()).Msg("dispatch: consumer starting")
		for {
			select {
			case <-d.t.Dying():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-d.commands:
				d.handle(cmd)
			}
		}
	})

	return d.t.Wait()
}

func (d *Dispatcher) handle(cmd command) {
	switch cmd.kind {
	case kindPlace:
		fills, err := d.eng.FindMatch(cmd.order)
		cmd.result <- result{fills: fills, err: err}
	case kindCancel:
		cancelled, found := d.eng.Cancel(cmd.order)
		cmd.result <- result{cancelled: cancelled, found: found}
	case kindInspect:
		cmd.result <- result{snapshot: Snapshot{
			ReferencePrice: d.eng.ReferencePrice(),
			LenAsks:        d.eng.LenAsks(),
			LenBids:        d.eng.LenBids(),
		}}
	}
}

// Place submits o to the engine and waits for the resulting fills (nil if
// none) or an input-validation error, same contract as Engine.FindMatch.
func (d *Dispatcher) Place(ctx context.Context, o order.Order) ([]fill.Fill, error) {
	res, err := d.submit(ctx, command{kind: kindPlace, order: o})
	if err != nil {
		return nil, err
	}
	return res.fills, res.err
}

// Cancel submits a cancellation for o and waits for the result: the
// cancelled order and true if it was resting, or (zero-value, false)
// otherwise.
func (d *Dispatcher) Cancel(ctx context.Context, o order.Order) (order.Order, bool, error) {
	res, err := d.submit(ctx, command{kind: kindCancel, order: o})
	if err != nil {
		return order.Order{}, false, err
	}
	return res.cancelled, res.found, nil
}

func (d *Dispatcher) submit(ctx context.Context, cmd command) (result, error) {
	cmd.result = make(chan result, 1)
	// Check Dying first: in the select below a free slot in the buffered
	// commands channel would otherwise compete with it at random.
	select {
	case <-d.t.Dying():
		return result{}, ErrShuttingDown
	default:
	}
	select {
	case <-d.t.Dying():
		return result{}, ErrShuttingDown
	case d.commands <- cmd:
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// Inspect returns a consistent snapshot of engine state, computed on the
// consumer goroutine between commands.
func (d *Dispatcher) Inspect(ctx context.Context) (Snapshot, error) {
	res, err := d.submit(ctx, command{kind: kindInspect})
	if err != nil {
		return Snapshot{}, err
	}
	return res.snapshot, nil
}

// Shutdown signals the consumer loop to stop and waits for it to exit.
func (d *Dispatcher) Shutdown() error {
	d.t.Kill(nil)
	return d.t.Wait()
}
