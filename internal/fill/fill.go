// Package fill holds the immutable output record the matching engine
// produces for every match, including any partial-fill residual left
// over on either side.
package fill

import (
	"fmt"

	"doubleauction/internal/order"
)

// Fill records one match: the two orders involved (at their pre-split
// quantity), the execution price, the traded quantity, and any residual
// orders a partial fill produced. Exactly one of ResidualAsk and
// ResidualBid may be set; both are nil when the traded quantities were
// equal.
//
// Conservation law: AskOrder.Quantity == Quantity + ResidualAsk.Quantity
// (if present), and symmetrically for the bid side.
type Fill struct {
	AskOrder    order.Order
	BidOrder    order.Order
	Price       int64
	Quantity    int64
	ResidualAsk *order.Order
	ResidualBid *order.Order
}

func (f Fill) String() string {
	residual := "none"
	switch {
	case f.ResidualAsk != nil:
		residual = fmt.Sprintf("ask:%s", f.ResidualAsk.UUID)
	case f.ResidualBid != nil:
		residual = fmt.Sprintf("bid:%s", f.ResidualBid.UUID)
	}
	return fmt.Sprintf("Fill(ask=%s, bid=%s, price=%d, qty=%d, residual=%s)",
		f.AskOrder.UUID, f.BidOrder.UUID, f.Price, f.Quantity, residual)
}
