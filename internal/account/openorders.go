package account

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"perpcrank/internal/event"
)

// PlacedOrder is one resting order slot from an open-orders account. The
// on-chain data splits this across bitmaps and parallel arrays; this packages
// it per order.
type PlacedOrder struct {
	ID       decimal.Decimal
	ClientID uint64
	Side     event.Side
}

func (o PlacedOrder) String() string {
	return fmt.Sprintf("PlacedOrder %s [%s] %d", o.Side, o.ID, o.ClientID)
}

// BuildPlacedOrders combines the free-slot bitmap, the is-bid bitmap and the
// order/client id arrays into the occupied slots.
func BuildPlacedOrders(freeSlotBits, isBidBits *big.Int, orderIDs []decimal.Decimal, clientOrderIDs []uint64) []PlacedOrder {
	var placed []PlacedOrder
	for index := range orderIDs {
		if freeSlotBits.Bit(index) != 0 {
			continue
		}
		side := event.Sell
		if isBidBits.Bit(index) != 0 {
			side = event.Buy
		}
		placed = append(placed, PlacedOrder{
			ID:       orderIDs[index],
			ClientID: clientOrderIDs[index],
			Side:     side,
		})
	}
	return placed
}

// PerpOpenOrders is the per-market resting order state of a margin account.
type PerpOpenOrders struct {
	PlacedOrders []PlacedOrder
}

func (o PerpOpenOrders) Empty() bool {
	return len(o.PlacedOrders) == 0
}

func (o PerpOpenOrders) String() string {
	if o.Empty() {
		return "PerpOpenOrders (empty)"
	}
	return fmt.Sprintf("PerpOpenOrders with %d placed orders", len(o.PlacedOrders))
}
