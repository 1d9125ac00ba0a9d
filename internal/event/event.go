// Package event models the entries of a perp market's event queue. Each
// 200-byte queue slot decodes to one of a closed set of variants; consumers
// mostly care about which margin accounts an event obliges them to crank.
package event

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"perpcrank/internal/layout"
	"perpcrank/internal/lot"
)

// PerpEvent is one entry of the event queue ring buffer.
type PerpEvent interface {
	// EventType is the slot's discriminator byte.
	EventType() uint8

	// SeqNum is the queue-assigned sequence number, zero where the
	// variant does not carry one.
	SeqNum() uint64

	// AccountsToCrank lists the margin accounts that must be passed to a
	// consume-events instruction for this event to be processed.
	AccountsToCrank() []solana.PublicKey
}

// FillEvent records a match. Price and quantity are human-scaled; order ids
// are the raw 128-bit book ids.
type FillEvent struct {
	Timestamp time.Time
	TakerSide Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal

	BestInitial int64
	MakerSlot   uint8
	MakerOut    bool

	Maker              solana.PublicKey
	MakerOrderID       decimal.Decimal
	MakerClientOrderID uint64

	Taker              solana.PublicKey
	TakerOrderID       decimal.Decimal
	TakerClientOrderID uint64

	Sequence uint64
}

func (e FillEvent) EventType() uint8 { return layout.EventTypeFill }
func (e FillEvent) SeqNum() uint64   { return e.Sequence }

func (e FillEvent) AccountsToCrank() []solana.PublicKey {
	return []solana.PublicKey{e.Maker, e.Taker}
}

// Key identifies a fill by its maker/taker order-id pair. Unlike the
// sequence number it survives queue wraparound comparisons per account.
func (e FillEvent) Key() string {
	return fmt.Sprintf("%s/%s", e.MakerOrderID, e.TakerOrderID)
}

func (e FillEvent) String() string {
	return fmt.Sprintf("FillEvent[%d] %s %s at %s maker=%s taker=%s",
		e.Sequence, e.TakerSide, e.Quantity, e.Price, e.Maker, e.Taker)
}

// OutEvent records an order leaving the book. Quantity stays in base lots.
type OutEvent struct {
	Timestamp time.Time
	Owner     solana.PublicKey
	Side      Side
	Slot      uint8
	Quantity  int64

	Sequence uint64
}

func (e OutEvent) EventType() uint8 { return layout.EventTypeOut }
func (e OutEvent) SeqNum() uint64   { return e.Sequence }

func (e OutEvent) AccountsToCrank() []solana.PublicKey {
	return []solana.PublicKey{e.Owner}
}

func (e OutEvent) String() string {
	return fmt.Sprintf("OutEvent[%d] [%s] %s %d, slot: %d", e.Sequence, e.Owner, e.Side, e.Quantity, e.Slot)
}

// LiquidateEvent records contracts moved from liquidatee to liquidator.
// Price is the oracle price at liquidation time, in native units.
type LiquidateEvent struct {
	Timestamp      time.Time
	Liquidatee     solana.PublicKey
	Liquidator     solana.PublicKey
	Price          decimal.Decimal
	Quantity       int64
	LiquidationFee decimal.Decimal

	Sequence uint64
}

func (e LiquidateEvent) EventType() uint8 { return layout.EventTypeLiquidate }
func (e LiquidateEvent) SeqNum() uint64   { return e.Sequence }

func (e LiquidateEvent) AccountsToCrank() []solana.PublicKey {
	return []solana.PublicKey{e.Liquidatee, e.Liquidator}
}

func (e LiquidateEvent) String() string {
	return fmt.Sprintf("LiquidateEvent[%d] %s liquidated %s with %d at %s",
		e.Sequence, e.Liquidator, e.Liquidatee, e.Quantity, e.Price)
}

// UnknownEvent keeps a slot with an unrecognized discriminator crankable.
// Seen only when the program's queue format is newer than this code.
type UnknownEvent struct {
	Type  uint8
	Owner solana.PublicKey
}

func (e UnknownEvent) EventType() uint8 { return e.Type }
func (e UnknownEvent) SeqNum() uint64   { return 0 }

func (e UnknownEvent) AccountsToCrank() []solana.PublicKey {
	return []solana.PublicKey{e.Owner}
}

func (e UnknownEvent) String() string {
	return fmt.Sprintf("UnknownEvent(%d) [%s]", e.Type, e.Owner)
}

// FromBytes decodes one queue slot into its event variant. Fill prices and
// quantities are converted to human scale with the market's converter. An
// empty fill slot (zero maker and taker) decodes to nil with no error.
func FromBytes(converter lot.Converter, slot []byte) (PerpEvent, error) {
	if len(slot) < layout.EventSize {
		return nil, fmt.Errorf("event: slot needs %d bytes, have %d", layout.EventSize, len(slot))
	}

	switch slot[0] {
	case layout.EventTypeFill:
		data, err := layout.DecodeFillEvent(slot)
		if err != nil {
			return nil, err
		}
		if data.Maker.IsZero() && data.Taker.IsZero() {
			return nil, nil
		}
		return FillEvent{
			Timestamp:          data.Timestamp,
			TakerSide:          SideFromValue(data.TakerSide),
			Price:              converter.PriceLotsToNumber(decimal.NewFromInt(data.Price)),
			Quantity:           converter.BaseSizeLotsToNumber(decimal.NewFromInt(data.Quantity)),
			BestInitial:        data.BestInitial,
			MakerSlot:          data.MakerSlot,
			MakerOut:           data.MakerOut,
			Maker:              data.Maker,
			MakerOrderID:       data.MakerOrderID,
			MakerClientOrderID: data.MakerClientOrderID,
			Taker:              data.Taker,
			TakerOrderID:       data.TakerOrderID,
			TakerClientOrderID: data.TakerClientOrderID,
			Sequence:           data.SeqNum,
		}, nil
	case layout.EventTypeOut:
		data, err := layout.DecodeOutEvent(slot)
		if err != nil {
			return nil, err
		}
		return OutEvent{
			Timestamp: data.Timestamp,
			Owner:     data.Owner,
			Side:      SideFromValue(data.Side),
			Slot:      data.Slot,
			Quantity:  data.Quantity,
			Sequence:  data.SeqNum,
		}, nil
	case layout.EventTypeLiquidate:
		data, err := layout.DecodeLiquidateEvent(slot)
		if err != nil {
			return nil, err
		}
		return LiquidateEvent{
			Timestamp:      data.Timestamp,
			Liquidatee:     data.Liquidatee,
			Liquidator:     data.Liquidator,
			Price:          data.Price,
			Quantity:       data.Quantity,
			LiquidationFee: data.LiquidationFee,
			Sequence:       data.SeqNum,
		}, nil
	default:
		data, err := layout.DecodeUnknownEvent(slot)
		if err != nil {
			return nil, err
		}
		return UnknownEvent{Type: data.EventType, Owner: data.Owner}, nil
	}
}
