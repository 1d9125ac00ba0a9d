package layout

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Event discriminators, the first byte of every 200-byte queue slot.
const (
	EventTypeFill      uint8 = 0
	EventTypeOut       uint8 = 1
	EventTypeLiquidate uint8 = 2
)

type FillEventData struct {
	TakerSide uint8
	MakerSlot uint8
	MakerOut  bool
	Timestamp time.Time
	SeqNum    uint64

	Maker              solana.PublicKey
	MakerOrderID       decimal.Decimal
	MakerClientOrderID uint64
	MakerFee           decimal.Decimal
	BestInitial        int64
	MakerTimestamp     time.Time

	Taker              solana.PublicKey
	TakerOrderID       decimal.Decimal
	TakerClientOrderID uint64
	TakerFee           decimal.Decimal

	Price    int64
	Quantity int64
}

type OutEventData struct {
	Side      uint8
	Slot      uint8
	Timestamp time.Time
	SeqNum    uint64
	Owner     solana.PublicKey
	Quantity  int64
}

type LiquidateEventData struct {
	Timestamp time.Time
	SeqNum    uint64

	Liquidatee     solana.PublicKey
	Liquidator     solana.PublicKey
	Price          decimal.Decimal
	Quantity       int64
	LiquidationFee decimal.Decimal
}

type UnknownEventData struct {
	EventType uint8
	Owner     solana.PublicKey
}

func checkEventSlot(data []byte) error {
	if len(data) < EventSize {
		return fmt.Errorf("layout: event slot needs %d bytes, have %d", EventSize, len(data))
	}
	return nil
}

func DecodeFillEvent(data []byte) (FillEventData, error) {
	if err := checkEventSlot(data); err != nil {
		return FillEventData{}, err
	}
	if data[0] != EventTypeFill {
		return FillEventData{}, fmt.Errorf("layout: not a fill event (discriminator %d)", data[0])
	}
	d := newDecoder(data)
	d.skip(1)
	event := FillEventData{
		TakerSide: d.u8(),
		MakerSlot: d.u8(),
		MakerOut:  d.bool8(),
	}
	d.skip(4)
	event.Timestamp = time.Unix(d.i64(), 0).UTC()
	event.SeqNum = d.u64()
	event.Maker = d.publicKey()
	event.MakerOrderID = d.i128()
	event.MakerClientOrderID = d.u64()
	event.MakerFee = d.i80f48()
	event.BestInitial = d.i64()
	event.MakerTimestamp = time.Unix(d.i64(), 0).UTC()
	event.Taker = d.publicKey()
	event.TakerOrderID = d.i128()
	event.TakerClientOrderID = d.u64()
	event.TakerFee = d.i80f48()
	event.Price = d.i64()
	event.Quantity = d.i64()
	return event, d.err()
}

func DecodeOutEvent(data []byte) (OutEventData, error) {
	if err := checkEventSlot(data); err != nil {
		return OutEventData{}, err
	}
	if data[0] != EventTypeOut {
		return OutEventData{}, fmt.Errorf("layout: not an out event (discriminator %d)", data[0])
	}
	d := newDecoder(data)
	d.skip(1)
	event := OutEventData{
		Side: d.u8(),
		Slot: d.u8(),
	}
	d.skip(5)
	event.Timestamp = time.Unix(d.i64(), 0).UTC()
	event.SeqNum = d.u64()
	event.Owner = d.publicKey()
	event.Quantity = d.i64()
	return event, d.err()
}

func DecodeLiquidateEvent(data []byte) (LiquidateEventData, error) {
	if err := checkEventSlot(data); err != nil {
		return LiquidateEventData{}, err
	}
	if data[0] != EventTypeLiquidate {
		return LiquidateEventData{}, fmt.Errorf("layout: not a liquidate event (discriminator %d)", data[0])
	}
	d := newDecoder(data)
	d.skip(8)
	event := LiquidateEventData{
		Timestamp: time.Unix(d.i64(), 0).UTC(),
		SeqNum:    d.u64(),

		Liquidatee: d.publicKey(),
		Liquidator: d.publicKey(),
	}
	event.Price = d.i80f48()
	event.Quantity = d.i64()
	event.LiquidationFee = d.i80f48()
	return event, d.err()
}

// DecodeUnknownEvent reads the fallback shape shared by all events: the
// discriminator plus an owner address at offset 8, enough to keep the slot
// crankable.
func DecodeUnknownEvent(data []byte) (UnknownEventData, error) {
	if err := checkEventSlot(data); err != nil {
		return UnknownEventData{}, err
	}
	d := newDecoder(data)
	event := UnknownEventData{EventType: d.u8()}
	d.skip(7)
	event.Owner = d.publicKey()
	return event, d.err()
}
