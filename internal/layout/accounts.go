// Package layout decodes the perp program's on-chain account formats. The
// byte offsets mirror the program's #[repr(C)] state structs exactly; nothing
// here interprets values beyond fixed-point expansion, that is the job of the
// domain packages.
package layout

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const (
	MetadataSize            = 8
	PerpAccountSize         = 96
	PerpMarketCacheSize     = 40
	LiquidityMiningInfoSize = 64
	PerpMarketSize          = 320
	EventQueueHeaderSize    = 32
	EventSize               = 200
)

// Metadata prefixes every program account: a data-type tag, a layout version
// and an initialized flag, padded to 8 bytes.
type Metadata struct {
	DataType    uint8
	Version     uint8
	Initialized bool
}

func decodeMetadata(d *decoder) Metadata {
	meta := Metadata{
		DataType:    d.u8(),
		Version:     d.u8(),
		Initialized: d.bool8(),
	}
	d.skip(5)
	return meta
}

func DecodeMetadata(data []byte) (Metadata, error) {
	d := newDecoder(data)
	meta := decodeMetadata(d)
	return meta, d.err()
}

// PerpAccountData is the raw 96-byte per-market position slot inside a margin
// account. Integer fields are in lots or native units; fixed-point fields are
// expanded to decimals but not scaled.
type PerpAccountData struct {
	BasePosition        int64
	QuotePosition       decimal.Decimal
	LongSettledFunding  decimal.Decimal
	ShortSettledFunding decimal.Decimal
	BidsQuantity        int64
	AsksQuantity        int64
	TakerBase           int64
	TakerQuote          int64
	MngoAccrued         uint64
}

func decodePerpAccount(d *decoder) PerpAccountData {
	return PerpAccountData{
		BasePosition:        d.i64(),
		QuotePosition:       d.i80f48(),
		LongSettledFunding:  d.i80f48(),
		ShortSettledFunding: d.i80f48(),
		BidsQuantity:        d.i64(),
		AsksQuantity:        d.i64(),
		TakerBase:           d.i64(),
		TakerQuote:          d.i64(),
		MngoAccrued:         d.u64(),
	}
}

func DecodePerpAccount(data []byte) (PerpAccountData, error) {
	d := newDecoder(data)
	account := decodePerpAccount(d)
	return account, d.err()
}

// PerpMarketCacheData holds the group cache's funding accumulators for one
// market, in native quote units per base lot.
type PerpMarketCacheData struct {
	LongFunding  decimal.Decimal
	ShortFunding decimal.Decimal
	LastUpdate   time.Time
}

func DecodePerpMarketCache(data []byte) (PerpMarketCacheData, error) {
	d := newDecoder(data)
	cache := PerpMarketCacheData{
		LongFunding:  d.i80f48(),
		ShortFunding: d.i80f48(),
		LastUpdate:   time.Unix(d.i64(), 0).UTC(),
	}
	return cache, d.err()
}

// LiquidityMiningInfoData describes the market's maker incentive programme.
type LiquidityMiningInfoData struct {
	Rate               decimal.Decimal
	MaxDepthBps        decimal.Decimal
	PeriodStart        time.Time
	TargetPeriodLength uint64
	MngoLeft           uint64
	MngoPerPeriod      uint64
}

func decodeLiquidityMiningInfo(d *decoder) LiquidityMiningInfoData {
	return LiquidityMiningInfoData{
		Rate:               d.i80f48(),
		MaxDepthBps:        d.i80f48(),
		PeriodStart:        time.Unix(d.i64(), 0).UTC(),
		TargetPeriodLength: d.u64(),
		MngoLeft:           d.u64(),
		MngoPerPeriod:      d.u64(),
	}
}

// PerpMarketData is the 320-byte top-level market state account.
type PerpMarketData struct {
	Metadata     Metadata
	Group        solana.PublicKey
	Bids         solana.PublicKey
	Asks         solana.PublicKey
	EventQueue   solana.PublicKey
	QuoteLotSize int64
	BaseLotSize  int64
	LongFunding  decimal.Decimal
	ShortFunding decimal.Decimal
	OpenInterest int64
	LastUpdated  time.Time
	SeqNum       uint64
	FeesAccrued  decimal.Decimal

	LiquidityMiningInfo LiquidityMiningInfoData
	MngoVault           solana.PublicKey
}

func DecodePerpMarket(data []byte) (PerpMarketData, error) {
	if len(data) < PerpMarketSize {
		return PerpMarketData{}, fmt.Errorf("layout: perp market needs %d bytes, have %d", PerpMarketSize, len(data))
	}
	d := newDecoder(data)
	market := PerpMarketData{
		Metadata:     decodeMetadata(d),
		Group:        d.publicKey(),
		Bids:         d.publicKey(),
		Asks:         d.publicKey(),
		EventQueue:   d.publicKey(),
		QuoteLotSize: d.i64(),
		BaseLotSize:  d.i64(),
		LongFunding:  d.i80f48(),
		ShortFunding: d.i80f48(),
		OpenInterest: d.i64(),
		LastUpdated:  time.Unix(d.i64(), 0).UTC(),
		SeqNum:       d.u64(),
		FeesAccrued:  d.i80f48(),

		LiquidityMiningInfo: decodeLiquidityMiningInfo(d),
	}
	market.MngoVault = d.publicKey()
	return market, d.err()
}

// EventQueueHeaderData prefixes the event queue account; the ring buffer of
// 200-byte event slots follows immediately after it.
type EventQueueHeaderData struct {
	Metadata Metadata
	Head     uint64
	Count    uint64
	SeqNum   uint64
}

func DecodeEventQueueHeader(data []byte) (EventQueueHeaderData, error) {
	d := newDecoder(data)
	header := EventQueueHeaderData{
		Metadata: decodeMetadata(d),
		Head:     d.u64(),
		Count:    d.u64(),
		SeqNum:   d.u64(),
	}
	return header, d.err()
}
