// Package market holds the loaded state of a perp market and the group it
// belongs to, plus the funding-rate calculator derived from market stats.
package market

import (
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"perpcrank/internal/layout"
	"perpcrank/internal/lot"
	"perpcrank/internal/token"
)

// TokenBank is the on-chain banking trio for one token in a group.
type TokenBank struct {
	Token    token.Token
	RootBank solana.PublicKey
	NodeBank solana.PublicKey
	Vault    solana.PublicKey
}

// Group identifies the shared accounts every market instruction references.
// The liquidity incentive bank is where accrued MNGO is redeemed from.
type Group struct {
	Name      string
	Address   solana.PublicKey
	Cache     solana.PublicKey
	SignerKey solana.PublicKey

	LiquidityIncentiveTokenBank TokenBank
}

// LiquidityMiningInfo describes the market's maker incentive programme with
// amounts at the incentive token's scale.
type LiquidityMiningInfo struct {
	Rate               decimal.Decimal
	MaxDepthBps        decimal.Decimal
	PeriodStart        time.Time
	TargetPeriodLength time.Duration
	MngoLeft           token.InstrumentValue
	MngoPerPeriod      token.InstrumentValue
}

// PerpMarketDetails is the decoded on-chain market state account.
type PerpMarketDetails struct {
	Address      solana.PublicKey
	Metadata     layout.Metadata
	Group        solana.PublicKey
	Bids         solana.PublicKey
	Asks         solana.PublicKey
	EventQueue   solana.PublicKey
	QuoteLotSize decimal.Decimal
	BaseLotSize  decimal.Decimal
	LongFunding  decimal.Decimal
	ShortFunding decimal.Decimal
	OpenInterest decimal.Decimal
	LastUpdated  time.Time
	SeqNum       uint64
	FeesAccrued  decimal.Decimal

	LiquidityMiningInfo LiquidityMiningInfo
	MngoVault           solana.PublicKey
}

// DetailsFromLayout converts the raw market account into domain form.
func DetailsFromLayout(address solana.PublicKey, data layout.PerpMarketData, mngo token.Token) PerpMarketDetails {
	shift := func(raw uint64) token.InstrumentValue {
		value := decimal.NewFromBigInt(new(big.Int).SetUint64(raw), 0)
		return token.NewInstrumentValue(mngo.Instrument, mngo.ShiftToDecimals(value))
	}
	return PerpMarketDetails{
		Address:      address,
		Metadata:     data.Metadata,
		Group:        data.Group,
		Bids:         data.Bids,
		Asks:         data.Asks,
		EventQueue:   data.EventQueue,
		QuoteLotSize: decimal.NewFromInt(data.QuoteLotSize),
		BaseLotSize:  decimal.NewFromInt(data.BaseLotSize),
		LongFunding:  data.LongFunding,
		ShortFunding: data.ShortFunding,
		OpenInterest: decimal.NewFromInt(data.OpenInterest),
		LastUpdated:  data.LastUpdated,
		SeqNum:       data.SeqNum,
		FeesAccrued:  data.FeesAccrued,

		LiquidityMiningInfo: LiquidityMiningInfo{
			Rate:               data.LiquidityMiningInfo.Rate,
			MaxDepthBps:        data.LiquidityMiningInfo.MaxDepthBps,
			PeriodStart:        data.LiquidityMiningInfo.PeriodStart,
			TargetPeriodLength: time.Duration(data.LiquidityMiningInfo.TargetPeriodLength) * time.Second,
			MngoLeft:           shift(data.LiquidityMiningInfo.MngoLeft),
			MngoPerPeriod:      shift(data.LiquidityMiningInfo.MngoPerPeriod),
		},
		MngoVault: data.MngoVault,
	}
}

// DecodeDetails parses a raw market state account.
func DecodeDetails(address solana.PublicKey, data []byte, mngo token.Token) (PerpMarketDetails, error) {
	decoded, err := layout.DecodePerpMarket(data)
	if err != nil {
		return PerpMarketDetails{}, fmt.Errorf("market: decoding perp market %s: %w", address, err)
	}
	return DetailsFromLayout(address, decoded, mngo), nil
}

// PerpMarket is a market as the engine works with it. A stub has only
// addresses and instruments; loading attaches the on-chain details and
// replaces the raising converter with a real one. Instruction builders
// require a loaded market.
type PerpMarket struct {
	Program   solana.PublicKey
	Address   solana.PublicKey
	Base      token.Instrument
	Quote     token.Token
	Converter lot.Converter

	details *PerpMarketDetails
}

// NewPerpMarketStub describes a market whose state account has not been
// fetched. Any lot conversion through its converter panics.
func NewPerpMarketStub(program, address solana.PublicKey, base token.Instrument, quote token.Token) PerpMarket {
	return PerpMarket{
		Program:   program,
		Address:   address,
		Base:      base,
		Quote:     quote,
		Converter: lot.NewRaisingConverter(),
	}
}

// NewPerpMarket builds a loaded market from its decoded details.
func NewPerpMarket(program, address solana.PublicKey, base token.Instrument, quote token.Token, details PerpMarketDetails) PerpMarket {
	return PerpMarket{
		Program:   program,
		Address:   address,
		Base:      base,
		Quote:     quote,
		Converter: lot.NewConverter(base, details.BaseLotSize, quote.Instrument, details.QuoteLotSize),
		details:   &details,
	}
}

// Load attaches fetched details to a stub.
func (m PerpMarket) Load(details PerpMarketDetails) PerpMarket {
	return NewPerpMarket(m.Program, m.Address, m.Base, m.Quote, details)
}

func (m PerpMarket) Loaded() bool {
	return m.details != nil
}

// Details returns the on-chain state. Calling it on a stub is a
// programming-sequence error and panics.
func (m PerpMarket) Details() PerpMarketDetails {
	if m.details == nil {
		panic(fmt.Sprintf("market: %s has not been loaded", m.Symbol()))
	}
	return *m.details
}

func (m PerpMarket) Symbol() string {
	return fmt.Sprintf("%s-PERP", m.Base.Symbol)
}

func (m PerpMarket) BidsAddress() solana.PublicKey {
	return m.Details().Bids
}

func (m PerpMarket) AsksAddress() solana.PublicKey {
	return m.Details().Asks
}

func (m PerpMarket) EventQueueAddress() solana.PublicKey {
	return m.Details().EventQueue
}

func (m PerpMarket) String() string {
	return fmt.Sprintf("PerpMarket %s %s [%s]", m.Symbol(), m.Address, m.Program)
}
