package instruction

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"perpcrank/internal/account"
	"perpcrank/internal/market"
)

// MarketInstructionBuilder binds the loaded objects one trading account
// needs on one market, so callers build instructions without re-threading
// group and account state everywhere. Building against a market stub panics
// through Details(): that is a sequencing bug, not a runtime condition.
type MarketInstructionBuilder struct {
	logger  zerolog.Logger
	program solana.PublicKey
	group   market.Group
	margin  account.MarginAccount
	market  market.PerpMarket
}

func NewMarketInstructionBuilder(logger zerolog.Logger, program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket) *MarketInstructionBuilder {
	return &MarketInstructionBuilder{
		logger:  logger,
		program: program,
		group:   group,
		margin:  margin,
		market:  perpMarket,
	}
}

func (b *MarketInstructionBuilder) BuildPlaceOrderInstructions(order Order) CombinableInstructions {
	return BuildPlacePerpOrderInstructions(b.program, b.group, b.margin, b.market, order)
}

func (b *MarketInstructionBuilder) BuildCancelOrderInstructions(order Order, okIfMissing bool) CombinableInstructions {
	return BuildCancelPerpOrderInstructions(b.program, b.group, b.margin, b.market, order, okIfMissing)
}

func (b *MarketInstructionBuilder) BuildCancelAllOrdersInstructions(limit uint8) CombinableInstructions {
	return BuildCancelAllPerpOrdersInstructions(b.program, b.group, b.margin, b.market, limit)
}

// BuildCrankInstructions assembles the account list, always including this
// builder's own account, and wraps it in a consume-events instruction.
func (b *MarketInstructionBuilder) BuildCrankInstructions(addresses []solana.PublicKey, limit int) CombinableInstructions {
	self := b.margin.Address
	crankAccounts := AssembleCrankAccounts(b.logger, addresses, &self, limit)
	return BuildConsumeEventsInstructions(b.program, b.group, b.market, crankAccounts, uint64(limit))
}

// BuildSettleInstructions is empty for perp markets: funding and PnL settle
// as a side effect of cranking, there is nothing to submit separately.
func (b *MarketInstructionBuilder) BuildSettleInstructions() CombinableInstructions {
	return Empty()
}

func (b *MarketInstructionBuilder) BuildRedeemInstructions() CombinableInstructions {
	return BuildRedeemMngoInstructions(b.program, b.group, b.margin, b.market)
}
