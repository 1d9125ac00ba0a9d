// Package instruction builds the on-chain instruction batches the engine
// submits: order placement and cancellation, event-queue cranking and
// incentive redemption. Builders are pure functions over already-loaded
// domain objects; nothing here fetches state.
package instruction

import (
	"github.com/gagliardetto/solana-go"

	"perpcrank/internal/account"
	"perpcrank/internal/market"
)

// BuildPlacePerpOrderInstructions builds the order placement for a loaded
// market. Price and quantity are truncated to representable lots.
func BuildPlacePerpOrderInstructions(program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket, order Order) CombinableInstructions {
	details := perpMarket.Details()

	priceLots := perpMarket.Converter.PriceNumberToLots(order.Price)
	quantityLots := perpMarket.Converter.BaseSizeNumberToLots(order.Quantity)

	data := newDataWriter(variantPlacePerpOrder).
		i64(priceLots.IntPart()).
		i64(quantityLots.IntPart()).
		u64(order.ClientID).
		u8(uint8(order.Side)).
		u8(uint8(order.OrderType)).
		flag(order.ReduceOnly).
		bytes()

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(margin.Address).WRITE(),
		solana.Meta(margin.Owner).SIGNER(),
		solana.Meta(group.Cache),
		solana.Meta(details.Address).WRITE(),
		solana.Meta(details.Bids).WRITE(),
		solana.Meta(details.Asks).WRITE(),
		solana.Meta(details.EventQueue).WRITE(),
	}
	for _, openOrders := range margin.OpenOrdersAddresses {
		metas = append(metas, solana.Meta(openOrders))
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}

// BuildPlacePerpOrder2Instructions builds the newer placement variant that
// carries a quote-size cap, an expiry timestamp and a match limit. A zero
// expiration encodes as 0, never expiring.
func BuildPlacePerpOrder2Instructions(program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket, order Order, maxQuoteQuantity int64) CombinableInstructions {
	details := perpMarket.Details()

	priceLots := perpMarket.Converter.PriceNumberToLots(order.Price)
	quantityLots := perpMarket.Converter.BaseSizeNumberToLots(order.Quantity)

	var expiry uint64
	if !order.Expiration.IsZero() {
		expiry = uint64(order.Expiration.Unix())
	}
	matchLimit := order.MatchLimit
	if matchLimit == 0 {
		matchLimit = DefaultMatchLimit
	}

	data := newDataWriter(variantPlacePerpOrder2).
		i64(priceLots.IntPart()).
		i64(quantityLots.IntPart()).
		i64(maxQuoteQuantity).
		u64(order.ClientID).
		u64(expiry).
		u8(uint8(order.Side)).
		u8(uint8(order.OrderType)).
		flag(order.ReduceOnly).
		u8(matchLimit).
		bytes()

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(margin.Address).WRITE(),
		solana.Meta(margin.Owner).SIGNER(),
		solana.Meta(group.Cache),
		solana.Meta(details.Address).WRITE(),
		solana.Meta(details.Bids).WRITE(),
		solana.Meta(details.Asks).WRITE(),
		solana.Meta(details.EventQueue).WRITE(),
	}
	for _, openOrders := range margin.OpenOrdersAddresses {
		metas = append(metas, solana.Meta(openOrders))
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}

// BuildCancelPerpOrderInstructions cancels by client id when the order has
// one, falling back to the book id otherwise. okIfMissing lets a
// cancel-and-replace loop tolerate an order that has already been filled.
func BuildCancelPerpOrderInstructions(program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket, order Order, okIfMissing bool) CombinableInstructions {
	details := perpMarket.Details()

	var data []byte
	if order.ClientID != 0 {
		data = newDataWriter(variantCancelPerpOrderByClientID).
			u64(order.ClientID).
			flag(okIfMissing).
			bytes()
	} else {
		data = newDataWriter(variantCancelPerpOrder).
			i128(order.ID).
			flag(okIfMissing).
			bytes()
	}

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(margin.Address).WRITE(),
		solana.Meta(margin.Owner).SIGNER(),
		solana.Meta(details.Address).WRITE(),
		solana.Meta(details.Bids).WRITE(),
		solana.Meta(details.Asks).WRITE(),
		solana.Meta(details.EventQueue).WRITE(),
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}

// BuildCancelAllPerpOrdersInstructions batch-cancels up to limit resting
// orders for the account on this market.
func BuildCancelAllPerpOrdersInstructions(program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket, limit uint8) CombinableInstructions {
	details := perpMarket.Details()

	data := newDataWriter(variantCancelAllPerpOrders).u8(limit).bytes()

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(margin.Address).WRITE(),
		solana.Meta(margin.Owner).SIGNER(),
		solana.Meta(details.Address).WRITE(),
		solana.Meta(details.Bids).WRITE(),
		solana.Meta(details.Asks).WRITE(),
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}

// BuildConsumeEventsInstructions builds the crank: the program pops up to
// limit events off the queue, applying each one to the listed margin
// accounts. The accounts must already be assembled (deduped, sorted,
// truncated); see AssembleCrankAccounts.
func BuildConsumeEventsInstructions(program solana.PublicKey, group market.Group, perpMarket market.PerpMarket, crankAccounts []solana.PublicKey, limit uint64) CombinableInstructions {
	details := perpMarket.Details()

	data := newDataWriter(variantConsumeEvents).u64(limit).bytes()

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(group.Cache),
		solana.Meta(details.Address).WRITE(),
		solana.Meta(details.EventQueue).WRITE(),
	}
	for _, address := range crankAccounts {
		metas = append(metas, solana.Meta(address).WRITE())
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}

// BuildRedeemMngoInstructions moves the account's accrued liquidity
// incentive from the market's vault into the trader's token account via the
// group's incentive bank.
func BuildRedeemMngoInstructions(program solana.PublicKey, group market.Group, margin account.MarginAccount, perpMarket market.PerpMarket) CombinableInstructions {
	details := perpMarket.Details()
	bank := group.LiquidityIncentiveTokenBank

	data := newDataWriter(variantRedeemMngo).bytes()

	metas := solana.AccountMetaSlice{
		solana.Meta(group.Address),
		solana.Meta(group.Cache),
		solana.Meta(margin.Address).WRITE(),
		solana.Meta(margin.Owner).SIGNER(),
		solana.Meta(details.Address),
		solana.Meta(details.MngoVault).WRITE(),
		solana.Meta(bank.RootBank),
		solana.Meta(bank.NodeBank).WRITE(),
		solana.Meta(bank.Vault).WRITE(),
		solana.Meta(group.SignerKey),
		solana.Meta(solana.TokenProgramID),
	}

	return FromInstructions(solana.NewInstruction(program, metas, data))
}
