// Package executor submits instruction batches to the chain, and fetches
// the account state the engine needs before it can build instructions.
package executor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"perpcrank/internal/instruction"
	"perpcrank/internal/market"
	"perpcrank/internal/token"
)

// DryRunExecutor logs batches instead of submitting them. It stands in for
// the transaction executor when no signing key is configured.
type DryRunExecutor struct {
	Logger zerolog.Logger
}

func (e DryRunExecutor) Execute(_ context.Context, batch instruction.Batch) ([]string, error) {
	e.Logger.Info().
		Str("batch", batch.ID.String()).
		Int("instructions", len(batch.Instructions)).
		Msg("dry run, batch not submitted")
	return []string{fmt.Sprintf("dry-run-%s", batch.ID)}, nil
}

// TransactionExecutor signs a batch as one transaction and submits it over
// RPC. The wallet pays fees and must be the owner the instructions name as
// signer.
type TransactionExecutor struct {
	logger zerolog.Logger
	client *rpc.Client
	wallet solana.PrivateKey
}

func NewTransactionExecutor(logger zerolog.Logger, client *rpc.Client, wallet solana.PrivateKey) *TransactionExecutor {
	return &TransactionExecutor{
		logger: logger,
		client: client,
		wallet: wallet,
	}
}

func (e *TransactionExecutor) Execute(ctx context.Context, batch instruction.Batch) ([]string, error) {
	recent, err := e.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("executor: fetching blockhash for batch %s: %w", batch.ID, err)
	}

	tx, err := solana.NewTransaction(
		batch.Instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(e.wallet.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("executor: building transaction for batch %s: %w", batch.ID, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(e.wallet.PublicKey()) {
			return &e.wallet
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("executor: signing batch %s: %w", batch.ID, err)
	}

	signature, err := e.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{})
	if err != nil {
		return nil, fmt.Errorf("executor: sending batch %s: %w", batch.ID, err)
	}

	e.logger.Info().
		Str("batch", batch.ID.String()).
		Str("signature", signature.String()).
		Int("instructions", len(batch.Instructions)).
		Msg("batch submitted")
	return []string{signature.String()}, nil
}

// LoadMarketFromData attaches a fetched market state account to a stub.
func LoadMarketFromData(stub market.PerpMarket, data []byte, mngo token.Token) (market.PerpMarket, error) {
	details, err := market.DecodeDetails(stub.Address, data, mngo)
	if err != nil {
		return market.PerpMarket{}, err
	}
	return stub.Load(details), nil
}

// FetchMarket fetches a stub market's state account and loads it.
func FetchMarket(ctx context.Context, client *rpc.Client, stub market.PerpMarket, mngo token.Token) (market.PerpMarket, error) {
	result, err := client.GetAccountInfo(ctx, stub.Address)
	if err != nil {
		return market.PerpMarket{}, fmt.Errorf("executor: fetching market %s: %w", stub.Symbol(), err)
	}
	if result.Value == nil {
		return market.PerpMarket{}, fmt.Errorf("executor: market account %s does not exist", stub.Address)
	}
	return LoadMarketFromData(stub, result.Value.Data.GetBinary(), mngo)
}

// FetchMarketDetails re-fetches the state of an already-loaded market, for
// funding snapshots.
func FetchMarketDetails(ctx context.Context, client *rpc.Client, perpMarket market.PerpMarket, mngo token.Token) (market.PerpMarketDetails, error) {
	result, err := client.GetAccountInfo(ctx, perpMarket.Address)
	if err != nil {
		return market.PerpMarketDetails{}, fmt.Errorf("executor: fetching market %s: %w", perpMarket.Symbol(), err)
	}
	if result.Value == nil {
		return market.PerpMarketDetails{}, fmt.Errorf("executor: market account %s does not exist", perpMarket.Address)
	}
	return market.DecodeDetails(perpMarket.Address, result.Value.Data.GetBinary(), mngo)
}
