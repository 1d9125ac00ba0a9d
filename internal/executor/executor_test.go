package executor_test

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"perpcrank/internal/executor"
	"perpcrank/internal/instruction"
	"perpcrank/internal/layout"
	"perpcrank/internal/market"
	"perpcrank/internal/token"
)

var (
	programKey = solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")
	marketKey  = solana.MustPublicKeyFromBase58("9BVcYqEQxyccuwznvxXqDkSJFavvTyheiTYk231T1A8S")
	queueKey   = solana.MustPublicKeyFromBase58("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
)

// ============================================================================
// Test: dry run
// ============================================================================

func TestDryRunExecutor(t *testing.T) {
	dry := executor.DryRunExecutor{Logger: zerolog.Nop()}

	batch := instruction.Batch{
		Instructions: []solana.Instruction{solana.NewInstruction(programKey, nil, []byte{1})},
	}
	signatures, err := dry.Execute(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(signatures) != 1 || !strings.HasPrefix(signatures[0], "dry-run-") {
		t.Errorf("signatures: got %v", signatures)
	}
}

// ============================================================================
// Test: market loading
// ============================================================================

func marketAccountData() []byte {
	data := make([]byte, layout.PerpMarketSize)
	data[0] = 10 // metadata: perp market data type
	data[2] = 1  // initialized
	copy(data[104:], queueKey.Bytes())
	binary.LittleEndian.PutUint64(data[136:], 1)   // quote lot size
	binary.LittleEndian.PutUint64(data[144:], 100) // base lot size
	return data
}

func TestLoadMarketFromData(t *testing.T) {
	base := token.NewInstrument("BTC", "Bitcoin", 6)
	quote := token.NewToken("USDC", "USD Coin", 6, solana.PublicKey{})
	mngo := token.NewToken("MNGO", "Mango", 6, solana.PublicKey{})
	stub := market.NewPerpMarketStub(programKey, marketKey, base, quote)

	loaded, err := executor.LoadMarketFromData(stub, marketAccountData(), mngo)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Loaded() {
		t.Fatal("market should be loaded")
	}
	if loaded.EventQueueAddress() != queueKey {
		t.Errorf("event queue: got %s", loaded.EventQueueAddress())
	}
	if loaded.Converter.LotSize().String() != "0.0001" {
		t.Errorf("lot size: got %s", loaded.Converter.LotSize())
	}
}

func TestLoadMarketFromData_ShortBuffer(t *testing.T) {
	base := token.NewInstrument("BTC", "Bitcoin", 6)
	quote := token.NewToken("USDC", "USD Coin", 6, solana.PublicKey{})
	mngo := token.NewToken("MNGO", "Mango", 6, solana.PublicKey{})
	stub := market.NewPerpMarketStub(programKey, marketKey, base, quote)

	if _, err := executor.LoadMarketFromData(stub, make([]byte, 10), mngo); err == nil {
		t.Error("expected an error for a truncated account")
	}
}
