package instruction

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Batch is an ordered set of instructions handed to the executor as one
// submission, tagged so log lines on both sides of the boundary correlate.
type Batch struct {
	ID           uuid.UUID
	Instructions []solana.Instruction
}

// Executor signs and broadcasts a batch, returning transaction signatures.
// Retry and backoff for submission are its concern, not the builders'.
type Executor interface {
	Execute(ctx context.Context, batch Batch) ([]string, error)
}

// CombinableInstructions is an ordered list of instructions that can be
// concatenated with further lists before being submitted as one batch.
type CombinableInstructions struct {
	Instructions []solana.Instruction
}

func Empty() CombinableInstructions {
	return CombinableInstructions{}
}

func FromInstructions(instructions ...solana.Instruction) CombinableInstructions {
	return CombinableInstructions{Instructions: instructions}
}

// Combine appends the given instruction sets after this one, in order.
func Combine(sets ...CombinableInstructions) CombinableInstructions {
	var combined CombinableInstructions
	for _, set := range sets {
		combined.Instructions = append(combined.Instructions, set.Instructions...)
	}
	return combined
}

// Then returns this set followed by other.
func (c CombinableInstructions) Then(other CombinableInstructions) CombinableInstructions {
	return Combine(c, other)
}

func (c CombinableInstructions) IsEmpty() bool {
	return len(c.Instructions) == 0
}

// Execute hands the accumulated instructions to the executor under a fresh
// batch id. An empty set executes to nothing without touching the executor.
func (c CombinableInstructions) Execute(ctx context.Context, executor Executor) ([]string, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	batch := Batch{ID: uuid.New(), Instructions: c.Instructions}
	signatures, err := executor.Execute(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("instruction: executing batch %s: %w", batch.ID, err)
	}
	return signatures, nil
}

func (c CombinableInstructions) String() string {
	return fmt.Sprintf("CombinableInstructions with %d instructions", len(c.Instructions))
}
