package account

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MarginAccount is the addressable state an instruction needs about the
// trader: the account itself, its owner (the transaction signer) and any
// open-orders accounts attached to it.
type MarginAccount struct {
	Address             solana.PublicKey
	Owner               solana.PublicKey
	OpenOrdersAddresses []solana.PublicKey
}

func (a MarginAccount) String() string {
	return fmt.Sprintf("MarginAccount %s (owner %s, %d open orders accounts)",
		a.Address, a.Owner, len(a.OpenOrdersAddresses))
}
