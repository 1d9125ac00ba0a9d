package instruction

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"perpcrank/internal/event"
)

// DefaultCrankLimit is how many accounts a consume-events instruction
// carries unless the caller overrides it.
const DefaultCrankLimit = 32

// AccountsFromEvents collects the crankable accounts of the given events in
// first-seen order, without duplicates.
func AccountsFromEvents(events []event.PerpEvent) []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var accounts []solana.PublicKey
	for _, e := range events {
		for _, address := range e.AccountsToCrank() {
			if !seen[address] {
				seen[address] = true
				accounts = append(accounts, address)
			}
		}
	}
	return accounts
}

// AssembleCrankAccounts dedups the candidate addresses, force-includes the
// optional self account, sorts the result canonically and truncates it to
// limit. Sorting happens before truncation so that every cranker working
// from the same queue proposes the same account list, instead of
// semantically equal instructions that conflict on account order.
//
// Overflow beyond limit is partial progress, not failure: dropped accounts
// stay on the queue and later passes pick them up. It is logged at warn so
// an operator can see a market running hot.
func AssembleCrankAccounts(logger zerolog.Logger, addresses []solana.PublicKey, self *solana.PublicKey, limit int) []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var distinct []solana.PublicKey

	add := func(address solana.PublicKey) {
		if !seen[address] {
			seen[address] = true
			distinct = append(distinct, address)
		}
	}
	if self != nil {
		add(*self)
	}
	for _, address := range addresses {
		add(address)
	}

	SortAddresses(distinct)

	if len(distinct) > limit {
		logger.Warn().
			Int("waiting", len(distinct)).
			Int("limit", limit).
			Msg("cranking limited to a subset of waiting accounts")
		distinct = distinct[:limit]
	}
	return distinct
}
