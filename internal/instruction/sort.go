package instruction

import (
	"encoding/binary"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// sortKey reads an address as four little-endian words, the byte order the
// on-chain program compares account keys in. Sorting by this key instead of
// base58 or big-endian bytes keeps our instruction account order identical
// to every other conforming cranker's.
func sortKey(address solana.PublicKey) [4]uint64 {
	raw := address.Bytes()
	return [4]uint64{
		binary.LittleEndian.Uint64(raw[0:8]),
		binary.LittleEndian.Uint64(raw[8:16]),
		binary.LittleEndian.Uint64(raw[16:24]),
		binary.LittleEndian.Uint64(raw[24:32]),
	}
}

// LessPublicKey is the canonical address ordering for crank instructions.
func LessPublicKey(a, b solana.PublicKey) bool {
	keyA, keyB := sortKey(a), sortKey(b)
	for i := range keyA {
		if keyA[i] != keyB[i] {
			return keyA[i] < keyB[i]
		}
	}
	return false
}

// SortAddresses sorts in place by the canonical ordering.
func SortAddresses(addresses []solana.PublicKey) {
	sort.Slice(addresses, func(i, j int) bool {
		return LessPublicKey(addresses[i], addresses[j])
	})
}
