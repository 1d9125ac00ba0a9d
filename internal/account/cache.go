package account

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"perpcrank/internal/layout"
)

// PerpMarketCache carries a market's funding accumulators from the group
// cache account. Funding values are native quote units per base lot, as
// accumulated by the program since the market's creation.
type PerpMarketCache struct {
	LongFunding  decimal.Decimal
	ShortFunding decimal.Decimal
	LastUpdate   time.Time
}

// PerpMarketCacheFromLayout converts the decoded cache entry. A zero
// last-update time means the cache slot has never been written; nil is
// returned so callers can tell an unused market apart from a quiet one.
func PerpMarketCacheFromLayout(data layout.PerpMarketCacheData) *PerpMarketCache {
	if data.LastUpdate.Unix() == 0 {
		return nil
	}
	return &PerpMarketCache{
		LongFunding:  data.LongFunding,
		ShortFunding: data.ShortFunding,
		LastUpdate:   data.LastUpdate,
	}
}

// DecodePerpMarketCache parses one 40-byte cache entry.
func DecodePerpMarketCache(data []byte) (*PerpMarketCache, error) {
	decoded, err := layout.DecodePerpMarketCache(data)
	if err != nil {
		return nil, fmt.Errorf("account: decoding perp market cache: %w", err)
	}
	return PerpMarketCacheFromLayout(decoded), nil
}

func (c PerpMarketCache) String() string {
	return fmt.Sprintf("PerpMarketCache [%s] %s / %s", c.LastUpdate, c.LongFunding, c.ShortFunding)
}
