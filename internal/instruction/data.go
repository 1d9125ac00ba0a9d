package instruction

import (
	"encoding/binary"
	"math/big"

	"github.com/shopspring/decimal"
)

// Instruction variants of the on-chain program, little-endian u32 on the
// wire.
const (
	variantPlacePerpOrder            uint32 = 12
	variantCancelPerpOrderByClientID uint32 = 13
	variantCancelPerpOrder           uint32 = 14
	variantConsumeEvents             uint32 = 15
	variantSettlePnl                 uint32 = 22
	variantRedeemMngo                uint32 = 33
	variantCancelAllPerpOrders       uint32 = 39
	variantPlacePerpOrder2           uint32 = 64
)

// dataWriter accumulates instruction data in the program's wire encoding:
// a u32 variant followed by little-endian operands.
type dataWriter struct {
	buf []byte
}

func newDataWriter(variant uint32) *dataWriter {
	w := &dataWriter{buf: make([]byte, 0, 64)}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, variant)
	return w
}

func (w *dataWriter) u8(v uint8) *dataWriter {
	w.buf = append(w.buf, v)
	return w
}

func (w *dataWriter) flag(v bool) *dataWriter {
	if v {
		return w.u8(1)
	}
	return w.u8(0)
}

func (w *dataWriter) u64(v uint64) *dataWriter {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

func (w *dataWriter) i64(v int64) *dataWriter {
	return w.u64(uint64(v))
}

// i128 writes a decimal integer as a two's-complement 128-bit value.
func (w *dataWriter) i128(v decimal.Decimal) *dataWriter {
	raw := v.BigInt()
	if raw.Sign() < 0 {
		raw = new(big.Int).Add(raw, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	be := raw.FillBytes(make([]byte, 16))
	le := make([]byte, 16)
	for i := range be {
		le[i] = be[16-1-i]
	}
	w.buf = append(w.buf, le...)
	return w
}

func (w *dataWriter) bytes() []byte {
	return w.buf
}
