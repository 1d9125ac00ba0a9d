package layout

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// decoder is a cursor over a raw account buffer. Every read checks the
// remaining length; the first short read poisons the decoder and the caller's
// final err() call reports it. This keeps the struct decoders free of
// per-field error plumbing.
type decoder struct {
	data   []byte
	offset int
	failed error
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data}
}

func (d *decoder) take(n int) []byte {
	if d.failed != nil {
		return nil
	}
	if d.offset+n > len(d.data) {
		d.failed = fmt.Errorf("layout: need %d bytes at offset %d, buffer has %d", n, d.offset, len(d.data))
		return nil
	}
	out := d.data[d.offset : d.offset+n]
	d.offset += n
	return out
}

func (d *decoder) skip(n int) {
	d.take(n)
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) bool8() bool {
	return d.u8() != 0
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) i64() int64 {
	return int64(d.u64())
}

// i128 reads a signed 128-bit little-endian integer as a decimal.
func (d *decoder) i128() decimal.Decimal {
	b := d.take(16)
	if b == nil {
		return decimal.Decimal{}
	}
	buf := make([]byte, 16)
	for i := 0; i < 16; i++ {
		buf[i] = b[16-1-i]
	}
	raw := new(big.Int).SetBytes(buf)
	if buf[0]&0x80 != 0 {
		raw.Sub(raw, two128)
	}
	return decimal.NewFromBigInt(raw, 0)
}

func (d *decoder) i80f48() decimal.Decimal {
	b := d.take(I80F48Size)
	if b == nil {
		return decimal.Decimal{}
	}
	value, err := DecodeI80F48(b)
	if err != nil {
		d.failed = err
		return decimal.Decimal{}
	}
	return value
}

func (d *decoder) publicKey() solana.PublicKey {
	b := d.take(solana.PublicKeyLength)
	if b == nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

func (d *decoder) err() error {
	return d.failed
}
