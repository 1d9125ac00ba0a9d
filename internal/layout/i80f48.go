package layout

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// I80F48Size is the wire size of the program's fixed-point type: a signed
// 128-bit little-endian integer with 48 fractional bits.
const I80F48Size = 16

// shift48 converts the binary fraction to a decimal one without loss:
// raw / 2^48 == raw * 5^48 * 10^-48.
var pow5to48 = new(big.Int).Exp(big.NewInt(5), big.NewInt(48), nil)

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// I80F48 decode precision. The binary fraction needs 48 decimal digits to be
// exact; values are quantized to 20 places with half-even rounding, which is
// beyond any native token amount the program can represent.
const i80f48Places = 20

// DecodeI80F48 reads a 16-byte little-endian I80F48 value as a decimal.
func DecodeI80F48(data []byte) (decimal.Decimal, error) {
	if len(data) < I80F48Size {
		return decimal.Decimal{}, fmt.Errorf("i80f48: need %d bytes, have %d", I80F48Size, len(data))
	}

	// big.Int wants big-endian magnitude.
	buf := make([]byte, I80F48Size)
	for i := 0; i < I80F48Size; i++ {
		buf[i] = data[I80F48Size-1-i]
	}
	raw := new(big.Int).SetBytes(buf)
	if buf[0]&0x80 != 0 {
		raw.Sub(raw, two128)
	}

	exact := decimal.NewFromBigInt(new(big.Int).Mul(raw, pow5to48), -48)
	return exact.RoundBank(i80f48Places), nil
}
