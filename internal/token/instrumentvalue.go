package token

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InstrumentValue pairs a quantity with the instrument it is denominated in,
// so a bare decimal can never be mistaken for the wrong asset.
type InstrumentValue struct {
	Instrument Instrument
	Value      decimal.Decimal
}

func NewInstrumentValue(instrument Instrument, value decimal.Decimal) InstrumentValue {
	return InstrumentValue{Instrument: instrument, Value: value}
}

func (v InstrumentValue) IsZero() bool {
	return v.Value.IsZero()
}

func (v InstrumentValue) Add(other InstrumentValue) (InstrumentValue, error) {
	if v.Instrument.Symbol != other.Instrument.Symbol {
		return InstrumentValue{}, fmt.Errorf("cannot add %s to %s", other.Instrument.Symbol, v.Instrument.Symbol)
	}
	return InstrumentValue{Instrument: v.Instrument, Value: v.Value.Add(other.Value)}, nil
}

func (v InstrumentValue) String() string {
	return fmt.Sprintf("%s %s", v.Value, v.Instrument.Symbol)
}
