package event

import "fmt"

// Side is the direction of an order or fill, using the program's wire values.
type Side uint8

const (
	Buy  Side = 0
	Sell Side = 1
)

func SideFromValue(value uint8) Side {
	return Side(value)
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("SIDE(%d)", uint8(s))
	}
}
