package instruction

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"perpcrank/internal/event"
)

// OrderType selects the matching behaviour of a placed order, with the
// program's wire values.
type OrderType uint8

const (
	Limit         OrderType = 0
	IOC           OrderType = 1
	PostOnly      OrderType = 2
	Market        OrderType = 3
	PostOnlySlide OrderType = 4
)

func (o OrderType) String() string {
	switch o {
	case Limit:
		return "LIMIT"
	case IOC:
		return "IOC"
	case PostOnly:
		return "POST_ONLY"
	case Market:
		return "MARKET"
	case PostOnlySlide:
		return "POST_ONLY_SLIDE"
	default:
		return fmt.Sprintf("ORDER_TYPE(%d)", uint8(o))
	}
}

// DefaultMatchLimit bounds how many book levels a placed order may match
// against before the program gives up.
const DefaultMatchLimit uint8 = 20

// Order is an immutable description of an order to place or cancel. Price
// and quantity are human-scaled; builders convert them to lots. A zero
// Expiration means the order never expires.
type Order struct {
	ID         decimal.Decimal
	ClientID   uint64
	Owner      solana.PublicKey
	Side       event.Side
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	OrderType  OrderType
	ReduceOnly bool
	Expiration time.Time
	MatchLimit uint8
}

// NewOrder builds an order with the default match limit and no expiration.
func NewOrder(side event.Side, price, quantity decimal.Decimal, orderType OrderType) Order {
	return Order{
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		OrderType:  orderType,
		MatchLimit: DefaultMatchLimit,
	}
}

// Expired reports whether the order's expiration has passed at the given
// time.
func (o Order) Expired(now time.Time) bool {
	return !o.Expiration.IsZero() && !o.Expiration.After(now)
}

func (o Order) WithID(id decimal.Decimal) Order {
	o.ID = id
	return o
}

func (o Order) WithClientID(clientID uint64) Order {
	o.ClientID = clientID
	return o
}

func (o Order) WithOwner(owner solana.PublicKey) Order {
	o.Owner = owner
	return o
}

func (o Order) WithPrice(price decimal.Decimal) Order {
	o.Price = price
	return o
}

func (o Order) WithQuantity(quantity decimal.Decimal) Order {
	o.Quantity = quantity
	return o
}

func (o Order) WithSide(side event.Side) Order {
	o.Side = side
	return o
}

func (o Order) WithReduceOnly(reduceOnly bool) Order {
	o.ReduceOnly = reduceOnly
	return o
}

func (o Order) WithExpiration(expiration time.Time) Order {
	o.Expiration = expiration
	return o
}

func (o Order) WithMatchLimit(matchLimit uint8) Order {
	o.MatchLimit = matchLimit
	return o
}

func (o Order) String() string {
	reduceOnly := ""
	if o.ReduceOnly {
		reduceOnly = " reduceOnly"
	}
	return fmt.Sprintf("Order %s for %s at %s [ID: %s / %d] %s%s",
		o.Side, o.Quantity, o.Price, o.ID, o.ClientID, o.OrderType, reduceOnly)
}
