package domain

// OrderSide indicates whether an order buys or sells the outcome token.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderRecord is one live order on the account. Size is the remaining
// unfilled quantity (original size minus matched size, never negative).
type OrderRecord struct {
	AssetID string
	Side    OrderSide
	Size    float64
	Price   float64
}

// RemainingSize returns original-matched clamped at zero.
func RemainingSize(original, matched float64) float64 {
	if rem := original - matched; rem > 0 {
		return rem
	}
	return 0
}
