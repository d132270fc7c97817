package orderv1

// StopLossTakeProfit is the advisory exit band recorded for an admitted buy.
type StopLossTakeProfit struct {
	OrderID         string  `json:"order_id"`
	Symbol          string  `json:"symbol"`
	StopLossPrice   float64 `json:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
}

// Trigger is the outcome of checking a band against a price.
type Trigger int

const (
	// TriggerNone means the price is inside the band.
	TriggerNone Trigger = iota
	// TriggerStopLoss means the price fell to or below the stop loss.
	TriggerStopLoss
	// TriggerTakeProfit means the price rose to or above the take profit.
	TriggerTakeProfit
)

// NewStopLossTakeProfit builds a band of +/- band around marketPrice.
func NewStopLossTakeProfit(orderID, symbol string, marketPrice, band float64) StopLossTakeProfit {
	return StopLossTakeProfit{
		OrderID:         orderID,
		Symbol:          symbol,
		StopLossPrice:   marketPrice * (1 - band),
		TakeProfitPrice: marketPrice * (1 + band),
	}
}

// Check compares price against the band.
func (s StopLossTakeProfit) Check(price float64) Trigger {
	switch {
	case price <= s.StopLossPrice:
		return TriggerStopLoss
	case price >= s.TakeProfitPrice:
		return TriggerTakeProfit
	default:
		return TriggerNone
	}
}
