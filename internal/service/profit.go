package service

import "github.com/ndewijer/Yield-Bank-Backend/internal/model"

// computeProfit returns current minus purchase and that difference as a
// percentage of purchase. The rate is 0 when purchase is 0.
func computeProfit(current, purchase int64) (int64, model.Rate) {
	profit := current - purchase
	if purchase <= 0 {
		return profit, model.Rate{}
	}
	return profit, model.PercentOf(profit, purchase)
}

// signalFor compares a profit rate against the holding's thresholds. A zero
// threshold is disabled. The stop-loss threshold is read as a magnitude, so
// 10 and -10 both trigger at -10%.
func signalFor(rate, takeProfit, stopLoss model.Rate) model.Signal {
	if takeProfit.Cmp(model.Rate{}) > 0 && rate.Cmp(takeProfit) >= 0 {
		return model.SignalTakeProfit
	}
	if !stopLoss.IsZero() && rate.Cmp(stopLoss.Abs().Neg()) <= 0 {
		return model.SignalStopLoss
	}
	return model.SignalNone
}
