// Package pricing computes rental quotes. Every money figure in the
// repo flows through Compute so the deposit, the remaining payment and
// the contract payload can never disagree about the total.
package pricing

import (
	"fmt"
	"time"
)

// AppFee is the flat platform fee added to every rental, in VND.
const AppFee int64 = 2500

// DepositRate is the fraction of the total price collected up front.
const DepositRate = 0.3

// Quote is the full price breakdown for a rental period.
type Quote struct {
	TotalDays      int   `json:"totalDays"`
	DailyPrice     int64 `json:"dailyPrice"`
	AppFee         int64 `json:"appFee"`
	TotalPrice     int64 `json:"totalPrice"`
	DepositPrice   int64 `json:"depositPrice"`
	RemainingPrice int64 `json:"remainingPrice"`
}

// TotalDays counts billable days between start and end. Any partial
// day rounds up, and a rental is never shorter than one day.
func TotalDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("end date %s must be after start date %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Compute builds the quote for renting a vehicle at dailyPrice VND/day
// over [start, end).
func Compute(dailyPrice int64, start, end time.Time) (Quote, error) {
	if dailyPrice <= 0 {
		return Quote{}, fmt.Errorf("daily price must be positive, got %d", dailyPrice)
	}

	days, err := TotalDays(start, end)
	if err != nil {
		return Quote{}, err
	}

	total := dailyPrice*int64(days) + AppFee
	deposit := int64(float64(total) * DepositRate)

	return Quote{
		TotalDays:      days,
		DailyPrice:     dailyPrice,
		AppFee:         AppFee,
		TotalPrice:     total,
		DepositPrice:   deposit,
		RemainingPrice: total - deposit,
	}, nil
}
