// Package availability decides whether a vehicle is free for a
// requested period by scanning its confirmed bookings month by month.
package availability

import (
	"context"
	"fmt"
	"time"
)

// Booking is one confirmed rental period blocking a vehicle.
type Booking struct {
	RentalID int       `json:"rentalId"`
	Start    time.Time `json:"startDateTime"`
	End      time.Time `json:"endDateTime"`
}

// Month identifies one calendar month of a vehicle's booking calendar.
type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// BookingSource loads the confirmed bookings of a vehicle that touch a
// given calendar month. Cancelled and refund-only rentals never count.
type BookingSource interface {
	ConfirmedBookings(ctx context.Context, vehicleID int, m Month) ([]Booking, error)
}

// Overlaps reports whether [reqStart, reqEnd) collides with
// [bookingStart, bookingEnd). Back-to-back periods that share only an
// endpoint do not overlap.
func Overlaps(reqStart, reqEnd, bookingStart, bookingEnd time.Time) bool {
	return reqStart.Before(bookingEnd) && reqEnd.After(bookingStart)
}

// MonthsInRange lists every calendar month the period [start, end)
// touches, in order.
func MonthsInRange(start, end time.Time) []Month {
	var months []Month
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, Month{Year: cur.Year(), Month: int(cur.Month())})
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// Result is the outcome of an availability check.
type Result struct {
	Available bool      `json:"available"`
	Conflict  *Booking  `json:"conflict,omitempty"`
	Start     time.Time `json:"startDateTime"`
	End       time.Time `json:"endDateTime"`
}

// Checker answers availability questions for vehicles.
type Checker struct {
	source BookingSource
}

func NewChecker(source BookingSource) *Checker {
	return &Checker{source: source}
}

// Check reports whether vehicleID is free for [start, end). A failed
// month query fails the whole check rather than pretending the month
// was empty.
func (c *Checker) Check(ctx context.Context, vehicleID int, start, end time.Time) (Result, error) {
	if !end.After(start) {
		return Result{}, fmt.Errorf("availability: end %s must be after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	res := Result{Available: true, Start: start, End: end}
	seen := make(map[int]struct{})

	for _, m := range MonthsInRange(start, end) {
		bookings, err := c.source.ConfirmedBookings(ctx, vehicleID, m)
		if err != nil {
			return Result{}, fmt.Errorf("availability: bookings for vehicle %d in %d-%02d: %w",
				vehicleID, m.Year, m.Month, err)
		}
		for i, b := range bookings {
			if _, dup := seen[b.RentalID]; dup {
				continue
			}
			seen[b.RentalID] = struct{}{}
			if Overlaps(start, end, b.Start, b.End) {
				res.Available = false
				res.Conflict = &bookings[i]
				return res, nil
			}
		}
	}
	return res, nil
}
