// Package pricing computes parking fees.
package pricing

import (
	"math"
	"time"
)

// Policy prices a session from its billable hours and the lot's hourly rate.
type Policy interface {
	Price(hours int, ratePerHour float64) float64
}

// Hourly bills every started hour at the full rate.
type Hourly struct{}

// Price returns hours * ratePerHour rounded to cents.
func (Hourly) Price(hours int, ratePerHour float64) float64 {
	if hours < 1 || ratePerHour < 0 {
		return 0
	}
	return RoundCents(float64(hours) * ratePerHour)
}

// BillableHours rounds the session up to whole hours, with a one hour minimum.
func BillableHours(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}
	hours := int(math.Ceil(d.Hours()))
	if hours < 1 {
		return 1
	}
	return hours
}

// RoundCents rounds to two decimals, half away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
