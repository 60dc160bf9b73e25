package entity

import (
	"errors"
	"time"
)

// minPlausibleYear is the oldest model year an alert filter may ask for.
const minPlausibleYear = 1990

var (
	ErrAlertEmailRequired   = errors.New("alert email is required")
	ErrAlertMaxPriceInvalid = errors.New("alert max price must be greater than zero")
	ErrAlertMinYearInvalid  = errors.New("alert min year is not a plausible model year")
)

// Alert is a subscriber's saved matching criterion. UserID is an opaque
// identity token; only MaxPrice is a required filter.
type Alert struct {
	ID             string
	UserID         string
	Email          string
	Brand          string
	Model          string
	MaxPrice       float64
	MinYear        int
	MaxKM          int
	Fuel           string
	Location       string
	IsActive       bool
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
}

// Due reports whether the alert is eligible for notification given a cooldown
// cutoff: it must be active and either never notified or last notified before
// the cutoff. Mongo's FindDue query applies the same predicate server-side.
func (a *Alert) Due(cutoff time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.LastNotifiedAt == nil || a.LastNotifiedAt.Before(cutoff)
}

func (a *Alert) Validate() error {
	if a.Email == "" {
		return ErrAlertEmailRequired
	}
	if a.MaxPrice <= 0 {
		return ErrAlertMaxPriceInvalid
	}
	if a.MinYear != 0 && a.MinYear < minPlausibleYear {
		return ErrAlertMinYearInvalid
	}
	return nil
}
