package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertDue_Cooldown(t *testing.T) {
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)
	twoHoursAgo := now.Add(-2 * time.Hour)
	dayAndHourAgo := now.Add(-25 * time.Hour)

	tests := []struct {
		name  string
		alert Alert
		due   bool
	}{
		{"never notified", Alert{IsActive: true}, true},
		{"notified 2h ago still cooling down", Alert{IsActive: true, LastNotifiedAt: &twoHoursAgo}, false},
		{"notified 25h ago due again", Alert{IsActive: true, LastNotifiedAt: &dayAndHourAgo}, true},
		{"notified exactly at cutoff not due", Alert{IsActive: true, LastNotifiedAt: &cutoff}, false},
		{"inactive never due", Alert{IsActive: false, LastNotifiedAt: &dayAndHourAgo}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.due, tt.alert.Due(cutoff))
		})
	}
}

func TestAlertValidate(t *testing.T) {
	valid := Alert{Email: "user@example.com", MaxPrice: 12000, MinYear: 2015}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, (&Alert{MaxPrice: 12000}).Validate(), ErrAlertEmailRequired)
	assert.ErrorIs(t, (&Alert{Email: "user@example.com"}).Validate(), ErrAlertMaxPriceInvalid)
	assert.ErrorIs(t, (&Alert{Email: "user@example.com", MaxPrice: 12000, MinYear: 1900}).Validate(), ErrAlertMinYearInvalid)
}
