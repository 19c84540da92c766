package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    int
	}{
		{"exactly seven days", now.AddDate(0, 0, 7), 7},
		{"six days and some hours rounds up", now.Add(6*24*time.Hour + 5*time.Hour), 7},
		{"exactly now", now, 0},
		{"two days past expiry", now.AddDate(0, 0, -2), -2},
		{"one hour left counts as one day", now.Add(time.Hour), 1},
		{"one hour past expiry counts as expired today", now.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.expires, now))
		})
	}
}

func TestEndDate(t *testing.T) {
	created := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	got := EndDate(created, 3)
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), got)
}
