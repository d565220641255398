package services

import (
	"testing"
	"time"

	"hrms-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(hour, min int) *time.Time {
	t := time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
	return &t
}

func TestDeriveAttendanceStatus(t *testing.T) {
	s := NewAttendanceService()

	cases := []struct {
		name     string
		punchIn  *time.Time
		punchOut *time.Time
		want     string
	}{
		{"no punch-in", nil, nil, models.AttendanceAbsent},
		{"on time full day", ts(9, 0), ts(17, 30), models.AttendancePresent},
		{"on the cutoff", ts(9, 30), ts(18, 0), models.AttendancePresent},
		{"late arrival", ts(9, 31), ts(18, 0), models.AttendanceLate},
		{"short day", ts(9, 0), ts(12, 30), models.AttendanceHalfDay},
		{"late and short counts as half-day", ts(11, 0), ts(14, 0), models.AttendanceHalfDay},
		{"still open, on time", ts(9, 10), nil, models.AttendancePresent},
		{"still open, late", ts(10, 0), nil, models.AttendanceLate},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, s.DeriveStatus(c.punchIn, c.punchOut), c.name)
	}
}

func TestLeaveDaysInclusive(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}

	got, err := LeaveDays(day(2), day(2))
	require.NoError(t, err)
	assert.Equal(t, 1, got, "single day leave")

	got, err = LeaveDays(day(2), day(6))
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	_, err = LeaveDays(day(6), day(2))
	assert.ErrorIs(t, err, ErrInvalidLeaveRange)
}

func TestComputeSlip(t *testing.T) {
	slip := ComputeSlip(22000, 3000, 1500, 22, 0)
	assert.Equal(t, 0.0, slip.LossOfPay)
	assert.Equal(t, 23500.0, slip.NetPay)

	slip = ComputeSlip(22000, 3000, 1500, 22, 2)
	assert.Equal(t, 2000.0, slip.LossOfPay)
	assert.Equal(t, 21500.0, slip.NetPay)

	// net never goes negative
	slip = ComputeSlip(1000, 0, 2000, 20, 0)
	assert.Equal(t, 0.0, slip.NetPay)

	// no working days yet (first of the month) must not divide by zero
	slip = ComputeSlip(22000, 0, 0, 0, 0)
	assert.Equal(t, 0.0, slip.LossOfPay)
	assert.Equal(t, 22000.0, slip.NetPay)
}
