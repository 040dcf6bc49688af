package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
}

func TestComputeThreeDayRental(t *testing.T) {
	q, err := Compute(500000, date(2025, 5, 10), date(2025, 5, 13))
	require.NoError(t, err)

	assert.Equal(t, 3, q.TotalDays)
	assert.Equal(t, int64(1502500), q.TotalPrice)
	assert.Equal(t, int64(450750), q.DepositPrice)
	assert.Equal(t, q.TotalPrice, q.DepositPrice+q.RemainingPrice)
}

func TestComputePartialDayRoundsUp(t *testing.T) {
	start := date(2025, 5, 10)

	q, err := Compute(300000, start, start.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, q.TotalDays)

	q, err = Compute(300000, start, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, q.TotalDays)
}

func TestComputeRejectsBadInput(t *testing.T) {
	start := date(2025, 5, 10)

	_, err := Compute(500000, start, start)
	assert.Error(t, err)

	_, err = Compute(500000, start.Add(time.Hour), start)
	assert.Error(t, err)

	_, err = Compute(0, start, start.Add(24*time.Hour))
	assert.Error(t, err)
}
