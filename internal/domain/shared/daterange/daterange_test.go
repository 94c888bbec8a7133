package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := daterange.New(date(2026, 6, 10), date(2026, 6, 10))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(date(2026, 6, 10), date(2026, 6, 9))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestNightsAndDates(t *testing.T) {
	dr, err := daterange.New(date(2026, 6, 10), date(2026, 6, 13))
	require.NoError(t, err)

	assert.Equal(t, 3, dr.Nights())
	dates := dr.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, date(2026, 6, 10), dates[0])
	assert.Equal(t, date(2026, 6, 12), dates[2])
	assert.True(t, dr.ContainsDate(date(2026, 6, 12)))
	assert.False(t, dr.ContainsDate(date(2026, 6, 13)), "checkout day is not a night")
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a, _ := daterange.New(date(2026, 6, 10), date(2026, 6, 13))
	b, _ := daterange.New(date(2026, 6, 13), date(2026, 6, 15))
	c, _ := daterange.New(date(2026, 6, 12), date(2026, 6, 14))

	assert.False(t, a.Overlaps(b), "back-to-back stays do not overlap")
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))
}

func TestTrimBefore(t *testing.T) {
	dr, _ := daterange.New(date(2026, 6, 10), date(2026, 6, 15))

	rest, ok := dr.TrimBefore(date(2026, 6, 12))
	require.True(t, ok)
	assert.Equal(t, date(2026, 6, 12), rest.CheckIn)
	assert.Equal(t, 3, rest.Nights())

	same, ok := dr.TrimBefore(date(2026, 6, 9))
	require.True(t, ok)
	assert.Equal(t, dr, same)

	_, ok = dr.TrimBefore(date(2026, 6, 15))
	assert.False(t, ok)
}
