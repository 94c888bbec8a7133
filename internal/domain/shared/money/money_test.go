package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/money"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := money.New(1000, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = money.New(1000, "US")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)

	_, err = money.New(1000, "XTS")
	assert.ErrorIs(t, err, money.ErrUnsupportedCurrency)
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	usd := money.Must(500, "USD")
	eur := money.Must(500, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	sum, err := usd.Add(money.Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(750), sum.Amount)

	diff, err := usd.Sub(money.Must(600, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(-100), diff.Amount)
	assert.True(t, diff.IsNegative())
}

func TestMulFloatHalfUp(t *testing.T) {
	base := money.Must(10000, "USD")

	assert.Equal(t, int64(15000), base.MulFloatHalfUp(1.5).Amount)
	// 100.00 * 1.005 = 100.50 exactly
	assert.Equal(t, int64(10050), base.MulFloatHalfUp(1.005).Amount)
	// .5 of a cent rounds up
	assert.Equal(t, int64(334), money.Must(333, "USD").MulFloatHalfUp(1.0015).Amount)
	// 1/3 of a cent rounds down
	assert.Equal(t, int64(3333), money.Must(9999, "USD").MulFloatHalfUp(1.0/3).Amount)
}

func TestPercentFloorNeverOverpays(t *testing.T) {
	total := money.Must(999, "USD")

	assert.Equal(t, int64(499), total.PercentFloor(50).Amount)
	assert.Equal(t, int64(0), total.PercentFloor(0).Amount)
	assert.Equal(t, int64(0), total.PercentFloor(-10).Amount)
	assert.Equal(t, int64(999), total.PercentFloor(150).Amount)
}
