package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalRoundTrip(t *testing.T) {
	for _, raw := range []string{"15", "7.50", "0.01", "99.999"} {
		d := decimal.RequireFromString(raw)

		stored, err := ToDecimal128(d)
		require.NoError(t, err)

		back, err := FromDecimal128(stored)
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "round trip changed %s to %s", d, back)
	}
}
