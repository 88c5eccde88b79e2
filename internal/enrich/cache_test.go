package enrich

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServesFreshValueWithoutRefetch(t *testing.T) {
	t.Parallel()
	c := NewTTLCache[float64]()

	calls := 0
	fetch := func() (float64, error) {
		calls++
		return 0.0003, nil
	}

	v, err := c.GetOrFetch("BTCUSDT", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 0.0003, v)

	v, err = c.GetOrFetch("BTCUSDT", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 0.0003, v)
	assert.Equal(t, 1, calls)
}

func TestCacheExpiryTriggersRefetch(t *testing.T) {
	t.Parallel()
	c := NewTTLCache[int]()

	calls := 0
	fetch := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrFetch("k", time.Nanosecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(time.Millisecond)

	v, err = c.GetOrFetch("k", time.Nanosecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	t.Parallel()
	c := NewTTLCache[int]()

	calls := 0
	_, err := c.GetOrFetch("k", time.Minute, func() (int, error) {
		calls++
		return 0, errors.New("upstream down")
	})
	require.Error(t, err)

	v, err := c.GetOrFetch("k", time.Minute, func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	t.Parallel()
	c := NewTTLCache[string]()

	a, _ := c.GetOrFetch("a", time.Minute, func() (string, error) { return "A", nil })
	b, _ := c.GetOrFetch("b", time.Minute, func() (string, error) { return "B", nil })
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)

	a2, _ := c.GetOrFetch("a", time.Minute, func() (string, error) { return "A2", nil })
	assert.Equal(t, "A", a2)
}

func TestLiquidationNotionalFilter(t *testing.T) {
	t.Parallel()
	// 20 BTC at 110k is ~2.2M notional, above the whale threshold;
	// 1 BTC is far below it.
	assert.Greater(t, 110_000.0*20, float64(liqNotionalUSD))
	assert.Less(t, 110_000.0*1, float64(liqNotionalUSD))
}
