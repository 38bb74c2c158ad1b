package chain

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dingwecker/config"
)

func TestPickWithinRangeProperty(t *testing.T) {
	z := NewRandomizer(rand.NewSource(1))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("pick stays inside [min, max]", prop.ForAll(
		func(min, width int) bool {
			r := config.DelayRange{Min: min, Max: min + width}
			v, err := z.Pick(r)
			return err == nil && v >= r.Min && v <= r.Max
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func TestPickHitsBothEndpoints(t *testing.T) {
	z := NewRandomizer(rand.NewSource(42))
	seen := map[int]int{}
	for i := 0; i < 2000; i++ {
		v, err := z.Pick(config.DelayRange{Min: 5, Max: 8})
		require.NoError(t, err)
		seen[v]++
	}
	assert.Len(t, seen, 4)
	assert.Positive(t, seen[5], "min must be reachable")
	assert.Positive(t, seen[8], "max must be reachable")
}

func TestPickSingleValue(t *testing.T) {
	z := NewRandomizer(nil)
	for i := 0; i < 20; i++ {
		v, err := z.Pick(config.DelayRange{Min: 3, Max: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	}
}

func TestPickInvalidRange(t *testing.T) {
	z := NewRandomizer(nil)
	for _, r := range []config.DelayRange{{Min: 10, Max: 2}, {Min: -1, Max: 4}} {
		_, err := z.Pick(r)
		var rangeErr *InvalidRangeError
		require.True(t, errors.As(err, &rangeErr), "range %v", r)
		assert.Equal(t, r, rangeErr.Range, "bounds are reported as configured")
		assert.ErrorIs(t, err, config.ErrInvalidRange)
	}
}
