package timeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 10))
	assert.Equal(t, 5.0, Clamp(5, 10))
	assert.Equal(t, 10.0, Clamp(15, 10))
	// Unknown duration: only the lower bound applies.
	assert.Equal(t, 15.0, Clamp(15, 0))
}

func TestFake(t *testing.T) {
	ctx := context.Background()
	fake := NewFake(10)

	t.Run("seek failures are programmable", func(t *testing.T) {
		fake.FailNextSeeks(1)
		err := fake.SetPosition(ctx, 3)
		require.ErrorIs(t, err, ErrNotReady)
		position, err := fake.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0.0, position)

		require.NoError(t, fake.SetPosition(ctx, 3))
		position, err = fake.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3.0, position)

		// Both attempts are visible in the command log.
		assert.Equal(t, []float64{3, 3}, fake.SeekTargets())
	})

	t.Run("advance respects the rate", func(t *testing.T) {
		require.NoError(t, fake.SetRate(ctx, 2.0))
		fake.Advance(1.5)
		position, err := fake.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6.0, position)
	})

	t.Run("unknown duration", func(t *testing.T) {
		unknown := NewFake(0)
		_, err := unknown.Duration(ctx)
		assert.ErrorIs(t, err, ErrUnknownDuration)
	})
}
