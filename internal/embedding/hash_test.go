package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHashEncodeDeterministic(t *testing.T) {
	e := NewHash(DefaultHashDimension)
	ctx := context.Background()

	texts := []string{
		"The lookup function searches a reference table.",
		"Use add_days to shift a date by a number of days.",
	}
	first, err := e.Encode(ctx, texts)
	require.NoError(t, err)
	second, err := e.Encode(ctx, texts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashEncodeUnitNorm(t *testing.T) {
	e := NewHash(64)

	vecs, err := e.Encode(context.Background(), []string{"validate incoming data with match_pattern"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)

	assert.Len(t, vecs[0], 64)
	assert.InDelta(t, 1.0, vecNorm(vecs[0]), 1e-5)
}

func TestHashDimensionFallback(t *testing.T) {
	assert.Equal(t, DefaultHashDimension, NewHash(0).Dimension())
	assert.Equal(t, DefaultHashDimension, NewHash(-3).Dimension())
	assert.Equal(t, 128, NewHash(128).Dimension())
	assert.Equal(t, "hash-128", NewHash(128).ModelInfo())
}

func TestHashEncodeEmptyAndStopwordOnly(t *testing.T) {
	e := NewHash(32)
	ctx := context.Background()

	vecs, err := e.Encode(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)

	vecs, err = e.Encode(ctx, []string{"the of and", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Zero(t, vecNorm(vecs[0]))
	assert.Zero(t, vecNorm(vecs[1]))
}

func TestHashEncodeDistinguishesTexts(t *testing.T) {
	e := NewHash(DefaultHashDimension)

	vecs, err := e.Encode(context.Background(), []string{
		"lookup tables and dimension joins",
		"formatting timestamps with to_date",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestHashEncodeCanceledContext(t *testing.T) {
	e := NewHash(32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Encode(ctx, []string{"anything"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := []float32{0, 0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0, 0}, zero)
}
