package staticembed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIsDeterministic(t *testing.T) {
	e := New(32)
	a, err := e.Encode(context.Background(), []string{"goroutines are cheap"})
	require.NoError(t, err)
	b, err := e.Encode(context.Background(), []string{"goroutines are cheap"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeEmptyTextYieldsZeroVector(t *testing.T) {
	e := New(16)
	out, err := e.Encode(context.Background(), []string{"   "})
	require.NoError(t, err)
	for _, x := range out[0] {
		assert.Zero(t, x)
	}
}

func TestEncodeQueryMatchesEncodeForSameText(t *testing.T) {
	e := New(32)
	batch, err := e.Encode(context.Background(), []string{"channels"})
	require.NoError(t, err)
	single, err := e.EncodeQuery(context.Background(), "channels")
	require.NoError(t, err)
	assert.Equal(t, batch[0], single)
}

func TestDimReturnsConfiguredDimensionality(t *testing.T) {
	e := New(128)
	assert.Equal(t, 128, e.Dim())
}
