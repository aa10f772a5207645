package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeCursorRoundTrips(t *testing.T) {
	cursor := EncodeCursor(42)
	assert.Equal(t, 42, DecodeCursor(cursor))
}

func TestDecodeCursorHandlesInvalidInput(t *testing.T) {
	assert.Equal(t, 0, DecodeCursor(""))
	assert.Equal(t, 0, DecodeCursor("not-valid-base64!!"))
	assert.Equal(t, 0, DecodeCursor(EncodeCursor(-5)))
}

func TestFromResultsSlicesAndComputesNextCursor(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	p := FromResults(items, 0, 2)
	assert.Equal(t, []int{1, 2}, p.Items)
	assert.Equal(t, 5, p.TotalHits)
	assert.NotEmpty(t, p.NextCursor)

	next := FromResults(items, DecodeCursor(p.NextCursor), 2)
	assert.Equal(t, []int{3, 4}, next.Items)
}

func TestFromResultsLastPageHasNoNextCursor(t *testing.T) {
	items := []int{1, 2, 3}
	p := FromResults(items, 2, 2)
	assert.Equal(t, []int{3}, p.Items)
	assert.Empty(t, p.NextCursor)
}

func TestFromResultsOffsetBeyondLengthReturnsEmptyPage(t *testing.T) {
	items := []int{1, 2, 3}
	p := FromResults(items, 10, 2)
	assert.Empty(t, p.Items)
	assert.Empty(t, p.NextCursor)
	assert.Equal(t, 3, p.TotalHits)
}
