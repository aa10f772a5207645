// Package page implements opaque cursor-based pagination over a
// fully-materialized result slice (search results are already bounded
// by top_k_per_index before they reach this layer).
package page

import (
	"encoding/base64"
	"encoding/json"
)

// cursorPayload is the only thing ever encoded into a cursor string.
type cursorPayload struct {
	Offset int `json:"o"`
}

// EncodeCursor encodes offset into an opaque, URL-safe cursor string.
func EncodeCursor(offset int) string {
	data, _ := json.Marshal(cursorPayload{Offset: offset})
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes cursor back to an offset, returning 0 for an
// empty, malformed, or negative cursor rather than erroring — an
// invalid cursor is treated as "start from the beginning".
func DecodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	data, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	var payload cursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0
	}
	if payload.Offset < 0 {
		return 0
	}
	return payload.Offset
}

// Page is one page of results plus cursor metadata for fetching the
// next one.
type Page[T any] struct {
	Items      []T
	NextCursor string
	TotalHits  int
	PageSize   int
}

// FromResults slices allItems at offset, sizing the page to pageSize,
// and computes the next cursor (empty if this is the last page).
func FromResults[T any](allItems []T, offset, pageSize int) Page[T] {
	if offset < 0 {
		offset = 0
	}
	if pageSize <= 0 {
		pageSize = len(allItems)
	}

	end := offset + pageSize
	if end > len(allItems) {
		end = len(allItems)
	}

	var items []T
	if offset < len(allItems) {
		items = allItems[offset:end]
	} else {
		items = []T{}
	}

	var nextCursor string
	if offset+pageSize < len(allItems) {
		nextCursor = EncodeCursor(offset + pageSize)
	}

	return Page[T]{
		Items:      items,
		NextCursor: nextCursor,
		TotalHits:  len(allItems),
		PageSize:   pageSize,
	}
}
