package engine

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// rowGroupCache keeps decoded row groups around so paging back and forth
// over the same groups doesn't re-decode them. Keyed on
// (file id, row group id, column set), dropped whole with the session.
// Purely an optimization, correctness never depends on it.
type rowGroupCache struct {
	mu      sync.RWMutex
	entries map[string][]Row
	// insertion order for FIFO eviction
	order []string
	max   int

	group singleflight.Group
}

func newRowGroupCache(max int) *rowGroupCache {
	if max <= 0 {
		return nil
	}
	return &rowGroupCache{
		entries: make(map[string][]Row),
		max:     max,
	}
}

func cacheKey(fileID string, rowGroup int, columns []string) string {
	var sb strings.Builder
	sb.WriteString(fileID)
	sb.WriteByte('|')
	for _, d := range []byte{byte(rowGroup), byte(rowGroup >> 8), byte(rowGroup >> 16), byte(rowGroup >> 24)} {
		sb.WriteByte(d)
	}
	sb.WriteByte('|')
	for _, col := range columns {
		sb.WriteString(col)
		sb.WriteByte(0)
	}
	return sb.String()
}

// getOrDecode returns the cached rows for key, or runs decode exactly once
// per key even under concurrent requests for the same row group.
func (c *rowGroupCache) getOrDecode(ctx context.Context, key string, decode func(context.Context) ([]Row, error)) ([]Row, error) {
	if c == nil {
		return decode(ctx)
	}

	c.mu.RLock()
	rows, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return rows, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		rows, err := decode(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]Row), nil
}

func (c *rowGroupCache) put(key string, rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = rows
	c.order = append(c.order, key)
}

func (c *rowGroupCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
