package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultLimit is the size of the "recent sightings" feed.
const DefaultLimit = 10

// Query describes an ordered, limited read of a collection.
type Query struct {
	OrderBy    string
	Descending bool
	Limit      int // Zero means no limit.
}

// RecentQuery returns the most recent sightings first.
func RecentQuery(limit int) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Query{
		OrderBy:    FieldDateSpotted,
		Descending: true,
		Limit:      limit,
	}
}

// Apply orders and truncates docs in place for backends without native
// ordering. Ties are broken by Ref so results are deterministic.
func (q Query) Apply(docs []Document) []Document {
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareField(docs[i].Fields, docs[j].Fields, q.OrderBy)
			if c == 0 {
				return docs[i].Ref < docs[j].Ref
			}
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

// compareField orders two documents by one field. Missing values sort first.
func compareField(a, b Fields, key string) int {
	if ta, err := a.Time(key); err == nil && !ta.IsZero() {
		tb, err := b.Time(key)
		if err != nil || tb.IsZero() {
			return 1
		}
		return ta.Compare(tb)
	}
	if _, ok := b[key]; ok {
		if tb, err := b.Time(key); err == nil && !tb.IsZero() {
			return -1
		}
	}
	sa, _ := a[key].(string)
	sb, _ := b[key].(string)
	return strings.Compare(sa, sb)
}

// Snapshot is one full delivery of a live query.
type Snapshot struct {
	Docs   []Document
	Err    error
	ReadAt time.Time
}

// String summarizes the snapshot for logs and event streams.
func (s Snapshot) String() string {
	if s.Err != nil {
		return "snapshot error: " + s.Err.Error()
	}
	return fmt.Sprintf("snapshot of %d documents", len(s.Docs))
}
