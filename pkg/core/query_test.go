package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/pkg/core"
)

func docAt(ref string, ts time.Time) core.Document {
	return core.Document{
		Ref:    core.Ref(ref),
		Fields: core.Fields{core.FieldDateSpotted: ts},
	}
}

func TestRecentQuery_Defaults(t *testing.T) {
	q := core.RecentQuery(0)
	assert.Equal(t, core.FieldDateSpotted, q.OrderBy)
	assert.True(t, q.Descending)
	assert.Equal(t, core.DefaultLimit, q.Limit)
}

func TestQueryApply_OrdersDescendingAndLimits(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var docs []core.Document
	for i := 0; i < 15; i++ {
		docs = append(docs, docAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
	}

	got := core.RecentQuery(10).Apply(docs)

	require.Len(t, got, 10)
	assert.Equal(t, core.Ref("o"), got[0].Ref)
	assert.Equal(t, core.Ref("f"), got[9].Ref)
	for i := 1; i < len(got); i++ {
		prev, _ := got[i-1].Fields.Time(core.FieldDateSpotted)
		cur, _ := got[i].Fields.Time(core.FieldDateSpotted)
		assert.False(t, cur.After(prev), "results must be newest first")
	}
}

func TestQueryApply_MixedTimestampForms(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	docs := []core.Document{
		{Ref: "old", Fields: core.Fields{core.FieldDateSpotted: t1.Format(time.RFC3339)}},
		{Ref: "new", Fields: core.Fields{core.FieldDateSpotted: t2}},
		{Ref: "none", Fields: core.Fields{}},
	}

	got := core.RecentQuery(10).Apply(docs)

	require.Len(t, got, 3)
	assert.Equal(t, []core.Ref{"new", "old", "none"}, []core.Ref{got[0].Ref, got[1].Ref, got[2].Ref})
}

func TestQueryApply_TiesBrokenByRef(t *testing.T) {
	ts := time.Now()
	docs := []core.Document{docAt("b", ts), docAt("a", ts), docAt("c", ts)}

	got := core.Query{OrderBy: core.FieldDateSpotted, Descending: true}.Apply(docs)

	assert.Equal(t, core.Ref("a"), got[0].Ref)
	assert.Equal(t, core.Ref("c"), got[2].Ref)
}
