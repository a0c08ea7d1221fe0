package profiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/profiler"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestProfiler_CountsCallsPerMethod(t *testing.T) {
	p := profiler.New[string, num]("cache", array.New[string, num](5))

	p.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	p.Push([]blockcache.Pair[string, num]{{Key: "b", Value: 2}})
	p.Contains("a")

	reports := p.Reports()

	var push, contains *profiler.Report

	for i := range reports {
		switch reports[i].Method {
		case "push":
			push = &reports[i]
		case "contains":
			contains = &reports[i]
		}
	}

	require.NotNil(t, push)
	require.NotNil(t, contains)
	assert.Equal(t, int64(2), push.Count)
	assert.Equal(t, int64(1), contains.Count)
}

func TestProfiler_TracksHitsAndMisses(t *testing.T) {
	p := profiler.New[string, num]("cache", array.New[string, num](5))

	p.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})

	p.Take("a")
	p.Take("missing")

	reports := p.Reports()

	var take *profiler.Report

	for i := range reports {
		if reports[i].Method == "take" {
			take = &reports[i]
		}
	}

	require.NotNil(t, take)
	assert.True(t, take.HasHits)
	assert.InDelta(t, 0.5, take.HitRate, 0.0001)
}

func TestProfiler_WriteReport(t *testing.T) {
	p := profiler.New[string, num]("cache", array.New[string, num](5))
	p.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})

	var buf bytes.Buffer
	require.NoError(t, p.WriteReport(&buf))

	assert.Contains(t, buf.String(), "cache.push count=1")
}

func TestProfiler_FlushToDiscardSucceeds(t *testing.T) {
	p := profiler.New[string, num]("cache", array.New[string, num](5))
	assert.NoError(t, p.FlushTo(profiler.SinkDiscard, ""))
}
