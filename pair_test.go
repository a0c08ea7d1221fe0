package blockcache_test

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cachetree/blockcache"
)

func TestUnitSizer(t *testing.T) {
	assert.Equal(t, uint64(1), blockcache.UnitSizer(42))
	assert.Equal(t, uint64(1), blockcache.UnitSizer("anything"))
}

// stubBlock is a minimal BuildingBlock backed by a map, used only to
// exercise DefaultTakeMultiple's key-shrinking contract.
type stubBlock struct {
	data map[int]int
}

func (s *stubBlock) Capacity() uint64 { return 100 }
func (s *stubBlock) Size() uint64     { return uint64(len(s.data)) }
func (s *stubBlock) Contains(k int) bool {
	_, ok := s.data[k]
	return ok
}

func (s *stubBlock) Take(k int) (blockcache.Pair[int, int], bool) {
	v, ok := s.data[k]
	if !ok {
		return blockcache.Pair[int, int]{}, false
	}

	delete(s.data, k)

	return blockcache.Pair[int, int]{Key: k, Value: v}, true
}

func (s *stubBlock) TakeMultiple(keys *[]int) []blockcache.Pair[int, int] {
	return blockcache.DefaultTakeMultiple[int, int](s, keys)
}

func (s *stubBlock) Pop(uint64) []blockcache.Pair[int, int] { return nil }

func (s *stubBlock) Push(p []blockcache.Pair[int, int]) []blockcache.Pair[int, int] { return p }

func (s *stubBlock) Flush() iter.Seq2[int, int] { return func(func(int, int) bool) {} }

func TestDefaultTakeMultiple(t *testing.T) {
	s := &stubBlock{data: map[int]int{1: 10, 2: 20}}
	keys := []int{1, 2, 3}

	taken := s.TakeMultiple(&keys)

	assert.Len(t, taken, 2)
	assert.Equal(t, []int{3}, keys, "found keys must be removed, leaving only the miss")
	assert.False(t, s.Contains(1))
	assert.False(t, s.Contains(2))
}
