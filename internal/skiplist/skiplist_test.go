package skiplist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"lsmtree/internal/compare"
)

func TestUpsertAndGet(t *testing.T) {
	s := New(compare.Default)

	s.Upsert([]byte("b"), []byte("2"))
	s.Upsert([]byte("a"), []byte("1"))
	s.Upsert([]byte("c"), []byte("3"))

	v, ok := s.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	v, ok = s.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	_, ok = s.Get([]byte("missing"))
	require.False(t, ok)
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := New(compare.Default)
	s.Upsert([]byte("a"), []byte("1"))
	s.Upsert([]byte("a"), []byte("2"))

	v, ok := s.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestIteratorForward(t *testing.T) {
	s := New(compare.Default)
	for _, k := range []string{"c", "a", "b"} {
		s.Upsert([]byte(k), []byte(k+k))
	}

	it := s.NewIterator()
	it.First()

	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestIteratorReverse(t *testing.T) {
	s := New(compare.Default)
	for _, k := range []string{"c", "a", "b"} {
		s.Upsert([]byte(k), []byte(k+k))
	}

	it := s.NewIterator()
	it.Last()

	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Prev()
	}
	require.Equal(t, []string{"c", "b", "a"}, got)
}

func TestSeekGEAndSeekLE(t *testing.T) {
	s := New(compare.Default)
	s.Upsert([]byte("a"), []byte("1"))
	s.Upsert([]byte("z"), []byte("26"))

	it := s.NewIterator()
	it.SeekGE([]byte("m"))
	require.True(t, it.Valid())
	require.Equal(t, "z", string(it.Key()))

	it.SeekLE([]byte("m"))
	require.True(t, it.Valid())
	require.Equal(t, "a", string(it.Key()))
}

func TestSizeTracksInsertions(t *testing.T) {
	s := New(compare.Default)
	require.Equal(t, uint(0), s.Size())
	s.Upsert([]byte("a"), []byte("1"))
	require.Greater(t, s.Size(), uint(0))
}

func TestManyInsertsStayOrdered(t *testing.T) {
	s := New(compare.Default)
	for i := 99; i >= 0; i-- {
		s.Upsert([]byte(fmt.Sprintf("k%03d", i)), []byte("v"))
	}

	it := s.NewIterator()
	it.First()
	prev := ""
	count := 0
	for it.Valid() {
		require.True(t, prev < string(it.Key()) || prev == "")
		prev = string(it.Key())
		count++
		it.Next()
	}
	require.Equal(t, 100, count)
}
