package chunk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lsmtree/internal/compare"
)

func TestMemChunkInsertAndSearch(t *testing.T) {
	c := NewMemChunk("lsm:t/000001.mem", compare.Default)
	cur := c.NewCursor()

	cur.SetKey([]byte("a"))
	cur.SetValue([]byte("1"))
	require.NoError(t, cur.Insert())

	cur.SetKey([]byte("a"))
	ok, err := cur.Search()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), cur.Value())

	require.Equal(t, uint64(1), c.Count())
}

func TestMemChunkIteration(t *testing.T) {
	c := NewMemChunk("lsm:t/000001.mem", compare.Default)
	cur := c.NewCursor()
	for _, kv := range [][2]string{{"b", "2"}, {"a", "1"}, {"c", "3"}} {
		cur.SetKey([]byte(kv[0]))
		cur.SetValue([]byte(kv[1]))
		require.NoError(t, cur.Insert())
	}

	cur.Reset()
	var got []string
	for {
		ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, string(cur.Key()))
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSealAndReopen(t *testing.T) {
	dir := t.TempDir()
	c := NewMemChunk("lsm:t/000001.mem", compare.Default)
	cur := c.NewCursor()
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		cur.SetKey([]byte(kv[0]))
		cur.SetValue([]byte(kv[1]))
		require.NoError(t, cur.Insert())
	}

	path := filepath.Join(dir, "000001.chunk")
	sealed, err := c.Seal(path, compare.Default)
	require.NoError(t, err)
	require.True(t, sealed.OnDisk())

	sc := sealed.NewCursor()
	sc.SetKey([]byte("b"))
	ok, err := sc.Search()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), sc.Value())

	reopened, err := OpenSealed(path, "", compare.Default)
	require.NoError(t, err)
	rc := reopened.NewCursor()
	rc.SetKey([]byte("c"))
	ok, err = rc.Search()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("3"), rc.Value())

	require.NoError(t, sealed.Close())
	require.NoError(t, reopened.Close())
	_ = os.Remove(path)
}

func TestDiskCursorSearchNear(t *testing.T) {
	dir := t.TempDir()
	c := NewMemChunk("lsm:t/000001.mem", compare.Default)
	cur := c.NewCursor()
	for _, kv := range [][2]string{{"a", "1"}, {"z", "26"}} {
		cur.SetKey([]byte(kv[0]))
		cur.SetValue([]byte(kv[1]))
		require.NoError(t, cur.Insert())
	}

	path := filepath.Join(dir, "000001.chunk")
	sealed, err := c.Seal(path, compare.Default)
	require.NoError(t, err)
	defer sealed.Close()

	sc := sealed.NewCursor()
	sc.SetKey([]byte("m"))
	cmp, ok, err := sc.SearchNear()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, -1, cmp)
	require.Equal(t, []byte("a"), sc.Key())
}

func TestDiskCursorIsReadOnly(t *testing.T) {
	dir := t.TempDir()
	c := NewMemChunk("lsm:t/000001.mem", compare.Default)
	path := filepath.Join(dir, "000001.chunk")
	sealed, err := c.Seal(path, compare.Default)
	require.NoError(t, err)
	defer sealed.Close()

	sc := sealed.NewCursor()
	sc.SetKey([]byte("a"))
	sc.SetValue([]byte("1"))
	require.ErrorIs(t, sc.Insert(), ErrReadOnly)
}
