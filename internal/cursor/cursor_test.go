package cursor

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"lsmtree/internal/compare"
	"lsmtree/internal/config"
	"lsmtree/internal/logging"
	"lsmtree/internal/tree"
)

func newTestTree(t *testing.T, threshold uint) *tree.Tree {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	tr, err := tree.Open("lsm:test", cfg, compare.Default, logging.NoOp())
	require.NoError(t, err)
	return tr
}

func newTestCursor(t *testing.T, tr *tree.Tree) *Cursor {
	t.Helper()
	c, err := Open("lsm:test", tr, DefaultOption, logging.NoOp())
	require.NoError(t, err)
	return c
}

func insert(t *testing.T, c *Cursor, key, value string) {
	t.Helper()
	c.SetKey([]byte(key))
	c.SetValue([]byte(value))
	require.NoError(t, c.Insert())
}

func remove(t *testing.T, c *Cursor, key string) {
	t.Helper()
	c.SetKey([]byte(key))
	require.NoError(t, c.Remove())
}

// S1: forward iteration returns inserted entries in order, then not-found.
func TestScenarioS1ForwardIteration(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")
	insert(t, c, "c", "3")

	require.NoError(t, c.Reset())

	var got [][2]string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, [2]string{string(c.Key()), string(c.Value())})
	}
	require.Equal(t, [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}, got)
}

// S2: remove shrinks forward iteration.
func TestScenarioS2RemoveThenIterate(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")
	insert(t, c, "c", "3")
	remove(t, c, "b")

	require.NoError(t, c.Reset())
	var got [][2]string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, [2]string{string(c.Key()), string(c.Value())})
	}
	require.Equal(t, [][2]string{{"a", "1"}, {"c", "3"}}, got)
}

// S3: own-write visibility across a forced chunk switch.
func TestScenarioS3OwnWriteAcrossSwitch(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")
	insert(t, c, "c", "3")

	tr.Lock()
	require.NoError(t, tr.Switch())
	tr.Unlock()

	insert(t, c, "b", "22")

	c.SetKey([]byte("b"))
	ok, err := c.Search()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("22"), c.Value())
}

// S4: a tombstone in a newer chunk masks an older value.
func TestScenarioS4TombstoneMasksOlderChunk(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "k", "old")

	tr.Lock()
	require.NoError(t, tr.Switch())
	tr.Unlock()

	remove(t, c, "k")

	c.SetKey([]byte("k"))
	ok, err := c.Search()
	require.NoError(t, err)
	require.False(t, ok)
}

// S5: a newer chunk's value for a key masks an older chunk's, with no
// duplicate delivered during iteration.
func TestScenarioS5NewerValueMasksOlderNoDuplicate(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "k", "old")

	tr.Lock()
	require.NoError(t, tr.Switch())
	tr.Unlock()

	insert(t, c, "k", "new")

	require.NoError(t, c.Reset())
	var got [][2]string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, [2]string{string(c.Key()), string(c.Value())})
	}
	require.Equal(t, [][2]string{{"k", "new"}}, got)
}

// S6: search_near prefers the smaller candidate when no exact match exists.
func TestScenarioS6SearchNearPrefersSmaller(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "z", "26")

	c.SetKey([]byte("m"))
	exact, ok, err := c.SearchNear()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, -1, exact)
	require.Equal(t, []byte("a"), c.Key())
}

// Positioned-scan: after Search lands a cursor exactly on a key, Next must
// return the key after it, not the seeded key itself -- the one
// advancement step spec.md §4.3 requires when seeding lands on an exact
// match. Symmetric for Prev landing on the last key and stepping backward.
func TestNextAfterExactSearchSkipsSeededKey(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")

	c.SetKey([]byte("a"))
	ok, err := c.Search()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("b"), c.Key())
	require.Equal(t, []byte("2"), c.Value())

	ok, err = c.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrevAfterExactSearchSkipsSeededKey(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")

	c.SetKey([]byte("b"))
	ok, err := c.Search()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Prev()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("a"), c.Key())
	require.Equal(t, []byte("1"), c.Value())

	ok, err = c.Prev()
	require.NoError(t, err)
	require.False(t, ok)
}

// Property 4: reverse iteration is strictly descending.
func TestReverseIterationDescending(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")
	insert(t, c, "c", "3")

	require.NoError(t, c.Reset())
	var got []string
	for {
		ok, err := c.Prev()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, string(c.Key()))
	}
	require.Equal(t, []string{"c", "b", "a"}, got)
}

// Property 5: forward iteration never returns a tombstone.
func TestIterationNeverReturnsTombstone(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")
	insert(t, c, "b", "2")
	remove(t, c, "b")

	require.NoError(t, c.Reset())
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NotEmpty(t, c.Value())
	}
}

// Property 6: opening and closing cursors leaves ncursor at zero.
func TestNCursorBalancedAfterClose(t *testing.T) {
	tr := newTestTree(t, 0)

	for i := 0; i < 5; i++ {
		c := newTestCursor(t, tr)
		insert(t, c, "k", "v")
		require.NoError(t, c.Close())
	}

	require.Equal(t, int64(0), tr.Primary().NCursor())
}

// Reset must resync like every other externally-visible operation except
// Close: a stale per-chunk cursor set from before a chunk switch must not
// be reused after Reset.
func TestResetResyncsAcrossChunkSwitch(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	insert(t, c, "a", "1")

	tr.Lock()
	require.NoError(t, tr.Switch())
	tr.Unlock()

	insert(t, newTestCursor(t, tr), "b", "2")

	require.NoError(t, c.Reset())

	var got []string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, string(c.Key()))
	}
	require.Equal(t, []string{"a", "b"}, got)
}

// Property 8: compare is consistent with comparator-defined order.
func TestCompareConsistentWithOrder(t *testing.T) {
	tr := newTestTree(t, 0)
	a := newTestCursor(t, tr)
	b := newTestCursor(t, tr)

	a.SetKey([]byte("a"))
	b.SetKey([]byte("b"))

	cmp, err := a.Compare(b)
	require.NoError(t, err)
	require.Less(t, cmp, 0)
}

func TestCompareRejectsMismatchedURIs(t *testing.T) {
	tr := newTestTree(t, 0)
	a, err := Open("lsm:test", tr, DefaultOption, logging.NoOp())
	require.NoError(t, err)
	b, err := Open("lsm:other", tr, DefaultOption, logging.NoOp())
	require.NoError(t, err)

	a.SetKey([]byte("a"))
	b.SetKey([]byte("a"))

	_, err = a.Compare(b)
	require.Error(t, err)
}

func TestOpenRejectsNonLSMURI(t *testing.T) {
	tr := newTestTree(t, 0)
	_, err := Open("file:test", tr, DefaultOption, logging.NoOp())
	require.Error(t, err)
}

func TestInsertRejectsTombstoneValue(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	c.SetKey([]byte("a"))
	c.SetValue([]byte{})
	require.Error(t, c.Insert())
}

func TestInsertWithoutOverwriteRejectsDuplicate(t *testing.T) {
	tr := newTestTree(t, 0)
	c, err := Open("lsm:test", tr, Option{Overwrite: false}, logging.NoOp())
	require.NoError(t, err)

	insert(t, c, "a", "1")

	c.SetKey([]byte("a"))
	c.SetValue([]byte("2"))
	require.Error(t, c.Insert())
}

// Automatic chunk switch triggers once the primary's size crosses the
// configured threshold, and own-write visibility survives it.
func TestAutoSwitchOnThreshold(t *testing.T) {
	tr := newTestTree(t, 16)
	c := newTestCursor(t, tr)

	for i := 0; i < 50; i++ {
		insert(t, c, string(rune('a'+(i%26))), "value-padding-to-exceed-threshold")
	}

	c.SetKey([]byte{'a'})
	ok, err := c.Search()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInitMergeFixesChunkCount(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)
	insert(t, c, "a", "1")

	tr.Lock()
	chunks := tr.Chunks()
	require.NoError(t, c.InitMerge(len(chunks)))
	tr.Unlock()

	require.Equal(t, len(chunks), len(c.cursors))

	// A subsequent tree mutation must not change the merge cursor's view.
	insert(t, newTestCursor(t, tr), "b", "2")
	tr.Lock()
	require.NoError(t, tr.Switch())
	tr.Unlock()

	require.Equal(t, len(chunks), len(c.cursors))
}

// TestModelBasedRandomOpsMatchReference replays a fixed script of
// insert/remove/switch operations against both the cursor and a plain Go
// map, forcing a chunk switch partway through so the script exercises
// cross-chunk masking, then asserts forward iteration matches the model's
// sorted, live (non-tombstoned) view exactly. cmp.Diff is used instead of
// require.Equal so a mismatch reports which keys differ rather than just
// that the slices aren't equal.
func TestModelBasedRandomOpsMatchReference(t *testing.T) {
	tr := newTestTree(t, 0)
	c := newTestCursor(t, tr)

	type op struct {
		kind  string // "insert", "remove", "switch"
		key   string
		value string
	}
	script := []op{
		{kind: "insert", key: "d", value: "1"},
		{kind: "insert", key: "b", value: "2"},
		{kind: "insert", key: "f", value: "3"},
		{kind: "remove", key: "b"},
		{kind: "switch"},
		{kind: "insert", key: "b", value: "22"},
		{kind: "insert", key: "a", value: "4"},
		{kind: "remove", key: "d"},
		{kind: "switch"},
		{kind: "insert", key: "d", value: "11"},
		{kind: "insert", key: "g", value: "5"},
		{kind: "remove", key: "f"},
	}

	model := map[string]string{}
	for _, o := range script {
		switch o.kind {
		case "insert":
			insert(t, c, o.key, o.value)
			model[o.key] = o.value
		case "remove":
			remove(t, c, o.key)
			delete(model, o.key)
		case "switch":
			tr.Lock()
			require.NoError(t, tr.Switch())
			tr.Unlock()
		}
	}

	var want [][2]string
	for k, v := range model {
		want = append(want, [2]string{k, v})
	}
	sort.Slice(want, func(i, j int) bool { return want[i][0] < want[j][0] })

	require.NoError(t, c.Reset())
	var got [][2]string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, [2]string{string(c.Key()), string(c.Value())})
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("forward iteration mismatch against reference model (-want +got):\n%s", diff)
	}
}
