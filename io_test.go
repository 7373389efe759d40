package txio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gobeaver/txio/txn"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = -2

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestBeginCommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()

	require.NoError(t, x.Begin())
	require.NoError(t, x.File.WriteJSON(ctx, filepath.Join(dir, "a.json"), person{Name: "a"}))
	require.NoError(t, x.File.WriteXML(ctx, filepath.Join(dir, "x", "b.xml"), person{Name: "b"}))
	require.NoError(t, x.Commit())

	assert.FileExists(t, filepath.Join(dir, "a.json"))
	assert.FileExists(t, filepath.Join(dir, "x", "b.xml"))
	assert.Equal(t, 0, x.Manager().Pending())
	assert.False(t, x.Manager().Running())
}

func TestBeginRollbackRemovesNewTargets(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "src.txt")
	writeRaw(t, src, "source")
	ageFile(t, src)

	require.NoError(t, x.Begin())
	require.NoError(t, x.File.WriteJSON(ctx, filepath.Join(dir, "x", "y.json"), person{Name: "y"}))
	require.NoError(t, x.File.WriteBSON(ctx, filepath.Join(dir, "doc.bson"), person{Name: "d"}))
	require.NoError(t, x.File.Copy(ctx, src, filepath.Join(dir, "copies", "deep", "dst.txt")))
	require.NoError(t, x.Rollback())

	assert.NoDirExists(t, filepath.Join(dir, "x"))
	assert.NoFileExists(t, filepath.Join(dir, "doc.bson"))
	assert.NoDirExists(t, filepath.Join(dir, "copies"))
	assert.Equal(t, "source", readRaw(t, src))
	assert.DirExists(t, dir)
}

func TestCopyCommitIdenticalBytes(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeRaw(t, src, "identical bytes\x00\xff")

	require.NoError(t, x.Begin())
	require.NoError(t, x.File.Copy(ctx, src, dst))
	require.NoError(t, x.Commit())

	assert.Equal(t, readRaw(t, src), readRaw(t, dst))
	assert.Equal(t, 0, x.Manager().Pending())
}

func TestRollbackOrder(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()

	var order []string
	record := func(name string) txn.Action {
		return txn.ActionFunc(func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, x.Begin())
	x.Manager().RegisterUndo(record("A"), "test")
	require.NoError(t, x.File.WriteEncoded(ctx, filepath.Join(dir, "b.txt"), []byte("b")))
	x.Manager().RegisterUndo(record("B"), "test")
	require.NoError(t, x.File.WriteEncoded(ctx, filepath.Join(dir, "d.txt"), []byte("d")))
	x.Manager().RegisterUndo(record("D"), "test")

	require.NoError(t, x.Rollback())
	assert.Equal(t, []string{"D", "B", "A"}, order)
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "d.txt"))
}

func TestRollbackUnwindsTreeCopiedAfterWrites(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"sequential", "concurrent"} {
		t.Run(name, func(t *testing.T) {
			x := newTestIO(t)
			dir := t.TempDir()
			src := filepath.Join(dir, "src")
			buildTree(t, src, map[string]string{"c.txt": "c", "inner/c2.txt": "c2"})

			a := filepath.Join(dir, "a.json")
			b := filepath.Join(dir, "b", "b.yaml")
			d := filepath.Join(dir, "d")

			require.NoError(t, x.Begin())
			require.NoError(t, x.File.WriteJSON(ctx, a, person{Name: "a"}))
			require.NoError(t, x.File.WriteYAML(ctx, b, person{Name: "b"}))
			pending := x.Manager().Pending()
			require.NoError(t, copyModes(x.Directory)[name](ctx, src, d))
			// d, d/inner and one entry per copied file come after A and B.
			assert.Equal(t, pending+4, x.Manager().Pending())
			assert.FileExists(t, filepath.Join(d, "inner", "c2.txt"))

			require.NoError(t, x.Rollback())
			assert.NoDirExists(t, d)
			assert.NoDirExists(t, filepath.Join(dir, "b"))
			assert.NoFileExists(t, a)
			assert.Equal(t, map[string]string{"c.txt": "c", "inner/c2.txt": "c2"}, listTree(t, src))
			assert.DirExists(t, dir)
		})
	}
}

func TestMutationsOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()

	require.NoError(t, x.File.WriteJSON(ctx, filepath.Join(dir, "free.json"), person{Name: "f"}))
	assert.Equal(t, 0, x.Manager().Pending())

	// A later transaction's rollback does not touch earlier writes.
	require.NoError(t, x.Begin())
	require.NoError(t, x.Rollback())
	assert.FileExists(t, filepath.Join(dir, "free.json"))
}

func TestTransactionStateErrors(t *testing.T) {
	x := newTestIO(t)

	assert.ErrorIs(t, x.Commit(), txn.ErrNotActive)
	assert.ErrorIs(t, x.Rollback(), txn.ErrNotActive)

	require.NoError(t, x.Begin())
	assert.ErrorIs(t, x.Begin(), txn.ErrActive)
	assert.True(t, x.Manager().Running())
	require.NoError(t, x.Commit())
}

func TestIndependentInstances(t *testing.T) {
	ctx := context.Background()
	a, b := newTestIO(t), newTestIO(t)
	dir := t.TempDir()

	require.NoError(t, a.Begin())
	require.NoError(t, b.File.WriteEncoded(ctx, filepath.Join(dir, "b.txt"), []byte("b")))
	require.NoError(t, a.File.WriteEncoded(ctx, filepath.Join(dir, "a.txt"), []byte("a")))
	require.NoError(t, a.Rollback())

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestInTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		x := newTestIO(t)
		target := filepath.Join(t.TempDir(), "ok", "file.yaml")

		err := x.InTransaction(ctx, func(ctx context.Context) error {
			return x.File.WriteYAML(ctx, target, person{Name: "ok"})
		})
		require.NoError(t, err)
		assert.FileExists(t, target)
		assert.False(t, x.Manager().Running())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		x := newTestIO(t)
		dir := t.TempDir()
		boom := errors.New("boom")

		err := x.InTransaction(ctx, func(ctx context.Context) error {
			if err := x.File.WriteTOML(ctx, filepath.Join(dir, "out", "a.toml"), person{Name: "a"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoDirExists(t, filepath.Join(dir, "out"))
		assert.False(t, x.Manager().Running())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		x := newTestIO(t)
		dir := t.TempDir()

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = x.InTransaction(ctx, func(ctx context.Context) error {
				_ = x.File.WriteEncoded(ctx, filepath.Join(dir, "p", "q.txt"), []byte("q"))
				panic("kaboom")
			})
		})
		assert.NoDirExists(t, filepath.Join(dir, "p"))
		assert.False(t, x.Manager().Running())
	})

	t.Run("fails while a transaction is active", func(t *testing.T) {
		x := newTestIO(t)
		require.NoError(t, x.Begin())

		called := false
		err := x.InTransaction(ctx, func(context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, txn.ErrActive)
		assert.False(t, called)
		require.NoError(t, x.Commit())
	})
}

func TestMetricsEnabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.MetricsEnabled = true
	reg := prometheus.NewRegistry()

	x, err := New(cfg, WithLogger(zaptest.NewLogger(t)), WithRegisterer(reg))
	require.NoError(t, err)
	require.NotNil(t, x.Metrics())

	dir := t.TempDir()
	require.NoError(t, x.Begin())
	require.NoError(t, x.File.WriteEncoded(ctx, filepath.Join(dir, "m.txt"), []byte("m")))
	require.NoError(t, x.Rollback())

	assert.Equal(t, 1.0, testutil.ToFloat64(x.Metrics().Transactions.WithLabelValues("rolled_back")))
	assert.Equal(t, 1.0, testutil.ToFloat64(x.Metrics().UndoActions.WithLabelValues("undone")))

	// A second instance cannot register the same collectors.
	_, err = New(cfg, WithLogger(zaptest.NewLogger(t)), WithRegisterer(reg))
	assert.Error(t, err)
}

func TestMetricsDisabled(t *testing.T) {
	x := newTestIO(t)
	assert.Nil(t, x.Metrics())
}

func TestRollbackToleranceFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RollbackToleranceMS = 250
	x, err := New(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, int64(250), x.Manager().Tolerance().Milliseconds())
}

func TestRollbackKeepsFilesRewrittenLongAgo(t *testing.T) {
	ctx := context.Background()
	x := newTestIO(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "aged.txt")

	require.NoError(t, x.Begin())
	require.NoError(t, x.File.WriteEncoded(ctx, target, []byte("v1")))
	// Simulates a file whose last write predates the registration.
	ageFile(t, target)
	require.NoError(t, x.Rollback())

	_, err := os.Stat(target)
	assert.NoError(t, err)
}
