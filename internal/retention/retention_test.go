package retention

import (
	"testing"
	"time"

	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var now = time.Date(2025, 3, 26, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// failingRemove refuses to delete one path.
type failingRemove struct {
	*fs.MemFileSystem
	path string
}

func (f *failingRemove) Remove(name string) error {
	if name == f.path {
		return errors.New("permission denied")
	}
	return f.MemFileSystem.Remove(name)
}

func seed(t *testing.T, mfs *fs.MemFileSystem, files map[string]time.Duration) {
	t.Helper()
	for path, age := range files {
		mfs.MustWriteFile(path, "log")
		mfs.MustChtimes(path, now.Add(-age))
	}
}

func exists(t *testing.T, afs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(afs, path)
	require.NoError(t, err)
	return ok
}

func TestSweep(t *testing.T) {
	logs := testutil.Path("/", "logs")
	old := testutil.Path(logs, "old.csv")
	fresh := testutil.Path(logs, "fresh.csv")
	nestedOld := testutil.Path(logs, "2024", "nested.json")

	tests := []struct {
		name       string
		maxAgeDays int
		recursive  bool
		gone       []string
		kept       []string
	}{
		{
			name:       "zero days is a no-op",
			maxAgeDays: 0,
			kept:       []string{old, fresh, nestedOld},
		},
		{
			name:       "negative days is a no-op",
			maxAgeDays: -3,
			kept:       []string{old, fresh, nestedOld},
		},
		{
			name:       "non-recursive keeps subfolders",
			maxAgeDays: 7,
			gone:       []string{old},
			kept:       []string{fresh, nestedOld},
		},
		{
			name:       "recursive sweeps subfolders",
			maxAgeDays: 7,
			recursive:  true,
			gone:       []string{old, nestedOld},
			kept:       []string{fresh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := fs.NewMemTest()
			seed(t, mfs, map[string]time.Duration{
				old:       10 * 24 * time.Hour,
				fresh:     2 * 24 * time.Hour,
				nestedOld: 30 * 24 * time.Hour,
			})

			errs := NewSweeper(mfs, tt.recursive, clock).Sweep(logs, tt.maxAgeDays)
			assert.Empty(t, errs)

			for _, p := range tt.gone {
				assert.False(t, exists(t, mfs, p), "%s should be deleted", p)
			}
			for _, p := range tt.kept {
				assert.True(t, exists(t, mfs, p), "%s should be kept", p)
			}
		})
	}
}

func TestSweep_FailureDoesNotStopSweep(t *testing.T) {
	logs := testutil.Path("/", "logs")
	a := testutil.Path(logs, "a.csv")
	b := testutil.Path(logs, "b.csv")
	c := testutil.Path(logs, "c.csv")

	mfs := fs.NewMemTest()
	seed(t, mfs, map[string]time.Duration{
		a: 40 * 24 * time.Hour,
		b: 40 * 24 * time.Hour,
		c: 40 * 24 * time.Hour,
	})

	errs := NewSweeper(&failingRemove{MemFileSystem: mfs, path: b}, false, clock).Sweep(logs, 30)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), b)
	assert.Contains(t, errs[0].Error(), "permission denied")
	assert.False(t, exists(t, mfs, a))
	assert.True(t, exists(t, mfs, b))
	assert.False(t, exists(t, mfs, c))
}

func TestSweep_MissingFolder(t *testing.T) {
	errs := NewSweeper(fs.NewMemTest(), false, clock).Sweep(testutil.Path("/", "missing"), 5)
	assert.Empty(t, errs)
}
