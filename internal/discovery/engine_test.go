package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func header(title string, status record.Status) string {
	return "---\ntitle: " + title + "\nstatus: " + string(status) + "\n---\nbody\n"
}

// place writes a file and pins its mtime to base plus age minutes.
func place(t *testing.T, path, content string, age int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	mtime := base.Add(time.Duration(age) * time.Minute)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	real, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return real
}

func paths(descs []record.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Path)
	}
	return out
}

// fixture lays out a tree exercising every strategy.
type fixture struct {
	root       string
	folder     string
	flat       string
	marked     string
	stray      string
	nonRecords []string
}

func newFixture(t *testing.T) fixture {
	root := t.TempDir()
	f := fixture{root: root}
	f.folder = place(t, filepath.Join(root, "active", "0001_fix-login", "0001_fix-login.md"), header("Fix login", record.StatusActive), 1)
	f.flat = place(t, filepath.Join(root, "archived", "0002_old.md"), header("Old", record.StatusArchived), 2)
	f.marked = place(t, filepath.Join(root, "work_efforts", "paused", "0003_nested", "0003_nested.md"), header("Nested", record.StatusPaused), 3)
	f.stray = place(t, filepath.Join(root, "docs", "notes", "plan.md"), header("Plan", record.StatusCompleted), 4)

	f.nonRecords = []string{
		place(t, filepath.Join(root, "README.md"), "# readme\n", 5),
		place(t, filepath.Join(root, "active", "0001_fix-login", "notes.md"), "scratch\n", 6),
		place(t, filepath.Join(root, ".git", "0009_hidden.md"), header("Hidden", record.StatusActive), 7),
		place(t, filepath.Join(root, filestore.StateDir, "counter.json"), "{}", 8),
	}
	return f
}

func TestDiscover_StandardMode(t *testing.T) {
	f := newFixture(t)

	descs, errs := Discover(record.DiscoverOptions{Roots: []string{f.root}}).Collect(context.Background())
	require.Empty(t, errs)
	require.Equal(t, []string{f.marked, f.flat, f.folder}, paths(descs))
}

func TestDiscover_ThoroughModeFindsEachFileOnce(t *testing.T) {
	f := newFixture(t)
	// The same tree passed twice, once through a symlink, still yields each file once.
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(f.root, link))

	run := Discover(record.DiscoverOptions{Roots: []string{f.root, link, f.root}, Mode: record.ModeThorough})
	descs, errs := run.Collect(context.Background())
	require.Empty(t, errs)
	require.Equal(t, []string{f.stray, f.marked, f.flat, f.folder}, paths(descs))

	byPath := make(map[string]record.Descriptor)
	for _, d := range descs {
		byPath[d.Path] = d
	}
	require.Equal(t, []string{StrategyFilename, StrategyDirectory, StrategyContent}, byPath[f.folder].Strategies)
	require.Equal(t, []string{StrategyContent}, byPath[f.stray].Strategies)
	require.Equal(t, record.StatusCompleted, byPath[f.stray].Status)
	require.Equal(t, "0003", byPath[f.marked].ID)
	require.Equal(t, "Nested", byPath[f.marked].Title)
}

func TestDiscover_DirectoryBeatsHeaderStatus(t *testing.T) {
	root := t.TempDir()
	path := place(t, filepath.Join(root, "completed", "0001_fix", "0001_fix.md"), header("Fix", record.StatusActive), 0)

	descs, _ := Discover(record.DiscoverOptions{Roots: []string{root}}).Collect(context.Background())
	require.Len(t, descs, 1)
	require.Equal(t, path, descs[0].Path)
	require.Equal(t, record.StatusCompleted, descs[0].Status)
	require.Equal(t, record.StatusActive, descs[0].HeaderStatus)
	require.Equal(t, "0001", descs[0].ID)
}

func TestDiscover_OrdersByModTimeThenPath(t *testing.T) {
	root := t.TempDir()
	b := place(t, filepath.Join(root, "active", "0002_b.md"), header("B", record.StatusActive), 10)
	a := place(t, filepath.Join(root, "active", "0001_a.md"), header("A", record.StatusActive), 10)
	old := place(t, filepath.Join(root, "active", "0003_c.md"), header("C", record.StatusActive), 0)
	recent := place(t, filepath.Join(root, "paused", "0004_d.md"), header("D", record.StatusPaused), 20)

	descs, _ := Discover(record.DiscoverOptions{Roots: []string{root}}).Collect(context.Background())
	require.Equal(t, []string{recent, a, b, old}, paths(descs))
}

func TestDiscover_ReportsBadFilesWithoutAborting(t *testing.T) {
	root := t.TempDir()
	good := place(t, filepath.Join(root, "active", "0001_good.md"), header("Good", record.StatusActive), 0)
	bad := place(t, filepath.Join(root, "active", "0002_bad.md"), "---\ntitle: [broken\n---\n", 1)
	noHeader := place(t, filepath.Join(root, "paused", "0003_plain", "0003_plain.md"), "no header here\n", 2)

	run := Discover(record.DiscoverOptions{Roots: []string{root}, Mode: record.ModeThorough})
	descs, errs := run.Collect(context.Background())
	require.Equal(t, []string{good}, paths(descs))

	require.Len(t, errs, 2)
	errPaths := []string{errs[0].Path, errs[1].Path}
	require.ElementsMatch(t, []string{bad, noHeader}, errPaths)
	for _, fe := range errs {
		require.ErrorIs(t, fe.Err, record.ErrParse)
	}
}

func TestDescribe_ReportsUnreadableButNotVanishedFiles(t *testing.T) {
	root := t.TempDir()
	blocker := place(t, filepath.Join(root, "active", "0001_a"), "a file where a folder belongs", 0)
	run := Discover(record.DiscoverOptions{Roots: []string{root}})

	unreadable := filepath.Join(blocker, "0001_a.md")
	_, ok := run.describe(&candidate{path: unreadable, strategies: []string{StrategyFilename}})
	require.False(t, ok)

	contentOnly := filepath.Join(blocker, "notes.md")
	_, ok = run.describe(&candidate{path: contentOnly})
	require.False(t, ok)

	vanished := filepath.Join(root, "active", "0002_gone.md")
	_, ok = run.describe(&candidate{path: vanished, strategies: []string{StrategyFilename}})
	require.False(t, ok)

	errs := run.Errors()
	require.Len(t, errs, 2)
	require.ElementsMatch(t, []string{unreadable, contentOnly}, []string{errs[0].Path, errs[1].Path})
	for _, fe := range errs {
		require.ErrorIs(t, fe.Err, record.ErrRead)
	}
}

func TestDiscover_ReportsPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file modes")
	}
	root := t.TempDir()
	secret := place(t, filepath.Join(root, "active", "0001_secret", "0001_secret.md"), header("Secret", record.StatusActive), 0)
	require.NoError(t, os.Chmod(secret, 0))
	t.Cleanup(func() { _ = os.Chmod(secret, 0o644) })

	descs, errs := Discover(record.DiscoverOptions{Roots: []string{root}, Mode: record.ModeThorough}).Collect(context.Background())
	require.Empty(t, descs)
	require.Len(t, errs, 1)
	require.Equal(t, secret, errs[0].Path)
	require.ErrorIs(t, errs[0].Err, record.ErrRead)
	require.ErrorIs(t, errs[0].Err, os.ErrPermission)
}

func TestRun_StopsEarlyAndRestarts(t *testing.T) {
	f := newFixture(t)
	run := Discover(record.DiscoverOptions{Roots: []string{f.root}, Mode: record.ModeThorough})

	var first []string
	for d := range run.All(context.Background()) {
		first = append(first, d.Path)
		break
	}
	require.Equal(t, []string{f.stray}, first)

	// A later record shows up on the next pass.
	fresh := place(t, filepath.Join(f.root, "active", "0010_new.md"), header("New", record.StatusActive), 60)
	descs, _ := run.Collect(context.Background())
	require.Equal(t, fresh, descs[0].Path)
	require.Len(t, descs, 5)
}

func TestRun_MissingRootIsEmpty(t *testing.T) {
	for _, mode := range []record.DiscoveryMode{record.ModeStandard, record.ModeThorough} {
		descs, errs := Discover(record.DiscoverOptions{
			Roots: []string{filepath.Join(t.TempDir(), "missing")},
			Mode:  mode,
		}).Collect(context.Background())
		require.Empty(t, descs)
		require.Empty(t, errs)
	}
}

func TestEngine_Discover(t *testing.T) {
	f := newFixture(t)
	descs, errs, err := NewEngine().Discover(context.Background(), record.DiscoverOptions{Roots: []string{f.root}})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, descs, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = NewEngine().Discover(ctx, record.DiscoverOptions{Roots: []string{f.root}})
	require.ErrorIs(t, err, context.Canceled)
}
