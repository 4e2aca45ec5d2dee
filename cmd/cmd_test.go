package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func writeFile(t *testing.T, dir, rel, src string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// project writes a small Octave project and a project file pointing its
// load path at it.
func project(t *testing.T) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, "main.m", "function main()\n"+
		"  helper();\n"+
		"  s = fmt(1);\n"+
		"  disp(s);\n"+
		"end\n")
	writeFile(t, dir, "helper.m", "function helper()\n"+
		"  __depends_extra_files__();\n"+
		"end\n"+
		"function f = __depends_extra_files__()\n"+
		"  f = 'data.csv';\n"+
		"end\n")
	writeFile(t, dir, "fmt.m", "function s = fmt(x)\n"+
		"  % FMT formats X as text.\n"+
		"  s = num2str(x);\n"+
		"end\n")
	cfg = writeFile(t, dir, ".octdeps.yml", "path: [.]\n")
	return dir, cfg
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newCommand("test", &stdout, &stderr).Run(context.Background(), append([]string{"octdeps"}, args...))
	return stdout.String(), stderr.String(), err
}

// rows splits tabular output into whitespace separated fields.
func rows(out string) [][]string {
	var r [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		r = append(r, strings.Fields(line))
	}
	return r
}

func TestResolveText(t *testing.T) {
	dir, cfg := project(t)

	out, _, err := run(t, "resolve", "--config", cfg, "--no-color", "main")
	require.NoError(t, err)

	got := rows(out)
	require.Len(t, got, 7)
	assert.Equal(t, []string{"main", filepath.Join(dir, "main.m")}, got[0])
	assert.Equal(t, []string{"helper", filepath.Join(dir, "helper.m")}, got[1])
	assert.Equal(t, []string{"__depends_extra_files__", filepath.Join(dir, "helper.m")}, got[2])
	assert.Equal(t, []string{"fmt", filepath.Join(dir, "fmt.m")}, got[3])
	assert.Empty(t, got[4])
	assert.Equal(t, []string{"extra", "files:"}, got[5])
	assert.Equal(t, []string{"data.csv"}, got[6])
}

func TestResolveJSON(t *testing.T) {
	dir, cfg := project(t)

	out, _, err := run(t, "resolve", "--config", cfg, "-f", "json", "main")
	require.NoError(t, err)

	var res struct {
		Functions  map[string]string `json:"functions"`
		ExtraFiles []string          `json:"extra_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, map[string]string{
		"main":                    filepath.Join(dir, "main.m"),
		"helper":                  filepath.Join(dir, "helper.m"),
		"__depends_extra_files__": filepath.Join(dir, "helper.m"),
		"fmt":                     filepath.Join(dir, "fmt.m"),
	}, res.Functions)
	assert.Equal(t, []string{"data.csv"}, res.ExtraFiles)

	// Keys keep resolution order.
	assert.Less(t, strings.Index(out, `"helper"`), strings.Index(out, `"fmt"`))
}

func TestResolveExcludeAndPathFlags(t *testing.T) {
	dir, cfg := project(t)
	other := t.TempDir()
	writeFile(t, other, "main.m", "function main()\n  fmt(2);\nend\n")

	out, _, err := run(t, "--config", cfg, "-p", other, "-p", dir, "-x", dir, "-C", "main")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"main", filepath.Join(other, "main.m")}}, rows(out))
}

func TestResolveExcludeKeepsTrailingSeparator(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.m", "function main()\n  libhelper();\n  lib_x();\nend\n")
	writeFile(t, dir, "libhelper.m", "function libhelper()\nend\n")
	writeFile(t, dir, "lib/lib_x.m", "function lib_x()\nend\n")
	cfg := writeFile(t, dir, ".octdeps.yml", "")
	t.Chdir(dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	out, _, err := run(t, "resolve", "--config", cfg, "-p", ".", "-p", "lib", "-x", "lib/", "-C", "main")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"main", filepath.Join(cwd, "main.m")},
		{"libhelper", filepath.Join(cwd, "libhelper.m")},
	}, rows(out))
}

func TestAbsPaths(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	sep := string(filepath.Separator)

	got, err := absPaths([]string{"lib/", "lib", "", "/abs/"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cwd, "lib") + sep, filepath.Join(cwd, "lib"), "", "/abs/"}, got)
}

func TestResolveVerbose(t *testing.T) {
	_, cfg := project(t)

	_, stderr, err := run(t, "resolve", "--config", cfg, "-V", "-C", "main")
	require.NoError(t, err)
	assert.Contains(t, stderr, "octdeps: ")
	assert.Contains(t, stderr, "fmt")
}

func TestResolveErrors(t *testing.T) {
	_, cfg := project(t)

	_, _, err := run(t, "resolve", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")

	_, _, err = run(t, "resolve", "--config", cfg, "-f", "xml", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, _, err = run(t, "resolve", "--config", filepath.Join(t.TempDir(), "missing.yml"), "main")
	require.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "bad.m", "function bad(\n")
	_, _, err = run(t, "resolve", "--config", writeFile(t, dir, ".octdeps.yml", ""), "-p", dir, "bad")
	require.Error(t, err)
}

func TestRootShowsHelp(t *testing.T) {
	out, _, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "octdeps")
	assert.Contains(t, out, "resolve")
}

func TestFuncs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "outer.m", "function r = outer(a, b)\n"+
		"  r = inner(a) + b;\n"+
		"  function y = inner(x)\n"+
		"    y = x;\n"+
		"  end\n"+
		"end\n"+
		"function helper()\n"+
		"end\n")

	out, stderr, err := run(t, "funcs", "-C", path)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, [][]string{
		{"1", "primary", "r", "=", "outer", "(a,", "b)"},
		{"3", "nested", "in", "outer", "y", "=", "inner", "(x)"},
		{"7", "subfunction", "helper", "()"},
	}, rows(out))
}

func TestFuncsWarnings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "named.m", "function other()\nend\n")

	out, stderr, err := run(t, "funcs", "-C", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning:")
	assert.Contains(t, stderr, `"other"`)
	assert.Contains(t, out, "other")

	dup := writeFile(t, dir, "dup.m", "function dup()\nend\nfunction a()\nend\nfunction a()\nend\n")
	_, _, err = run(t, "funcs", dup)
	require.Error(t, err)
}

func TestFuncsMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.m", "function a()\nend\n")
	b := writeFile(t, dir, "b.m", "function b()\nend\n")

	out, _, err := run(t, "funcs", "-C", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, a+":\n")
	assert.Contains(t, out, b+":\n")
}

func TestDoc(t *testing.T) {
	dir, cfg := project(t)

	out, _, err := run(t, "doc", "--config", cfg, "fmt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "s = fmt (x)\n"), out)
	assert.Contains(t, out, "formats X as text")

	out, _, err = run(t, "doc", "--config", cfg, "disp")
	require.NoError(t, err)
	assert.Equal(t, "disp is a builtin function\n", out)

	_, _, err = run(t, "doc", "--config", cfg, "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	out, _, err = run(t, "doc", filepath.Join(dir, "fmt.m"))
	require.NoError(t, err)
	assert.Contains(t, out, "formats X as text")
}

func TestSettingsLayers(t *testing.T) {
	dir, cfg := project(t)
	env := t.TempDir()
	t.Setenv("OCTDEPS_PATH", env)
	t.Setenv("OCTDEPS_EXCLUDE", "")

	var got []string
	settle := func(args ...string) {
		t.Helper()
		cmd := newCommand("test", &bytes.Buffer{}, &bytes.Buffer{})
		cmd.Commands[0].Action = func(ctx context.Context, c *cli.Command) error {
			s, err := settings(c)
			if err != nil {
				return err
			}
			got = s.Path
			return nil
		}
		require.NoError(t, cmd.Run(context.Background(), append([]string{"octdeps", "resolve", "--config", cfg}, args...)))
	}

	settle("main")
	assert.Equal(t, []string{env}, got)

	settle("-p", dir, "main")
	assert.Equal(t, []string{dir}, got)
}

func TestIsSource(t *testing.T) {
	for path, want := range map[string]bool{
		"/a/foo.m":       true,
		"/a/foo.oct":     true,
		"/a/foo.mexa64":  true,
		"/a/.foo.m.swp":  false,
		"/a/.#foo.m":     false,
		"/a/foo.m~":      false,
		"/a/table.csv":   false,
		"/a/.DS_Store":   false,
		"/a/private/b.m": true,
	} {
		assert.Equal(t, want, isSource(path), path)
	}
}

func TestSourceEvent(t *testing.T) {
	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	path, ok := sourceEvent(watcher, fsnotify.Event{Name: dir + "/./a.m", Op: fsnotify.Write})
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a.m"), path)

	_, ok = sourceEvent(watcher, fsnotify.Event{Name: filepath.Join(dir, "a.m"), Op: fsnotify.Chmod})
	assert.False(t, ok)
	_, ok = sourceEvent(watcher, fsnotify.Event{Name: filepath.Join(dir, "table.csv"), Op: fsnotify.Write})
	assert.False(t, ok)

	sub := filepath.Join(dir, "private")
	require.NoError(t, os.Mkdir(sub, 0o755))
	_, ok = sourceEvent(watcher, fsnotify.Event{Name: sub, Op: fsnotify.Create})
	assert.False(t, ok)
	assert.Contains(t, watcher.WatchList(), sub)
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.m", "function main()\nend\n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	var batches [][]string
	done := make(chan error, 1)
	go func() {
		done <- watchDirs(ctx, []string{dir, filepath.Join(dir, "missing")}, 50*time.Millisecond, func(changed []string) {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
			cancel()
		})
	}()
	// Give the watcher time to register before touching files.
	time.Sleep(200 * time.Millisecond)

	writeFile(t, dir, "notes.txt", "ignored")
	a := writeFile(t, dir, "a.m", "function a()\nend\n")
	b := writeFile(t, dir, "b.m", "function b()\nend\n")

	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{a, b}, batches[0])
}
