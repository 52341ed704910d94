package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/psclone/internal/config"
	"github.com/bamsammich/psclone/internal/engine"
	"github.com/bamsammich/psclone/internal/stats"
)

// setupSource isolates the config file and returns a canonical source tree
// and a destination path inside a fresh temp dir.
func setupSource(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "class", "net"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "class", "net", "mtu"), []byte("1500\n"), 0o444))
	require.NoError(t, os.WriteFile(filepath.Join(src, "uevent"), []byte("DEVTYPE=x\n"), 0o644))
	require.NoError(t, os.Symlink("class/net", filepath.Join(src, "link")))
	return src, filepath.Join(base, "dst")
}

func TestRun_Version(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--version"}))
}

func TestRun_Clone(t *testing.T) {
	src, dst := setupSource(t)

	require.Equal(t, 0, run([]string{"-q", src, dst}))

	data, err := os.ReadFile(filepath.Join(dst, "class", "net", "mtu"))
	require.NoError(t, err)
	assert.Equal(t, "1500\n", string(data))

	target, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "class/net", target)
}

func TestRun_CachedPruneAndDeref(t *testing.T) {
	src, dst := setupSource(t)

	code := run([]string{"-q", "--prune", filepath.Join(src, "link"), "--deref", filepath.Join(src, "link"), src, dst})
	require.Equal(t, 0, code)

	assert.FileExists(t, filepath.Join(dst, "link", "mtu"))
	assert.FileExists(t, filepath.Join(dst, "link", engine.MarkerName))
	assert.NoFileExists(t, filepath.Join(dst, "uevent"))
}

func TestRun_ExcludeFromFile(t *testing.T) {
	src, dst := setupSource(t)
	list := filepath.Join(t.TempDir(), "excludes")
	require.NoError(t, os.WriteFile(list, []byte("# attributes\n"+filepath.Join(src, "class", "*")+"\n"), 0o644))

	require.Equal(t, 0, run([]string{"-q", "--exclude-from", list, "--exclude-name", "uevent", src, dst}))

	assert.DirExists(t, filepath.Join(dst, "class"))
	assert.NoDirExists(t, filepath.Join(dst, "class", "net"))
	assert.NoFileExists(t, filepath.Join(dst, "uevent"))
}

func TestRun_ManifestThenVerify(t *testing.T) {
	src, dst := setupSource(t)
	mf := filepath.Join(t.TempDir(), "snapshot.b3")

	require.Equal(t, 0, run([]string{"-q", "--manifest", mf, src, dst}))
	assert.Equal(t, 0, run([]string{"verify", mf, dst}))

	require.NoError(t, os.Chmod(filepath.Join(dst, "uevent"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "uevent"), []byte("changed"), 0o644))
	assert.Equal(t, 1, run([]string{"verify", mf, dst}))
}

func TestRun_UsageErrors(t *testing.T) {
	src, dst := setupSource(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"missing destination", []string{src}},
		{"bad size", []string{"--max-bytes", "lots", src, dst}},
		{"size above limit", []string{"--max-bytes", "2G", src, dst}},
		{"missing source", []string{filepath.Join(src, "nope"), dst}},
		{"destination is source", []string{src, src}},
		{"verbose and quiet", []string{"-v", "-q", src, dst}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 2, run(tt.args))
		})
	}
}

func TestRun_ScanOnlyWithoutDestination(t *testing.T) {
	src, _ := setupSource(t)
	assert.Equal(t, 0, run([]string{"-q", "--scan-only", src}))
}

func TestOptions_Mode(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want engine.Mode
	}{
		{"default", options{}, engine.ModeDirect},
		{"scan", options{scanOnly: true}, engine.ModeDirectScan},
		{"cache", options{cache: true}, engine.ModeCached},
		{"cache content implies cache", options{cacheContent: true}, engine.ModeCached},
		{"prune implies cache", options{prunes: []string{"/sys/a"}}, engine.ModeCached},
		{"cached scan", options{cache: true, scanOnly: true}, engine.ModeCachedScan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.mode())
		})
	}
}

func TestOptions_ConfigDefaultsYieldToFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var opts options
	opts.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--max-depth", "2"}))

	depth, hidden, timeout := 7, true, "2s"
	require.NoError(t, opts.applyConfigDefaults(cmd, config.DefaultsConfig{
		MaxDepth:    &depth,
		Hidden:      &hidden,
		PollTimeout: &timeout,
	}))

	assert.Equal(t, 2, opts.maxDepth)
	assert.True(t, opts.hidden)
	assert.Equal(t, 2*time.Second, opts.pollTimeout)
}

func TestOptions_EngineConfigCanonicalizes(t *testing.T) {
	src, dst := setupSource(t)
	alias := filepath.Join(filepath.Dir(src), "alias")
	require.NoError(t, os.Symlink(src, alias))

	opts := options{
		maxDepth: engine.NoDepthLimit,
		maxBytes: "4K",
		derefs:   []string{filepath.Join(alias, "link")},
	}
	cfg, err := opts.engineConfig(config.Config{Exclude: config.ExcludeConfig{Names: []string{"uevent"}}},
		[]string{alias, dst})
	require.NoError(t, err)

	assert.Equal(t, src, cfg.Src)
	assert.Equal(t, dst, cfg.Dst)
	assert.Equal(t, int64(4096), cfg.MaxBytes)
	assert.Equal(t, []string{filepath.Join(src, "link")}, cfg.DerefPaths.Items())
	assert.True(t, cfg.ExcludeNames.Contains("uevent"))
	assert.Nil(t, cfg.PruneTargets)
}

func TestExitFor(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	require.NoError(t, exitFor(engine.Result{}, logger))

	err := exitFor(engine.Result{Err: engine.ErrScanFailed}, logger)
	assert.Equal(t, 2, err.(*exitError).code)

	c := stats.NewCollector()
	c.Inc(stats.Dirs)
	err = exitFor(engine.Result{Stats: c.Snapshot(), Err: engine.ErrDerefFailed}, logger)
	assert.Equal(t, 1, err.(*exitError).code)

	err = exitFor(engine.Result{Stats: c.Snapshot(), Err: engine.ErrInvalidConfig}, logger)
	assert.Equal(t, 2, err.(*exitError).code)
}
