package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	injection "github.com/usercrixus/KeyStrokeInjection"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadFileConfig tests YAML parsing of every field
func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, `
root: /watched
action_dir: /watched/hot
exclude: [generated, tmp]
ignore: ["*.min.js"]
extensions: [".py", ".rs"]
poll_timeout: 250ms
cooldown: 5s
window: 1m
interval: 3s
backup: true
dry_run: false
log_level: debug
log_file: /var/log/ki.log
`)

	cfg, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/watched", cfg.Root)
	assert.Equal(t, "/watched/hot", cfg.ActionDir)
	assert.Equal(t, []string{"generated", "tmp"}, cfg.Exclude)
	assert.Equal(t, []string{"*.min.js"}, cfg.Ignore)
	assert.Equal(t, []string{".py", ".rs"}, cfg.Extensions)
	assert.Equal(t, "250ms", cfg.PollTimeout)
	require.NotNil(t, cfg.Backup)
	assert.True(t, *cfg.Backup)
	require.NotNil(t, cfg.DryRun)
	assert.False(t, *cfg.DryRun)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// TestLoadFileConfig_Errors tests missing and malformed files
func TestLoadFileConfig_Errors(t *testing.T) {
	_, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "root: [unbalanced")
	_, err = loadFileConfig(path)
	assert.Error(t, err)
}

// TestApplyFileConfig tests folding the file into the option set
func TestApplyFileConfig(t *testing.T) {
	backup := true
	cfg := &fileConfig{
		Root:        "/watched",
		ActionDir:   "/watched/hot",
		Exclude:     []string{"generated"},
		PollTimeout: "250ms",
		Cooldown:    "5s",
		Backup:      &backup,
		LogLevel:    "info",
	}

	opts := options{
		root:     ".",
		timeout:  injection.DefaultPollTimeout,
		cooldown: injection.DefaultCooldown,
		window:   30 * time.Second,
		interval: 2 * time.Second,
		severity: injection.SeverityWarn,
	}
	require.NoError(t, applyFileConfig(&opts, cfg))

	assert.Equal(t, "/watched", opts.root)
	assert.Equal(t, "/watched/hot", opts.actionDir)
	assert.Equal(t, []string{"generated"}, opts.exclude)
	assert.Equal(t, 250*time.Millisecond, opts.timeout)
	assert.Equal(t, 5*time.Second, opts.cooldown)
	assert.True(t, opts.backup)
	assert.Equal(t, injection.SeverityInfo, opts.severity)

	// Unset durations keep their previous values
	assert.Equal(t, 30*time.Second, opts.window)
	assert.Equal(t, 2*time.Second, opts.interval)
}

// TestApplyFileConfig_BadDuration tests that a malformed duration is
// rejected with the field name
func TestApplyFileConfig_BadDuration(t *testing.T) {
	opts := options{}
	err := applyFileConfig(&opts, &fileConfig{Cooldown: "fast"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooldown")
}

// TestParseDuration tests the empty-keeps-fallback contract
func TestParseDuration(t *testing.T) {
	d, err := parseDuration("", 7*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, d)

	d, err = parseDuration("150ms", 7*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, d)

	_, err = parseDuration("soon", 0)
	assert.Error(t, err)
}

// TestMultiFlag tests repeated flag accumulation
func TestMultiFlag(t *testing.T) {
	var m multiFlag
	require.NoError(t, m.Set("a"))
	require.NoError(t, m.Set("b"))
	assert.Equal(t, multiFlag{"a", "b"}, m)
	assert.Equal(t, "[a b]", m.String())
}

// TestRun_BadRoot tests the configuration exit code
func TestRun_BadRoot(t *testing.T) {
	code := run([]string{"-root", filepath.Join(t.TempDir(), "missing"), "-once"})
	assert.Equal(t, exitConfig, code)
}

// TestRun_OnceScan tests a single polling pass over a fresh tree
func TestRun_OnceScan(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(target, []byte("print('hi')\n"), 0644))

	code := run([]string{"-root", root, "-once"})
	assert.Equal(t, exitOK, code)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), injection.DefaultMarker)

	// A second pass finds the marker and changes nothing
	code = run([]string{"-root", root, "-once"})
	assert.Equal(t, exitOK, code)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}

// TestRun_OnceDryRun tests that dry-run leaves files untouched
func TestRun_OnceDryRun(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(target, []byte("print('hi')\n"), 0644))

	code := run([]string{"-root", root, "-once", "-dry-run"})
	assert.Equal(t, exitOK, code)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(data))
}
