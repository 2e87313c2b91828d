package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/replica-sync/internal/config"
	"github.com/yuya-takeyama/replica-sync/pkg/compare"
)

func load(t *testing.T, flags []string, args []string) (*config.Config, error) {
	t.Helper()
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse(flags))
	return loadConfig(cmd, viper.New(), args)
}

func TestLoadConfigDefaults(t *testing.T) {
	src, rep := t.TempDir(), t.TempDir()

	got, err := load(t, nil, []string{src, rep})
	require.NoError(t, err)
	assert.Equal(t, src, got.Source)
	assert.Equal(t, rep, got.Replica)
	assert.Equal(t, 60*time.Second, got.Interval)
	assert.Equal(t, compare.SizeAndTime, got.Mode)
	assert.False(t, got.AllowReadonlyModify)
}

func TestLoadConfigPositionalIntervalAndLogFile(t *testing.T) {
	src, rep := t.TempDir(), t.TempDir()
	logFile := filepath.Join(t.TempDir(), "sync.log")

	got, err := load(t, []string{"--interval", "120"}, []string{src, rep, "30", logFile})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got.Interval, "positional beats flag")
	assert.Equal(t, logFile, got.LogFile)
}

func TestLoadConfigFlags(t *testing.T) {
	src, rep := t.TempDir(), t.TempDir()

	got, err := load(t, []string{
		"--mode", "md5",
		"--allow-readonly-modify",
		"--exclude", "*.tmp",
		"--exclude", "cache/",
		"--interval", "1m30s",
	}, []string{src, rep})
	require.NoError(t, err)
	assert.Equal(t, compare.ContentHash, got.Mode)
	assert.True(t, got.AllowReadonlyModify)
	assert.Equal(t, []string{"*.tmp", "cache/"}, got.Excludes)
	assert.Equal(t, 90*time.Second, got.Interval)
}

func TestLoadConfigEnvironment(t *testing.T) {
	src, rep := t.TempDir(), t.TempDir()
	t.Setenv("REPLICA_SYNC_INTERVAL", "15")
	t.Setenv("REPLICA_SYNC_MODE", "md5")

	got, err := load(t, []string{"--mode", "size-time"}, []string{src, rep})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, got.Interval)
	assert.Equal(t, compare.SizeAndTime, got.Mode, "flag beats environment")
}

func TestLoadConfigFile(t *testing.T) {
	src, rep := t.TempDir(), t.TempDir()
	path := filepath.Join(t.TempDir(), "replica-sync.yaml")
	content := "source: " + src + "\nreplica: " + rep + "\nmode: md5\nallow_readonly_modify: true\ninterval: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := load(t, []string{"--config", path}, nil)
	require.NoError(t, err)
	assert.Equal(t, src, got.Source)
	assert.Equal(t, rep, got.Replica)
	assert.Equal(t, compare.ContentHash, got.Mode)
	assert.True(t, got.AllowReadonlyModify)
	assert.Equal(t, 5*time.Second, got.Interval)
}

func TestLoadConfigErrors(t *testing.T) {
	src := t.TempDir()

	tests := []struct {
		name  string
		flags []string
		args  []string
	}{
		{name: "missing replica", args: []string{src}},
		{name: "same folder", args: []string{src, src}},
		{name: "nested replica", args: []string{src, filepath.Join(src, "replica")}},
		{name: "bad interval", flags: []string{"--interval", "soon"}, args: []string{src, t.TempDir()}},
		{name: "zero interval", args: []string{src, t.TempDir(), "0"}},
		{name: "relative log file", args: []string{src, t.TempDir(), "10", "sync.log"}},
		{name: "bad mode", flags: []string{"--mode", "sha1"}, args: []string{src, t.TempDir()}},
		{name: "missing config file", flags: []string{"--config", filepath.Join(src, "none.yaml")}, args: []string{src, t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.flags, tt.args)
			assert.Error(t, err)
		})
	}
}
