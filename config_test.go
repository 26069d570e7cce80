package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigJSONAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "catalog"), 0o755))

	cfgPath := filepath.Join(dir, "config.json")
	body := `{"input_root":"` + filepath.Join(dir, "catalog") + `","output_root":"` + filepath.Join(dir, "out") + `"}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 200, cfg.BatchSize)
	require.Equal(t, 200, cfg.LargeZipLimitMB)
	require.Equal(t, 8, cfg.MaxWorkers)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, int64(200*1024*1024), cfg.LargeZipLimitBytes())
	require.NotEmpty(t, cfg.Hash())
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "catalog"), 0o755))

	cfgPath := filepath.Join(dir, "config.yaml")
	body := "input_root: " + filepath.Join(dir, "catalog") + "\n" +
		"output_root: " + filepath.Join(dir, "out") + "\n" +
		"batch_size: 50\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.BatchSize)
}

func TestConfigValidateRejectsOutOfRangeBatchSize(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{InputRoot: dir, OutputRoot: filepath.Join(dir, "out"), BatchSize: 1, LargeZipLimitMB: 100, MaxWorkers: 1, ShardCacheMB: 1}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "batch_size")
}

func TestConfigValidateRejectsMissingInputRoot(t *testing.T) {
	cfg := &Config{OutputRoot: "out", BatchSize: 100, LargeZipLimitMB: 100, MaxWorkers: 1, ShardCacheMB: 1}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	require.Error(t, err)
}
