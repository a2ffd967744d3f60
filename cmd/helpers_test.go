package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablediff/internal/config"
)

// testConfig mirrors the configured defaults with small limits.
func testConfig() *config.Config {
	return &config.Config{
		Compare: config.CompareConfig{Threshold: 0.015},
		Limits:  config.LimitsConfig{MaxRows: 100, MaxColumns: 10, DetailedRows: 100},
		Match:   config.MatchConfig{Strategy: "greedy", ExactMaxRows: 2000},
		Input:   config.InputConfig{Encoding: "utf-8"},
		Server:  config.ServerConfig{Port: 8080, CORSOrigins: []string{"*"}, MaxBodyMB: 1},
		Log:     config.LogConfig{Level: "info", Format: "console"},
	}
}

// useConfig installs c as the global config for the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func noColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	citiesA = "id,city\n1,Paris\n2,Rome\n3,Oslo\n"
	citiesB = "id,city\n1,Paris\n2,Milan\n4,Bern\n"
)
