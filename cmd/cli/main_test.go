package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func writePrices(t *testing.T, dir, name, region string, prices ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("datetime,spot_price,region\n")
	for i, p := range prices {
		b.WriteString("2024-01-01 0" + string(rune('0'+i/2)))
		if i%2 == 0 {
			b.WriteString(":00:00,")
		} else {
			b.WriteString(":30:00,")
		}
		b.WriteString(p + "," + region + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestBacktestCommand(t *testing.T) {
	dir := t.TempDir()
	prices := writePrices(t, dir, "sa.csv", "SA1", "50", "200", "50", "200")
	out := filepath.Join(dir, "out", "ledger.csv")

	stdout := run(t, "backtest", "--data", prices, "--strategy", "exact", "--out", out)
	assert.Contains(t, stdout, "Wrote 4 rows")
	assert.Contains(t, stdout, "Strategy=exact")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "CHARGING")
}

func TestBacktestCommandUsesFirstRegion(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "sa.csv", "SA1", "50", "200", "50", "200")
	writePrices(t, dir, "qld.csv", "QLD1", "100", "100", "100", "100")
	out := filepath.Join(t.TempDir(), "ledger.csv")

	stdout := run(t, "backtest", "--data", dir, "--strategy", "exact", "--out", out)
	assert.Contains(t, stdout, "Wrote 4 rows")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 5)
	for _, line := range lines[1:] {
		assert.Equal(t, "QLD1", strings.Split(line, ",")[3])
	}
}

func TestRankCommand(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "sa.csv", "SA1", "50", "200", "50", "200")
	writePrices(t, dir, "qld.csv", "QLD1", "100", "100", "100", "100")

	stdout := run(t, "rank", "--data", dir)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1    SA1"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2    QLD1"), lines[2])
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	prices := make([]string, 16)
	for i := range prices {
		if i%4 < 2 {
			prices[i] = "20"
		} else {
			prices[i] = "180"
		}
	}
	path := writePrices(t, dir, "sa.csv", "SA1", prices...)

	stdout := run(t, "sweep", "--data", path, "--windows", "2,4", "--lowers", "0.2,0.9", "--uppers", "0.8", "--top", "0")
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	// header plus two windows; lower 0.9 is above upper 0.8 and skipped
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "lots window=")
}
