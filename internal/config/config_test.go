package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-arbitrage/internal/signal"
	"battery-arbitrage/internal/strategy"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesBatteryFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "batteries/small.yaml", `
battery:
  name: Small
  capacity_mwh: 100
  max_charge_mwh: 25
  max_discharge_mwh: 25
`)
	path := write(t, dir, "config.yaml", `
battery_file: batteries/small.yaml
battery:
  max_discharge_mwh: 30
strategy:
  name: lots
classifier:
  window: 12
  method: excel
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Small", c.Battery.Name)
	assert.Equal(t, 100.0, c.Battery.CapacityMWh)
	assert.Equal(t, 30.0, c.Battery.MaxDischargeMWh)
	assert.Equal(t, 0.9, c.Battery.Efficiency)
	assert.Equal(t, 0.991, c.Battery.MarginalLossFactor)

	assert.Equal(t, 12, c.Classifier.Window)
	assert.Equal(t, signal.MethodExcel, c.Classifier.Method)
	assert.Equal(t, 0.25, c.Classifier.Lower)
	assert.Equal(t, signal.DefaultFilterParams(), c.Filter)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 30, c.Data.PeriodMinutes)

	in := c.StrategyInputs([]float64{1, 2})
	assert.Equal(t, -25.0, in.Battery.MaxCharge)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing strategy", "battery: {capacity_mwh: 10}\n"},
		{"bad log level", "strategy: {name: lots}\nlog: {level: loud}\n"},
		{"efficiency above one", "strategy: {name: lots}\nbattery: {efficiency: 1.5}\n"},
		{"initial energy above capacity", "strategy: {name: lots}\nbattery: {capacity_mwh: 10, initial_energy_mwh: 20}\n"},
		{"unknown method", "strategy: {name: lots}\nclassifier: {method: median}\n"},
		{"bad timezone", "strategy: {name: lots}\ndata: {timezone: Mars/Olympus}\n"},
		{"short vote window", "strategy: {name: lots}\nvote_windows: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), "config.yaml", tt.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateInitialEnergyByStrategy(t *testing.T) {
	c := Default()
	c.Battery.InitialEnergyMWh = 500

	c.Strategy = strategy.Spec{Name: "lots"}
	assert.ErrorIs(t, c.Validate(), strategy.ErrInitialEnergy)

	c.Strategy = strategy.Spec{Name: "exact"}
	require.NoError(t, c.Validate())
	assert.Equal(t, 500.0, c.StrategyInputs([]float64{1}).InitialEnergy)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 580.0, c.Battery.CapacityMWh)
	assert.Equal(t, signal.DefaultClassifier(), c.Classifier)
}

func TestMergeBattery(t *testing.T) {
	base := BatteryConfig{Name: "a", CapacityMWh: 10, Efficiency: 0.8}
	got := MergeBattery(base, BatteryConfig{Efficiency: 0.95})
	assert.Equal(t, BatteryConfig{Name: "a", CapacityMWh: 10, Efficiency: 0.95}, got)
}

func TestListBatteryPresets(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "2_b.yaml", "battery:\n  capacity_mwh: 50\n")
	write(t, dir, "1_a.yaml", "battery:\n  name: Alpha\n  capacity_mwh: 10\n")
	write(t, dir, "broken.yaml", "battery: [\n")
	write(t, dir, "readme.md", "x")

	presets, errs := ListBatteryPresets(dir)
	assert.Len(t, errs, 1)
	require.Len(t, presets, 2)
	assert.Equal(t, "1_a", presets[0].ID)
	assert.Equal(t, "Alpha", presets[0].Battery.Name)
	assert.Equal(t, "2_b", presets[1].Battery.Name)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Reference 580 MWh", cfg.Battery.Name)
	assert.Equal(t, 580.0, cfg.Battery.CapacityMWh)
	assert.Equal(t, "lots", cfg.Strategy.Name)
	assert.Equal(t, signal.MethodLinear, cfg.Classifier.Method)
	assert.Equal(t, "Australia/Brisbane", cfg.Location().String())

	presets, errs := ListBatteryPresets(filepath.Join("..", "..", "examples", "batteries"))
	require.Empty(t, errs)
	require.Len(t, presets, 3)
	for _, p := range presets {
		b, err := p.Battery.WithDefaults()
		require.NoError(t, err)
		_, err = b.NewBattery()
		assert.NoError(t, err, p.ID)
	}
}

func TestLoadBatteryPresetRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "ok.yaml", "battery:\n  capacity_mwh: 10\n")

	b, err := LoadBatteryPreset(dir, "ok")
	require.NoError(t, err)
	assert.Equal(t, 10.0, b.CapacityMWh)

	for _, id := range []string{"", "../ok", "sub/ok", `a\\b`} {
		_, err := LoadBatteryPreset(dir, id)
		assert.Error(t, err, id)
	}
}

func TestBatteryDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BATTERY_DIR", dir)
	assert.Equal(t, dir, BatteryDir())
}
