package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"battery-arbitrage/internal/dispatch"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/signal"
	"battery-arbitrage/internal/strategy"
)

var validate = validator.New()

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string        `yaml:"battery_file"`
	Battery     BatteryConfig `yaml:"battery"`
	Strategy    strategy.Spec `yaml:"strategy"`

	Classifier signal.Classifier   `yaml:"classifier"`
	Filter     signal.FilterParams `yaml:"filter"`

	// VoteWindows replaces the single classifier with a vote over these windows.
	VoteWindows []int `yaml:"vote_windows" validate:"dive,gte=2"`

	Data DataConfig `yaml:"data"`
	Log  LogConfig  `yaml:"log"`
}

type BatteryConfig struct {
	Name               string  `yaml:"name" json:"name,omitempty"`
	CapacityMWh        float64 `yaml:"capacity_mwh" json:"capacity_mwh,omitempty" default:"580" validate:"gt=0"`
	MaxChargeMWh       float64 `yaml:"max_charge_mwh" json:"max_charge_mwh,omitempty" default:"135" validate:"gt=0"`
	MaxDischargeMWh    float64 `yaml:"max_discharge_mwh" json:"max_discharge_mwh,omitempty" default:"150" validate:"gt=0"`
	Efficiency         float64 `yaml:"efficiency" json:"efficiency,omitempty" default:"0.9" validate:"gt=0,lte=1"`
	MarginalLossFactor float64 `yaml:"marginal_loss_factor" json:"marginal_loss_factor,omitempty" default:"0.991" validate:"gt=0"`
	InitialEnergyMWh   float64 `yaml:"initial_energy_mwh" json:"initial_energy_mwh,omitempty" validate:"gte=0"`
}

type DataConfig struct {
	// Timezone applies to CSV timestamps without an offset.
	Timezone      string `yaml:"timezone" default:"UTC"`
	PeriodMinutes int    `yaml:"period_minutes" default:"30" validate:"gt=0"`
}

type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config and fills defaults, but does not
// validate it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Default returns a config with every default applied and the lots strategy.
func Default() *Config {
	c := &Config{Strategy: strategy.Spec{Name: "lots"}}
	if err := defaults.Set(c); err != nil {
		panic(err)
	}
	return c
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier invalid: %w", err)
	}
	if _, err := time.LoadLocation(c.Data.Timezone); err != nil {
		return fmt.Errorf("data.timezone invalid: %w", err)
	}
	// Validate battery params by constructing a model.Battery.
	if _, err := c.Battery.NewBattery(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if err := strategy.CheckInitialEnergy(c.Strategy.Name, c.Battery.InitialEnergyMWh); err != nil {
		return fmt.Errorf("battery.initial_energy_mwh: %w", err)
	}
	return nil
}

// Location resolves Data.Timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Period() time.Duration {
	if c.Data.PeriodMinutes <= 0 {
		return model.DefaultPeriod
	}
	return time.Duration(c.Data.PeriodMinutes) * time.Minute
}

// StrategyInputs assembles everything strategy.Build needs for prices.
func (c *Config) StrategyInputs(prices []float64, opts ...dispatch.Option) strategy.Inputs {
	return strategy.Inputs{
		Prices:     prices,
		Battery:    dispatch.ParamsFromBattery(c.Battery.ToModelParams()),
		Classifier: c.Classifier,
		Filter:     c.Filter,
		Windows:    c.VoteWindows,
		Opts:       opts,

		InitialEnergy: c.Battery.InitialEnergyMWh,
	}
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityMWh:        b.CapacityMWh,
		MaxChargeMWh:       b.MaxChargeMWh,
		MaxDischargeMWh:    b.MaxDischargeMWh,
		Efficiency:         b.Efficiency,
		MarginalLossFactor: b.MarginalLossFactor,
	}
}

// NewBattery builds a battery at the configured initial energy.
func (b BatteryConfig) NewBattery() (*model.Battery, error) {
	return model.NewBattery(b.ToModelParams(), b.InitialEnergyMWh)
}

// WithDefaults fills unset fields with the reference battery.
func (b BatteryConfig) WithDefaults() (BatteryConfig, error) {
	if err := defaults.Set(&b); err != nil {
		return b, err
	}
	return b, nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Battery, nil
}

// BatteryPreset is a battery file found in a preset directory.
type BatteryPreset struct {
	ID      string
	File    string
	Battery BatteryConfig
}

// ListBatteryPresets loads every *.yaml battery file in dir, sorted by ID.
// Files that fail to parse are skipped and reported in the second return.
func ListBatteryPresets(dir string) ([]BatteryPreset, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	var out []BatteryPreset
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		b, err := LoadBatteryFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		// Extract ID from filename (e.g., "1_reference.yaml" -> "1_reference")
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		if b.Name == "" {
			b.Name = id
		}
		out = append(out, BatteryPreset{ID: id, File: path, Battery: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, errs
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityMWh != 0 {
		out.CapacityMWh = override.CapacityMWh
	}
	if override.MaxChargeMWh != 0 {
		out.MaxChargeMWh = override.MaxChargeMWh
	}
	if override.MaxDischargeMWh != 0 {
		out.MaxDischargeMWh = override.MaxDischargeMWh
	}
	if override.Efficiency != 0 {
		out.Efficiency = override.Efficiency
	}
	if override.MarginalLossFactor != 0 {
		out.MarginalLossFactor = override.MarginalLossFactor
	}
	if override.InitialEnergyMWh != 0 {
		out.InitialEnergyMWh = override.InitialEnergyMWh
	}
	return out
}

// BatteryDir is where named battery presets live: BATTERY_DIR if set,
// otherwise examples/batteries under the working directory.
func BatteryDir() string {
	dir := os.Getenv("BATTERY_DIR")
	if dir == "" {
		// Try to resolve relative to working directory first
		if wd, err := os.Getwd(); err == nil {
			dir = filepath.Join(wd, "examples", "batteries")
		} else {
			dir = "./examples/batteries"
		}
	}
	// Convert to absolute path for reliability
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// LoadBatteryPreset loads the preset named id (file name without .yaml) from dir.
func LoadBatteryPreset(dir, id string) (BatteryConfig, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return BatteryConfig{}, fmt.Errorf("invalid battery preset %q", id)
	}
	return LoadBatteryFile(filepath.Join(dir, id+".yaml"))
}

// ApplyDefaults fills every zero field that carries a default tag.
func (c *Config) ApplyDefaults() error {
	return defaults.Set(c)
}
