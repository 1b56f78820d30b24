// Package config loads simulation settings from defaults, an optional file and
// FRONTLINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view of every simulation setting.
type Config struct {
	Map       MapConfig       `mapstructure:"map"`
	Sim       SimConfig       `mapstructure:"sim"`
	AI        AIConfig        `mapstructure:"ai"`
	Equipment EquipmentConfig `mapstructure:"equipment"`
	Log       LogConfig       `mapstructure:"log"`
	Report    ReportConfig    `mapstructure:"report"`
}

// MapConfig sizes the battlefield.
type MapConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	Tile   float64 `mapstructure:"tile"` // terrain tile size in px
}

// SimConfig controls the fixed-step loop.
type SimConfig struct {
	Seed         int64   `mapstructure:"seed"`
	DT           float64 `mapstructure:"dt"`
	FlowCellSize float64 `mapstructure:"flowCellSize"`
}

// AIConfig controls the tactical layer cadence.
type AIConfig struct {
	HeatmapInterval time.Duration `mapstructure:"heatmapInterval"`
	JobsInterval    time.Duration `mapstructure:"jobsInterval"`
	JobAdmission    string        `mapstructure:"jobAdmission"`
}

// EquipmentConfig points at an external catalog. Empty uses the embedded one.
type EquipmentConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig selects verbosity and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig drives cmd/headless-report.
type ReportConfig struct {
	Runs    int `mapstructure:"runs"`
	Seconds int `mapstructure:"seconds"`
}

// DefaultJobAdmission admits a job when it has something worth attacking.
const DefaultJobAdmission = "BlueUnits > 0 || Objectives > 0"

func setDefaults(v *viper.Viper) {
	v.SetDefault("map.width", 2000.0)
	v.SetDefault("map.height", 2000.0)
	v.SetDefault("map.tile", 20.0)

	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.dt", 1.0/60.0)
	v.SetDefault("sim.flowCellSize", 20.0)

	v.SetDefault("ai.heatmapInterval", "1s")
	v.SetDefault("ai.jobsInterval", "5s")
	v.SetDefault("ai.jobAdmission", DefaultJobAdmission)

	v.SetDefault("equipment.file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("report.runs", 4)
	v.SetDefault("report.seconds", 120)
}

// Load reads configuration. An empty path means defaults plus environment;
// a non-empty path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FRONTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		errs = append(errs, fmt.Errorf("map size must be positive, got %vx%v", c.Map.Width, c.Map.Height))
	}
	if c.Map.Tile <= 0 {
		errs = append(errs, fmt.Errorf("map.tile must be positive"))
	}
	if c.Sim.DT <= 0 || c.Sim.DT > 0.5 {
		errs = append(errs, fmt.Errorf("sim.dt must be in (0, 0.5], got %v", c.Sim.DT))
	}
	if c.Sim.FlowCellSize <= 0 {
		errs = append(errs, fmt.Errorf("sim.flowCellSize must be positive"))
	}
	if c.AI.HeatmapInterval <= 0 || c.AI.JobsInterval <= 0 {
		errs = append(errs, fmt.Errorf("ai intervals must be positive"))
	}
	return errors.Join(errs...)
}
