// Package config loads the run configuration from a YAML file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/user/carbon_recovery_go/internal/raster"
)

// Config holds everything a pipeline run needs. Paths are explicit; nothing
// depends on the process working directory.
type Config struct {
	InputDir     string                      `yaml:"input_dir" json:"input_dir"`
	Layers       map[raster.LayerName]string `yaml:"layers" json:"layers"`
	OutputDir    string                      `yaml:"output_dir" json:"output_dir"`
	ReportPath   string                      `yaml:"report_path,omitempty" json:"report_path,omitempty"`
	DatabasePath string                      `yaml:"database_path,omitempty" json:"database_path,omitempty"`
	SnapshotPath string                      `yaml:"snapshot_path,omitempty" json:"snapshot_path,omitempty"`
	TestFraction float64                     `yaml:"test_fraction" json:"test_fraction"`
	Seed         uint64                      `yaml:"seed" json:"seed"`
	Debug        bool                        `yaml:"debug" json:"debug"`
}

// DefaultLayerFiles are the file names of the Florida study rasters. Only
// integer TIFFs decode, so float AGB and NEP layers have to be exported as
// ESRI ASCII grids and named here with an .asc extension.
var DefaultLayerFiles = map[raster.LayerName]string{
	raster.AGB1990:    "Smaller_FL_agb_1990.tif",
	raster.AGB2000:    "Smaller_FL_agb_2000.tif",
	raster.AGB2010:    "Smaller_FL_agb_2010.tif",
	raster.ForestType: "Smaller_FL_forest_group_NAFD.tif",
	raster.NEP1990:    "Smaller_FL_nep_1990.tif",
	raster.NEP2000:    "Smaller_FL_nep_2000.tif",
	raster.NEP2010:    "Smaller_FL_nep_2010.tif",
	raster.BurnYear:   "Smaller_FL_years_disturb_MTSB.tif",
}

// Default returns a configuration with the study defaults filled in.
func Default() *Config {
	layers := make(map[raster.LayerName]string, len(DefaultLayerFiles))
	for k, v := range DefaultLayerFiles {
		layers[k] = v
	}
	return &Config{
		InputDir:     ".",
		Layers:       layers,
		OutputDir:    "output",
		ReportPath:   "carbon_recovery_report.pdf",
		TestFraction: 0.4,
		Seed:         1,
	}
}

// Load reads a YAML file on top of Default. Layers omitted from the file keep
// their default names.
func Load(filename string) (*Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	defaults := cfg.Layers
	cfg.Layers = nil
	if err := yaml.Unmarshal(cfgFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if cfg.Layers == nil {
		cfg.Layers = defaults
	} else {
		for k, v := range defaults {
			if _, ok := cfg.Layers[k]; !ok {
				cfg.Layers[k] = v
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a run cannot do without.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir must be set")
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0, 1), got %v", c.TestFraction)
	}
	for _, name := range raster.LayerNames {
		if c.Layers[name] == "" {
			return fmt.Errorf("no file configured for layer %s", name)
		}
	}
	for name := range c.Layers {
		if !name.Valid() {
			return fmt.Errorf("unknown layer %q in config", name)
		}
	}
	return nil
}

// LayerPath resolves a layer's file against InputDir.
func (c *Config) LayerPath(name raster.LayerName) string {
	f := c.Layers[name]
	if filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(c.InputDir, f)
}

// OutputPath resolves a file name against OutputDir.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// JSON renders the configuration for storing alongside a run.
func (c *Config) JSON() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}
