package main

import (
	"errors"
	"flag"
	"testing"

	"github.com/user/carbon_recovery_go/internal/config"
)

func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSeed  uint64
		wantDebug bool
		wantDB    string
	}{
		{name: "no flags keep the config", args: nil, wantSeed: 7, wantDebug: true, wantDB: "runs.db"},
		{name: "seed zero is honoured", args: []string{"-seed", "0"}, wantSeed: 0, wantDebug: true, wantDB: "runs.db"},
		{name: "seed override", args: []string{"-seed=42"}, wantSeed: 42, wantDebug: true, wantDB: "runs.db"},
		{name: "debug can be switched off", args: []string{"-debug=false"}, wantSeed: 7, wantDebug: false, wantDB: "runs.db"},
		{name: "empty db skips storage", args: []string{"-db", ""}, wantSeed: 7, wantDebug: true, wantDB: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			cfg := config.Default()
			cfg.Seed = 7
			cfg.Debug = true
			cfg.DatabasePath = "runs.db"
			opts.apply(cfg)

			if cfg.Seed != tt.wantSeed {
				t.Errorf("Seed = %d, want %d", cfg.Seed, tt.wantSeed)
			}
			if cfg.Debug != tt.wantDebug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.wantDebug)
			}
			if cfg.DatabasePath != tt.wantDB {
				t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, tt.wantDB)
			}
		})
	}
}

func TestParseFlagsPaths(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "run.yaml", "-input", "data", "-from-snapshot", "table.msgpack"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.cfgFile != "run.yaml" || opts.fromSnapshot != "table.msgpack" {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg := config.Default()
	opts.apply(cfg)
	if cfg.InputDir != "data" {
		t.Errorf("InputDir = %q, want data", cfg.InputDir)
	}
	if cfg.OutputDir != config.Default().OutputDir {
		t.Errorf("OutputDir changed to %q without -output", cfg.OutputDir)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	if _, err := parseFlags([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
	if _, err := parseFlags([]string{"-seed", "-1"}); err == nil {
		t.Error("negative seed should fail to parse")
	}
}
