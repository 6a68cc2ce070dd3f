package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/carbon_recovery_go/internal/config"
	"github.com/user/carbon_recovery_go/internal/log"
)

// options holds the command line. Only flags named in set override the
// configuration file, so zero values such as -seed 0 can be chosen.
type options struct {
	cfgFile      string
	inputDir     string
	outputDir    string
	reportPath   string
	dbPath       string
	snapshotPath string
	fromSnapshot string
	seed         uint64
	debug        bool

	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("carbon_recovery", flag.ContinueOnError)
	fs.StringVar(&o.cfgFile, "config", "", "Path to a YAML configuration file (optional)")
	fs.StringVar(&o.inputDir, "input", "", "Directory holding the study rasters (overrides input_dir)")
	fs.StringVar(&o.outputDir, "output", "", "Directory for plots, report and snapshot (overrides output_dir)")
	fs.StringVar(&o.reportPath, "report", "", "PDF report file name or path (overrides report_path)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite results database (overrides database_path; empty skips storage)")
	fs.StringVar(&o.snapshotPath, "snapshot", "", "Write the assembled table to this msgpack snapshot")
	fs.StringVar(&o.fromSnapshot, "from-snapshot", "", "Read the assembled table from a snapshot instead of the rasters")
	fs.Uint64Var(&o.seed, "seed", 0, "Seed for the train/test split (overrides seed)")
	fs.BoolVar(&o.debug, "debug", false, "Turn on debugging output (overrides debug)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply copies every flag given on the command line into cfg.
func (o *options) apply(cfg *config.Config) {
	if o.set["input"] {
		cfg.InputDir = o.inputDir
	}
	if o.set["output"] {
		cfg.OutputDir = o.outputDir
	}
	if o.set["report"] {
		cfg.ReportPath = o.reportPath
	}
	if o.set["db"] {
		cfg.DatabasePath = o.dbPath
	}
	if o.set["snapshot"] {
		cfg.SnapshotPath = o.snapshotPath
	}
	if o.set["seed"] {
		cfg.Seed = o.seed
	}
	if o.set["debug"] {
		cfg.Debug = o.debug
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(opts.cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)

	if err := log.Init(cfg.Debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, opts.fromSnapshot)
	if err := app.Run(ctx); err != nil {
		log.Errorf("Run failed: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func loadConfig(cfgFile string) (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}
