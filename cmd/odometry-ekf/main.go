// Command odometry-ekf fuses a commanded tick log and a measured encoder
// tick log into a filtered robot trajectory, alongside an open-loop
// dead-reckoning baseline, and writes the results to an output folder.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/odometry/internal/config"
	"github.com/banshee-data/odometry/internal/fsutil"
	"github.com/banshee-data/odometry/internal/monitoring"
	"github.com/banshee-data/odometry/internal/pipeline"
	"github.com/banshee-data/odometry/internal/runstore"
	"github.com/banshee-data/odometry/internal/timeutil"
	"github.com/banshee-data/odometry/internal/version"
)

// Config holds the command line options.
type Config struct {
	ObservationLog string
	ActionLog      string
	BaselineLog    string
	SaveTo         string
	ConfigFile     string
	DBPath         string
	HTML           bool
	Verbose        bool
	ShowVersion    bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(cfg.Verbose)

	robot, err := loadRobotConfig(cfg.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	res, err := pipeline.Run(robot, pipeline.Inputs{
		FS:           fsutil.OSFileSystem{},
		Observations: cfg.ObservationLog,
		Actions:      cfg.ActionLog,
		Baseline:     cfg.BaselineLog,
	})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	if cfg.DBPath != "" {
		store, err := runstore.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
		id, err := res.Record(context.Background(), store)
		store.Close()
		if err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		log.Printf("Run recorded as %s in %s", id, cfg.DBPath)
	}

	if err := res.WriteArtifacts(fsutil.OSFileSystem{}, cfg.SaveTo, cfg.HTML, timeutil.RealClock{}); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	final := res.Final.Mean
	log.Printf("Final pose x=%.4f m y=%.4f m theta=%.4f rad; results in %s", final.X, final.Y, final.Theta, cfg.SaveTo)
}

func parseFlags(args []string, output io.Writer) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("odometry-ekf", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ObservationLog, "src-obs", "", "Measured encoder tick log (observations)")
	fs.StringVar(&cfg.ActionLog, "src-act", "", "Commanded tick log (actions)")
	fs.StringVar(&cfg.BaselineLog, "inp-file", "", "Tick log for the dead-reckoning baseline (default: -src-act)")
	fs.StringVar(&cfg.SaveTo, "save-to", "out", "Output folder for path.png and summary.json")
	fs.StringVar(&cfg.ConfigFile, "config", "", "Robot config JSON (default: built-in defaults)")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite run store to record the run in (optional)")
	fs.BoolVar(&cfg.HTML, "html", false, "Also write an interactive path.html")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log every predict and update")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}
	if cfg.ObservationLog == "" || cfg.ActionLog == "" {
		return cfg, fmt.Errorf("both -src-obs and -src-act are required")
	}
	if cfg.SaveTo == "" {
		return cfg, fmt.Errorf("-save-to must not be empty")
	}
	return cfg, nil
}

func loadRobotConfig(path string) (*config.RobotConfig, error) {
	if path == "" {
		return config.EmptyRobotConfig(), nil
	}
	return config.LoadRobotConfig(path)
}
