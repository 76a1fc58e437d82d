package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/soocke/hitlabel-go/app"
	"github.com/soocke/hitlabel-go/config"
	"github.com/soocke/hitlabel-go/domain/capture"
)

// Version information, set by ldflags during build.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `hitlabel - object-detection dataset tooling

Usage: hitlabel <command> [options]

Commands:
  record    capture screen frames at a fixed interval
  triage    sort raw frames into targets / no_targets
  label     draw bounding boxes on unlabeled target images
  cleanup   delete target images without a record
  package   build the YOLO training dataset
  train     run the external trainer
  predict   preview detections on target images
  live      live screen inference, saving uncertain frames

Common options:
  -config   path to the JSON config file (default hitlabel.json)
  -env      dotenv file with HITLABEL_* overrides (default .env)
  -debug    enable debug logging
  -seed     label shuffle seed; 0 forces a random order
  -log-format  json or text

Keys while labeling:
  1 / b  enemy robot box    2  ally robot box    3  enemy base box
  c      clear boxes        z  delete previous record
  Enter / Space  save       Esc  quit
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("hitlabel %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		fmt.Print(usage)
		return
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "hitlabel %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	cfgPath := fs.String("config", "hitlabel.json", "config file")
	envPath := fs.String("env", ".env", "dotenv file")
	fs.Bool("debug", false, "debug logging")
	fs.Int64("seed", 0, "shuffle seed for label (0 = random)")
	fs.String("log-format", "json", "log output: json or text")
	dryRun := fs.Bool("dry-run", false, "cleanup: only report what would be deleted")
	regionFlag := fs.String("region", "", "record/live: capture region x0,y0,x1,y1")
	writeConfig := fs.Bool("write-config", false, "save the effective config and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		return fmt.Errorf("load %s: %w", *envPath, err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return err
	}
	if *writeConfig {
		return cfg.Save(*cfgPath)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level, cfg.LogFormat)

	c, err := app.BuildContainer(cfg, logger)
	if err != nil {
		return err
	}
	region, err := capture.ParseRegion(*regionFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case "label":
		_, err = c.Label()
	case "cleanup":
		var removed []string
		removed, err = c.Cleanup(*dryRun)
		for _, p := range removed {
			fmt.Println(p)
		}
	case "triage":
		_, err = c.Triage(ctx)
	case "package":
		_, err = c.Package()
	case "train":
		err = c.Train(ctx, fs.Args())
	case "predict":
		_, err = c.Predict()
	case "record":
		_, err = c.Record(ctx, region)
	case "live":
		_, err = c.Live(ctx, region)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
