// Command trackgen simulates events and writes a hit dataset with its
// truth and solution files.
//
// Example:
//
//	trackgen -output-dir /tmp -num-events 10 -hits-per-event 1000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/trackml/internal/config"
	"github.com/banshee-data/trackml/internal/monitoring"
	"github.com/banshee-data/trackml/internal/version"
)

var (
	outputDir    = flag.String("output-dir", ".", "Directory in which the dataset_trackml directory is created")
	numEvents    = flag.Int("num-events", 1, "Number of events to simulate")
	hitsPerEvent = flag.Int("hits-per-event", 1000, "Particles simulated per event")
	detectors    = flag.String("detectors", "", "Comma-separated detector radii (default from config)")
	configPath   = flag.String("config", "", "Path to a JSON tuning config")
	seed         = flag.Int64("seed", -1, "Random seed; negative uses the config seed or the clock")
	dbPath       = flag.String("db", "", "Optional SQLite database recording the run")
	verbose      = flag.Bool("v", false, "Verbose logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("trackgen"))
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if strings.TrimSpace(*detectors) != "" {
		radii, err := config.ParseRadii(*detectors)
		if err != nil {
			log.Fatalf("Invalid -detectors: %v", err)
		}
		cfg.DetectorRadii = radii
	}
	if *seed >= 0 {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := generate(ctx, cfg, genOptions{
		OutputDir:         *outputDir,
		NumEvents:         *numEvents,
		ParticlesPerEvent: *hitsPerEvent,
		DBPath:            *dbPath,
	})
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("Wrote %d particles and %d hits to %s (run %s)", res.Particles, res.Hits, res.Dir, res.RunID)
}
