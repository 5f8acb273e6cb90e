// Command trackreco reconstructs tracks from a hits file and optionally
// scores them against a solution file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/trackml/internal/config"
	"github.com/banshee-data/trackml/internal/monitoring"
	"github.com/banshee-data/trackml/internal/version"
)

var (
	hitsPath     = flag.String("hits", "hits.csv", "Hits file to reconstruct")
	solutionPath = flag.String("solution", "", "Optional tracks_soln.csv to score against")
	detectors    = flag.String("detectors", "", "Comma-separated detector radii (default from config)")
	tolerance    = flag.Float64("tolerance", 0, "Layer resolution tolerance (default from config)")
	mode         = flag.String("mode", "", "Hit claim mode: strict or shared (default from config)")
	configPath   = flag.String("config", "", "Path to a JSON tuning config")
	dbPath       = flag.String("db", "", "Optional SQLite database recording the run")
	plotPath     = flag.String("plot", "", "Write a PNG event display to this path")
	htmlPath     = flag.String("html", "", "Write an HTML event display to this path")
	quiet        = flag.Bool("q", false, "Do not print the reconstructed tracks")
	verbose      = flag.Bool("v", false, "Verbose logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("trackreco"))
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
	if *tolerance > 0 {
		cfg.LayerTolerance = tolerance
	}
	if *mode != "" {
		cfg.ClaimMode = mode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	o := recoOptions{
		HitsPath:     *hitsPath,
		SolutionPath: *solutionPath,
		DBPath:       *dbPath,
		PlotPath:     *plotPath,
		HTMLPath:     *htmlPath,
	}
	if !*quiet {
		o.Tracks = os.Stdout
	}

	res, err := reconstructFile(cfg, o)
	if err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}

	log.Printf("Reconstructed %d tracks from %d hits (%d unresolved, %d unassigned, %d re-claimed)",
		len(res.Tracks), res.Hits, res.Unresolved, res.Unassigned, res.Reclaimed)
	if res.Report != nil {
		fmt.Printf("You predicted %s%% of hits correctly.\n", strconv.FormatFloat(res.Report.Percent, 'f', 2, 64))
		fmt.Printf("Per-track accuracy: mean %.3f, stddev %.3f over %d particles\n",
			res.Report.MeanAccuracy, res.Report.StdDevAccuracy, len(res.Report.PerTrack))
	}
}
