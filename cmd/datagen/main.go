package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cookedzera/RetroQuery/internal/generator"
	"github.com/cookedzera/RetroQuery/internal/store"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		profiles    = flag.Int("profiles", cfg.NumProfiles, "number of profiles to generate")
		activities  = flag.Int("max-activities", cfg.MaxActivities, "maximum activities authored per profile")
		weeks       = flag.Int("weeks", cfg.Weeks, "weekly XP samples per profile")
		vouchChance = flag.Float64("vouch-chance", cfg.VouchChance, "probability that an activity is a vouch rather than a review")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		anchor      = flag.String("anchor", "", "date (YYYY-MM-DD) generated timestamps are relative to; defaults to today")
		output      = flag.String("output", "data/static.yaml", "path of the YAML dataset to write")
		writeStdout = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumProfiles:   *profiles,
		MaxActivities: *activities,
		Weeks:         *weeks,
		VouchChance:   clampProbability(*vouchChance),
		Seed:          *seed,
	}
	if *anchor != "" {
		t, err := time.Parse(time.DateOnly, *anchor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -anchor: %v\n", err)
			os.Exit(1)
		}
		genCfg.Anchor = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := store.Encode(os.Stdout, dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d profiles into %s\n", len(dataset), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
