package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/frontline/internal/config"
	"github.com/Garsondee/frontline/internal/game"
	"github.com/Garsondee/frontline/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "path to a config file (yaml, toml or json)")
	runs := flag.Int("runs", 0, "number of headless runs (0 uses report.runs)")
	seconds := flag.Int("seconds", 0, "sim seconds per run (0 uses report.seconds)")
	seedBase := flag.Int64("seed-base", 42, "seed for run 1")
	seedStep := flag.Int64("seed-step", 1, "seed increment between runs")
	parallel := flag.Int("parallel", runtime.NumCPU(), "concurrent runs")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *runs > 0 {
		cfg.Report.Runs = *runs
	}
	if *seconds > 0 {
		cfg.Report.Seconds = *seconds
	}
	if cfg.Report.Runs <= 0 || cfg.Report.Seconds <= 0 {
		fmt.Fprintln(os.Stderr, "error: runs and seconds must be > 0")
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	fmt.Printf("=== Headless Battle Report ===\n")
	fmt.Printf("runs=%d seconds=%d seed_base=%d seed_step=%d map=%.0fx%.0f\n\n",
		cfg.Report.Runs, cfg.Report.Seconds, *seedBase, *seedStep, cfg.Map.Width, cfg.Map.Height)

	results, err := runAll(context.Background(), cfg, seeds(*seedBase, *seedStep, cfg.Report.Runs), *parallel, log)
	if err != nil {
		log.Error().Err(err).Msg("headless run failed")
		os.Exit(1)
	}
	fmt.Print(game.FormatRunTable(results))
	fmt.Print(aggregate(results))
}

// seeds lists n seeds starting at base.
func seeds(base, step int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = base + int64(i)*step
	}
	return out
}

// runAll plays one skirmish per seed with at most parallel in flight.
// Results keep seed order.
func runAll(ctx context.Context, cfg *config.Config, seedList []int64, parallel int, log zerolog.Logger) ([]game.RunResult, error) {
	results := make([]game.RunResult, len(seedList))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, seed := range seedList {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts, err := game.ConfigOptions(cfg, log.With().Int64("seed", seed).Logger())
			if err != nil {
				return err
			}
			res, err := game.RunSkirmish(seed, float64(cfg.Report.Seconds), cfg.Map.Width, cfg.Map.Height, opts...)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			log.Debug().Int64("seed", seed).Str("outcome", res.Outcome.Outcome.String()).Int("ticks", res.Ticks).Msg("run complete")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// aggregate sums counters over every run.
func aggregate(results []game.RunResult) string {
	if len(results) == 0 {
		return ""
	}
	var total game.SimStats
	for _, r := range results {
		s := r.Stats
		total.ShotsFired += s.ShotsFired
		total.Hits += s.Hits
		total.CannonShots += s.CannonShots
		total.FFAborts += s.FFAborts
		total.Captures += s.Captures
		total.BlueLost += s.BlueLost
		total.RedLost += s.RedLost
		total.CannonsLost += s.CannonsLost
	}
	acc := 0.0
	if total.ShotsFired > 0 {
		acc = float64(total.Hits) / float64(total.ShotsFired)
	}
	n := float64(len(results))
	return fmt.Sprintf("\navg per run: shots %.1f accuracy %.2f cannon shots %.1f ff aborts %.1f captures %.1f losses blue %.1f red %.1f cannons %.1f\n",
		float64(total.ShotsFired)/n, acc, float64(total.CannonShots)/n, float64(total.FFAborts)/n,
		float64(total.Captures)/n, float64(total.BlueLost)/n, float64(total.RedLost)/n, float64(total.CannonsLost)/n)
}
