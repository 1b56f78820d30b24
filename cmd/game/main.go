package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/frontline/internal/config"
	"github.com/Garsondee/frontline/internal/game"
	"github.com/Garsondee/frontline/internal/logging"
	"github.com/Garsondee/frontline/internal/viewer"
)

const (
	screenW = 1600
	screenH = 1000

	fireLifetime  = 12.0
	smokeLifetime = 8.0
)

func main() {
	cfgPath := flag.String("config", "", "path to a config file (yaml, toml or json)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		errLog := logging.New("error", "console", os.Stderr)
		errLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	opts, err := game.ConfigOptions(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("equipment catalog")
	}
	fires := game.NewFireField(fireLifetime)
	smoke := game.NewSmokeField(smokeLifetime)
	opts = append(opts,
		game.WithSeed(cfg.Sim.Seed),
		game.WithCoordinator(game.FactionRed),
		game.WithEffects(game.Effects{Fires: fires, Smoke: smoke}),
	)

	terrain := game.SkirmishTerrain(cfg.Map.Width, cfg.Map.Height, cfg.Map.Tile)
	world, err := game.NewWorld(terrain, cfg.Map.Width, cfg.Map.Height, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("world")
	}
	if _, err := game.PopulateSkirmish(world); err != nil {
		log.Fatal().Err(err).Msg("populate")
	}
	log.Info().Int64("seed", cfg.Sim.Seed).Str("world", world.String()).Msg("battle ready")

	ebiten.SetWindowTitle("Frontline")
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetTPS(int(1/cfg.Sim.DT + 0.5))
	if err := ebiten.RunGame(viewer.New(world, terrain, fires, smoke, screenW, screenH, log)); err != nil {
		log.Fatal().Err(err).Msg("run")
	}
}
