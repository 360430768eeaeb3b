package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/curbz/planeguess/internal/clock"
	"github.com/curbz/planeguess/internal/config"
	"github.com/curbz/planeguess/internal/game"
	"github.com/curbz/planeguess/internal/gateway"
	"github.com/curbz/planeguess/internal/hub"
	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/pkg/util"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML configuration file")
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		logrus.Fatalf("Error reading configuration: %v", err)
	}

	log, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		logrus.Fatalf("Error creating logger: %v", err)
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.WithFields(logrus.Fields{
		"tick":     cfg.Game.TickInterval,
		"density":  cfg.Airspace.TargetDensity,
		"airports": len(cfg.Airspace.Airports),
		"seed":     seed,
	}).Info("Starting planeguess")

	sim, err := airspace.New(cfg.Airspace, rand.New(rand.NewSource(seed)), log)
	if err != nil {
		log.Fatalf("Error creating airspace: %v", err)
	}

	m := metrics.New()
	h := hub.New(log, m)
	state := game.NewState(game.Settings{
		TickInterval:  cfg.Game.TickInterval,
		PointsCorrect: cfg.Game.PointsCorrect,
	}, sim, log)
	engine := game.NewEngine(state, h, clock.NewTicker(cfg.Game.TickInterval), cfg.Game.CommandBuffer, log, m)
	server := gateway.New(cfg.Server, cfg.Viewer, engine, h, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("engine stopped: %v", err)
		}
	}()

	if err := server.ListenAndServe(ctx); err != nil {
		log.Errorf("server error: %v", err)
		stop()
	}

	wg.Wait()
	log.Info("planeguess stopped")
}
