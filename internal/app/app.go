// Package app constructs the ledger store and the components that share it.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/importer"
	"github.com/pinehill-dev/pinehill/internal/ingest"
	"github.com/pinehill-dev/pinehill/internal/ingestlog"
	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/logging"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
	"github.com/pinehill-dev/pinehill/internal/report"
	"github.com/pinehill-dev/pinehill/internal/server"
)

// AppName tags every log line.
const AppName = "pinehill"

// App owns one open ledger and everything built on top of it.
type App struct {
	Dir      string
	Config   *config.Config
	Log      *logrus.Logger
	Location *time.Location
	Store    *ledger.Store
	Targets  reconcile.ConfigTargets
	Pipeline *ingest.Pipeline
	Engine   *reconcile.Engine
	Reports  *report.Service
}

// Options tweak construction. Zero values are usable.
type Options struct {
	LogOutput io.Writer        // defaults to stderr
	Now       func() time.Time // ingestion clock
}

// New loads the project in dir, opens and migrates its ledger and wires the
// pipeline, engine and reporting service. Close releases the ledger.
func New(ctx context.Context, dir string, opts Options) (*App, error) {
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log := logging.NewWithOutput(AppName, cfg.Log.Level, out)

	loc, err := time.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Ingest.Timezone, err)
	}

	store, err := ledger.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	targets := reconcile.ConfigTargets{
		Fixed:     cfg.Rent.Targets,
		PriceUnit: cfg.Rent.PriceUnit,
		Units:     store,
	}
	pipeline := ingest.New(store, importer.DefaultRegistry(cfg.Banks()...), ingest.Options{
		Logger:            log,
		Recorder:          ingestlog.NewWriter(dir),
		Location:          loc,
		Now:               opts.Now,
		Deduplicate:       cfg.Ingest.Deduplicate,
		YearRolloverGuard: cfg.Ingest.YearRolloverGuard,
	})

	return &App{
		Dir:      dir,
		Config:   cfg,
		Log:      log,
		Location: loc,
		Store:    store,
		Targets:  targets,
		Pipeline: pipeline,
		Engine:   reconcile.NewEngine(store, targets, log),
		Reports:  report.NewService(store, targets),
	}, nil
}

// Server returns the HTTP adapter over the app's components.
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Store:    a.Store,
		Pipeline: a.Pipeline,
		Engine:   a.Engine,
		Reports:  a.Reports,
		Logger:   a.Log,
	})
}

// Close waits for notified events and closes the ledger.
func (a *App) Close() error {
	a.Pipeline.Wait()
	return a.Store.Close()
}
