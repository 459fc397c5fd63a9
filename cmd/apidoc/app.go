package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"apidoc/internal/config"
	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
	"apidoc/internal/pipeline"
	"apidoc/internal/registry"
	"apidoc/internal/slogutil"
	"apidoc/internal/storage"
)

// app carries what every command needs: the project root, the loaded
// configuration and a logger.
type app struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newApp() (*app, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, apierrors.New(apierrors.ConfigInvalid, "failed to load configuration", err)
	}
	return newAppWith(root, cfg, os.Stderr)
}

func newAppWith(root string, cfg *config.Config, console io.Writer) (*app, error) {
	opts := cfg.LogOptions(root, "")
	if verbosity > 0 || quietFlag {
		opts.Level = slogutil.LevelFromVerbosity(verbosity, quietFlag)
	}
	logger, closer, err := slogutil.New(console, opts)
	if err != nil {
		return nil, apierrors.New(apierrors.ConfigInvalid, "failed to set up logging", err)
	}
	return &app{root: root, cfg: cfg, logger: logger, closer: closer}, nil
}

func (a *app) Close() {
	_ = a.closer.Close()
}

// build loads the descriptor files (the configured inputs when paths is
// empty) and runs the pipeline.
func (a *app) build(ctx context.Context, paths []string) (*pipeline.Result, []string, error) {
	if len(paths) == 0 {
		var err error
		if paths, err = a.cfg.ResolveInputs(a.root); err != nil {
			return nil, nil, err
		}
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no descriptor files found; pass files as arguments or set inputs in %s", config.Path(a.root))
	}

	types, err := metadata.LoadAll(paths, a.cfg.Exclusions())
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("Descriptors loaded", "files", len(paths), "types", len(types))

	res, err := pipeline.Run(ctx, types, pipeline.Options{
		Policy:           a.cfg.Policy(),
		Roots:            a.cfg.RootTypes,
		MinAccessibility: a.cfg.MinAccess(),
		Workers:          a.cfg.WorkerCount(),
		Logger:           a.logger,
	})
	return res, paths, err
}

func (a *app) openStore() (*storage.DB, *storage.RegistryRepository, error) {
	db, err := storage.Open(a.cfg.StoragePath(a.root), a.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, storage.NewRegistryRepository(db), nil
}

// runRecord describes a pipeline result as a stored run.
func runRecord(res *pipeline.Result) storage.Run {
	return storage.Run{
		ID:               res.RunID,
		StartedAt:        res.StartedAt,
		Policy:           string(res.Options.Policy),
		MinAccessibility: string(res.Options.MinAccessibility),
		Types:            res.Stats.Types,
		Members:          res.Stats.Members,
		Warnings:         res.Stats.Warnings,
	}
}

// store saves a run and prunes old ones.
func (a *app) store(ctx context.Context, res *pipeline.Result) error {
	db, repo, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Save(ctx, runRecord(res), res.Registry); err != nil {
		return err
	}
	if keep := a.cfg.Storage.KeepRuns; keep > 0 {
		if _, err := repo.Prune(ctx, keep); err != nil {
			return err
		}
	}
	return nil
}

// loadRegistry returns the registry commands query: the stored run (latest
// when runID is empty) or, with rebuild or storage disabled, a fresh build.
func (a *app) loadRegistry(ctx context.Context, runID string, rebuild bool) (*registry.Registry, storage.Run, error) {
	if rebuild || !a.cfg.Storage.Enabled {
		res, _, err := a.build(ctx, nil)
		if err != nil {
			return nil, storage.Run{}, err
		}
		return res.Registry, runRecord(res), nil
	}

	db, repo, err := a.openStore()
	if err != nil {
		return nil, storage.Run{}, err
	}
	defer db.Close()

	if runID == "" {
		reg, run, err := repo.LoadLatest(ctx)
		if err != nil {
			return nil, storage.Run{}, fmt.Errorf("%w (run `apidoc build` first or pass --rebuild)", err)
		}
		return reg, run, nil
	}
	run, err := repo.Run(ctx, runID)
	if err != nil {
		return nil, storage.Run{}, err
	}
	reg, err := repo.Load(ctx, runID)
	return reg, run, err
}

// writeResponse writes resp in the selected output format.
func writeResponse(w io.Writer, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
