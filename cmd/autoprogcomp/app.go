package main

import (
	"context"
	"fmt"

	"github.com/programme-lv/autoprogcomp/archive"
	"github.com/programme-lv/autoprogcomp/codeforces"
	"github.com/programme-lv/autoprogcomp/conf"
	"github.com/programme-lv/autoprogcomp/logger"
	"github.com/programme-lv/autoprogcomp/runner"
	"github.com/programme-lv/autoprogcomp/s3bucket"
	"github.com/programme-lv/autoprogcomp/scoreboard"
	"github.com/programme-lv/autoprogcomp/sheet"
)

// app holds everything a command needs, built from the configuration.
type app struct {
	cfg        *conf.Config
	archive    *archive.Archive
	scoreboard *scoreboard.Scoreboard
	sheet      sheet.Sheet
	runner     *runner.Runner
}

func loadConfig(path string) (*conf.Config, error) {
	cfg, err := conf.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File != "", cfg.Log.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *conf.Config) (*app, error) {
	arch, err := newArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}

	client := codeforces.NewClient(codeforces.Options{
		BaseURL:     cfg.Codeforces.BaseURL,
		APIKey:      cfg.Codeforces.APIKey,
		Secret:      cfg.Codeforces.Secret,
		Cooldown:    cfg.Codeforces.Cooldown.Duration,
		MaxRetries:  cfg.Codeforces.MaxRetries,
		RetryDelay:  cfg.Codeforces.RetryDelay.Duration,
		Archive:     arch,
		ReplayRunID: cfg.Archive.ReplayRun,
	})
	sb := scoreboard.New(client, cfg.Location())

	s, err := newSheet(ctx, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	schedule := runner.Schedule{Hour: cfg.Schedule.Hour, Minute: cfg.Schedule.Minute}
	return &app{
		cfg:        cfg,
		archive:    arch,
		scoreboard: sb,
		sheet:      s,
		runner:     runner.New(s, sb.Compute, schedule, cfg.Location()),
	}, nil
}

func newArchive(ctx context.Context, cfg conf.ArchiveConfig) (*archive.Archive, error) {
	var store archive.Store
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "dir":
		store = archive.NewDirStore(cfg.Dir)
	case "s3":
		bucket, err := s3bucket.NewS3Bucket(ctx, cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive bucket: %w", err)
		}
		store = archive.NewS3Store(bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
	return archive.New(store)
}

func newSheet(ctx context.Context, cfg conf.SheetConfig) (sheet.Sheet, error) {
	switch cfg.Backend {
	case "google":
		return sheet.NewGoogleSheet(ctx, cfg.SpreadsheetID, cfg.Name, sheet.CredentialsFile(cfg.CredentialsFile))
	case "csv":
		return sheet.NewCSVSheet(cfg.CSVPath), nil
	default:
		return nil, fmt.Errorf("unknown sheet backend %q", cfg.Backend)
	}
}
