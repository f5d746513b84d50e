package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/clipvault/clipsync/internal/config"
	"github.com/clipvault/clipsync/internal/diff"
	"github.com/clipvault/clipsync/internal/engine"
	"github.com/clipvault/clipsync/internal/index"
	"github.com/clipvault/clipsync/internal/logger"
	"github.com/clipvault/clipsync/internal/pack"
	"github.com/clipvault/clipsync/internal/remote"
	"github.com/clipvault/clipsync/internal/resolve"
	"github.com/clipvault/clipsync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("clipsyncd")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.DeviceID == "" {
		cfg.App.DeviceID = uuid.NewString()
		log.Warn().Str("device_id", cfg.App.DeviceID).
			Msg("no device id configured, generated one; set it to keep identity across restarts")
	}

	client, err := remote.NewWebDAVClient(remote.WebDAVConfig{
		Endpoint: cfg.Remote.Endpoint,
		Username: cfg.Remote.Username,
		Password: cfg.Remote.Password,
		BasePath: cfg.Remote.BasePath,
		Timeout:  cfg.Remote.Timeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create webdav client")
	}

	history, err := store.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open history database")
	}
	defer history.Close()

	retry := remote.DefaultRetryPolicy()
	packer := pack.NewManager(afero.NewOsFs(), client, retry, pack.Config{
		FilesDir:       cfg.Storage.FilesDir,
		CacheDir:       cfg.Storage.CacheDir,
		MaxPackageSize: cfg.Sync.Mode.FileLimits.MaxPackageSize,
	}, log)
	indexMgr := index.NewManager(client, retry, "", log)

	eng := engine.New(history, client, indexMgr, packer, diff.New(),
		resolve.New(resolve.Policy(cfg.Sync.Policy)), retry,
		engine.Config{DeviceID: cfg.App.DeviceID, Mode: cfg.Sync.Mode}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.App.RunOnce {
		res, err := eng.Sync(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("sync pass failed")
		}
		log.Info().Int("uploaded", res.Uploaded).Int("downloaded", res.Downloaded).
			Int("deleted", res.Deleted).Int("errors", len(res.Errors)).
			Msg("one-shot sync finished")
		return
	}

	job := engine.NewSyncJob(eng, log)
	job.Start(ctx, cfg.Sync.Interval)
	log.Info().Dur("interval", cfg.Sync.Interval).Msg("background sync started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	job.Stop()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
