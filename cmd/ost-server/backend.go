package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
	"github.com/MarcoPoloResearchLab/ost/internal/config"
	"github.com/MarcoPoloResearchLab/ost/internal/ost"
	"github.com/MarcoPoloResearchLab/ost/internal/remote"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/jsonfile"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/kvstore"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/memory"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/sqlite"
)

// backend is an opened context plus what the dispatcher needs around it.
type backend struct {
	context ost.Context
	seeder  command.Seeder
	close   func() error
}

func noClose() error { return nil }

func openBackend(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (backend, error) {
	logger = logger.With(zap.String("backend", string(cfg.Backend)))
	switch cfg.Backend {
	case config.BackendMemory:
		engine, err := memory.New(logger)
		return backend{context: engine, close: noClose}, err
	case config.BackendFake:
		counts := memory.SeedCounts(cfg.Seed)
		engine, err := memory.Seeded(counts, logger)
		seeder := func(target ost.Context) error { return memory.Seed(target, counts) }
		return backend{context: engine, seeder: seeder, close: noClose}, err
	case config.BackendFile:
		if cfg.SourceFile != "" {
			engine, err := jsonfile.FromFile(cfg.SourceFile, cfg.ContextFile, logger)
			return backend{context: engine, close: noClose}, err
		}
		engine, err := jsonfile.Open(cfg.ContextFile, logger)
		return backend{context: engine, close: noClose}, err
	case config.BackendKV:
		bolt, err := kvstore.OpenBolt(cfg.KVPath)
		if err != nil {
			return backend{}, err
		}
		engine, err := kvstore.Open(bolt, cfg.KVKey, logger)
		if err != nil {
			return backend{}, errors.Join(err, bolt.Close())
		}
		return backend{context: engine, close: bolt.Close}, nil
	case config.BackendSQLite:
		store, err := sqlite.OpenStore(cfg.SQLitePath, logger)
		if err != nil {
			return backend{}, err
		}
		engine, err := sqlite.Open(store)
		if err != nil {
			return backend{}, errors.Join(err, store.Close())
		}
		return backend{context: engine, close: store.Close}, nil
	case config.BackendS3:
		objects, err := kvstore.NewS3KV(ctx, kvstore.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
			Timeout:   cfg.RequestTimeout,
		})
		if err != nil {
			return backend{}, err
		}
		engine, err := kvstore.Open(objects, cfg.KVKey, logger)
		return backend{context: engine, close: noClose}, err
	case config.BackendRemote:
		transport := remote.NewHTTPTransport(&http.Client{Timeout: cfg.RequestTimeout})
		proxy, err := remote.New(cfg.RemoteEndpoint, transport, logger)
		return backend{context: proxy, close: noClose}, err
	default:
		return backend{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
