package main

import (
	"context"
	"fmt"
	"io"

	"book-catalogue/internal/adapter"
	"book-catalogue/internal/config"
	"book-catalogue/internal/core"
	xlog "book-catalogue/internal/log"
	"book-catalogue/pkg/http_client"
)

// openKV opens the configured cache backend. The returned closer may be nil.
func openKV(ctx context.Context, c config.CacheConfig) (adapter.KV, io.Closer, error) {
	switch c.Backend {
	case config.BackendMemory:
		return adapter.NewMemoryKV(), nil, nil
	case config.BackendFile:
		kv, err := adapter.NewFileKV(c.Dir)
		return kv, nil, err
	case config.BackendRedis:
		kv, err := adapter.NewRedisKV(ctx, adapter.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	case config.BackendBadger:
		kv, err := adapter.OpenBadgerKV(c.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", c.Backend)
}

type app struct {
	loader *core.Loader
	closer io.Closer
}

func (a *app) Close() {
	a.loader.Close()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			logger := xlog.WithComponent("main")
			logger.Warn().Err(err).Msg("closing cache backend")
		}
	}
}

func newApp(ctx context.Context, cfg config.Config, sink core.Sink) (*app, error) {
	kv, closer, err := openKV(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	store := adapter.NewCacheStore(kv,
		adapter.WithCacheKey(cfg.Cache.Key),
		adapter.WithTTL(cfg.Cache.TTL),
	)
	source := adapter.NewRemoteSource(cfg.SourceURL, http_client.CreateHTTPClient(cfg.HTTPTimeout))
	logger := xlog.WithComponent("main")
	logger.Debug().
		Str(xlog.FieldBackend, string(cfg.Cache.Backend)).
		Str(xlog.FieldURL, cfg.SourceURL).
		Msg("catalogue wired")
	loader := core.NewLoader(store, source, core.NewBookValidator(), sink, core.NewState(), core.LoaderOptions{
		RefreshDelay: cfg.RefreshDelay,
	})
	return &app{loader: loader, closer: closer}, nil
}
