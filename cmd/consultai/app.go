package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"consultai/cache/chunk_cache"
	"consultai/cache/score_cache"
	"consultai/distributed/redis_lock"
	"consultai/pipeline"
	"consultai/report"
	"consultai/store"
	"consultai/utils/log"
	"consultai/utils/retry"
)

// app holds the dependencies a command opened; close releases them.
type app struct {
	repo     *store.Repo
	chunks   *chunk_cache.Cache
	redis    *redis.Client
	locks    *redis_lock.LockFac
	pipeline *pipeline.Pipeline
}

func openApp(ctx context.Context) (*app, error) {
	a := &app{}

	db, err := store.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	a.repo = store.NewRepo(db)

	a.chunks, err = chunk_cache.Open(cfg.Paths.CacheDir)
	if err != nil {
		a.close()
		return nil, err
	}

	options := []pipeline.Option{
		pipeline.WithRepo(a.repo),
		pipeline.WithChunkCache(a.chunks),
	}
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, errors.Wrapf(err, "ping redis %s", cfg.Redis.Addr)
		}
		a.locks = redis_lock.NewLockFac(a.redis, redis_lock.WithTTL(cfg.Redis.LockTTL))
		options = append(options,
			pipeline.WithScoreCache(score_cache.New(a.redis, cfg.Redis.ScoreTTL)),
			pipeline.WithLockFac(a.locks),
		)
	} else {
		log.Debug(ctx, "redis not configured, score cache and run lock disabled")
	}

	a.pipeline = pipeline.New(cfg, options...)
	return a, nil
}

func (a *app) close() {
	if a.locks != nil {
		a.locks.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.chunks != nil {
		if err := a.chunks.Close(); err != nil {
			log.Warn(context.Background(), "close chunk cache", zap.Error(err))
		}
	}
	if a.repo != nil {
		if sqlDB, err := a.repo.DB().DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func newDownloader() *report.Downloader {
	return report.NewDownloader(cfg.Paths.ReportDir,
		report.WithTimeout(cfg.Download.Timeout),
		report.WithRetryOptions(retry.RetryOptions{
			MaxRetries:     cfg.Download.MaxRetries,
			InitialBackoff: cfg.Download.InitialBackoff,
			MaxBackoff:     cfg.Download.MaxBackoff,
		}),
	)
}
