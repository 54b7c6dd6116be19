package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LoisM94/birthday-greeting/internal/config"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/local"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/postgres"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/rediscache"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/s3"
)

// OpenSource builds the configured record source, fronted by the Redis
// cache when one is configured. The returned close func releases any
// connections and is never nil.
func OpenSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (core.RecordSource, func(), error) {
	var (
		src     core.RecordSource
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Kind {
	case config.SourceCSV, "":
		src = &local.FileSource{Path: cfg.CSV.Path, Logger: logger}
	case config.SourceS3:
		s, err := s3.New(ctx, cfg.S3, logger)
		if err != nil {
			return nil, closeAll, err
		}
		src = s
	case config.SourcePostgres:
		s, err := postgres.Open(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = s.Close() })
		src = s
	default:
		return nil, closeAll, fmt.Errorf("unsupported source kind %q", cfg.Kind)
	}

	if strings.TrimSpace(cfg.Cache.URL) != "" {
		rdb, err := rediscache.NewClient(ctx, cfg.Cache)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		src = rediscache.Wrap(src, rdb, cfg.Cache, logger)
	}

	return src, closeAll, nil
}
