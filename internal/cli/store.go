package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/weave/internal/config"
	"github.com/aretw0/weave/pkg/adapters/file"
	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/adapters/postgres"
	"github.com/aretw0/weave/pkg/adapters/redis"
	"github.com/aretw0/weave/pkg/persistence/middleware"
	"github.com/aretw0/weave/pkg/ports"
)

// Persistence bundles the configured checkpoint store with its optional locker.
// Store is nil for the "none" backend.
type Persistence struct {
	Store  ports.CheckpointStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// OpenStore builds the checkpoint store described by cfg, wrapped with
// masking and encryption when configured.
func OpenStore(ctx context.Context, cfg config.Checkpoint, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}

	switch cfg.Backend {
	case config.BackendNone, "":
		return p, nil
	case config.BackendMemory:
		p.Store = memory.NewStore()
	case config.BackendFile:
		p.Store = file.New(cfg.Dir)
	case config.BackendRedis:
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		p.Store = store
		p.Locker = redis.NewLocker(store.Client(), prefix)
		p.close = store.Close
	case config.BackendPostgres:
		store, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		p.Store = store
		p.close = store.Close
	case config.BackendS3:
		p.Store = ports.UnimplementedStore{Backend: config.BackendS3}
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.MaskFields) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskFields)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}
	p.Store = middleware.Chain(p.Store, mws...)

	logger.Debug("checkpoint store ready", "backend", cfg.Backend, "masked_fields", len(cfg.MaskFields), "encrypted", cfg.EncryptionKey != "")
	return p, nil
}
