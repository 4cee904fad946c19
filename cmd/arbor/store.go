package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/bolt"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

// backend is the snapshot store selected by the configuration, plus the
// locker replicas need when they share it.
type backend struct {
	store  ports.SnapshotStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(c config.Store) (*backend, error) {
	b, err := openStore(c)
	if err != nil {
		return nil, err
	}
	active, fallback, err := c.Keys()
	if err != nil {
		_ = b.close()
		return nil, err
	}
	if active != nil {
		b.store = middleware.Chain(b.store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return b, nil
}

func openStore(c config.Store) (*backend, error) {
	switch c.Driver {
	case config.DriverRedis:
		ttl, err := c.TTL()
		if err != nil {
			return nil, err
		}
		store := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB,
			redis.WithTTL(ttl),
			redis.WithPrefix(c.RedisPrefix),
		)
		return &backend{
			store:  store,
			locker: redis.NewLocker(store.Client(), c.RedisPrefix),
			close:  store.Close,
		}, nil
	case config.DriverBolt:
		store, err := bolt.Open(c.BoltPath)
		if err != nil {
			return nil, err
		}
		return &backend{store: store, close: store.Close}, nil
	case config.DriverMemory, "":
		return &backend{store: memory.NewStore(), close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Driver)
}
