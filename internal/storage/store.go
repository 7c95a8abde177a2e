package storage

import (
	"context"
	"errors"
	"fmt"
)

// Fixed keys shared by the companion components.
const (
	KeyToken   = "userToken"
	KeyProfile = "userData"
	KeyDraft   = "@evento"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is the local persistent key-value slot set used by the client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open picks a backend by driver name.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return OpenSQL("sqlite3", dsn)
	case "postgres":
		return OpenSQL("postgres", dsn)
	case "bolt":
		return OpenBolt(dsn)
	case "redis":
		return OpenRedis(dsn)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
