package store

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/agentworkforce/seqfield/sequence"
)

// StoreFactory builds a Store from a full DSN.
type StoreFactory func(dsn string) (sequence.Store, error)

var storeFactoryRegistry = struct {
	mu        sync.RWMutex
	factories map[string]StoreFactory
}{
	factories: map[string]StoreFactory{},
}

// RegisterStoreFactory registers a factory for a DSN scheme. Registered
// factories take precedence over the built-in schemes.
func RegisterStoreFactory(scheme string, factory StoreFactory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	storeFactoryRegistry.mu.Lock()
	defer storeFactoryRegistry.mu.Unlock()
	storeFactoryRegistry.factories[scheme] = factory
}

func lookupStoreFactory(scheme string) (StoreFactory, bool) {
	scheme = normalizeScheme(scheme)
	storeFactoryRegistry.mu.RLock()
	defer storeFactoryRegistry.mu.RUnlock()
	factory, ok := storeFactoryRegistry.factories[scheme]
	return factory, ok
}

// BuildStoreFromDSN constructs a Store from a scheme-prefixed DSN:
// memory://, postgres:// / postgresql://, sqlite://path (also
// sqlite::memory: and sqlite:file:...).
func BuildStoreFromDSN(dsn string) (sequence.Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty dsn", sequence.ErrInvalidInput)
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupStoreFactory(scheme); ok {
		return factory(dsn)
	}
	switch scheme {
	case "memory", "mem", "inmem":
		return NewMemoryStore(), nil
	case "postgres", "postgresql":
		return NewPostgresStore(dsn)
	case "sqlite":
		return NewSQLiteStore(sqliteDSN(parsed))
	default:
		return nil, fmt.Errorf("unsupported store scheme: %q", scheme)
	}
}

// sqliteDSN recovers the driver DSN from a sqlite: URL. Opaque forms like
// sqlite::memory: and sqlite:file:... pass through unchanged.
func sqliteDSN(parsed *url.URL) string {
	if parsed.Opaque != "" {
		dsn := parsed.Opaque
		if parsed.RawQuery != "" {
			dsn += "?" + parsed.RawQuery
		}
		return dsn
	}
	dsn := parsed.Path
	if parsed.Host != "" {
		dsn = parsed.Host + dsn
	}
	if parsed.RawQuery != "" {
		dsn += "?" + parsed.RawQuery
	}
	return dsn
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
