package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
	"github.com/ekaya-inc/ekaya-askdb/pkg/retry"
)

const (
	DefaultConnectionTTLMinutes = 5
	DefaultCleanupInterval      = 1 * time.Minute
	DefaultPoolMaxConns         = 10
	DefaultPoolMinConns         = 1

	healthCheckTimeout = 5 * time.Second
)

// ConnectionManagerConfig holds configuration for the connection manager.
type ConnectionManagerConfig struct {
	TTLMinutes   int
	PoolMaxConns int32
	PoolMinConns int32
	// Retry overrides retry.DefaultConfig for connect and health checks.
	Retry *retry.Config
}

// ConnectionManager keeps one open Database per configured datasource.
// Idle databases are closed after the TTL and reopened on the next request.
type ConnectionManager struct {
	mu          sync.RWMutex
	datasources map[string]config.DatasourceConfig
	order       []string
	connections map[string]*ManagedConnection // key: datasource name
	ttl         time.Duration
	poolOpts    PoolOptions
	retryCfg    *retry.Config
	stopped     bool
	stopChan    chan struct{}
	logger      *zap.Logger
}

// ManagedConnection is an open Database with its last use time.
type ManagedConnection struct {
	db       Database
	dsType   string
	lastUsed time.Time
	mu       sync.Mutex
}

// DatasourceSummary describes a configured datasource for listings.
type DatasourceSummary struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Schema    string `json:"schema,omitempty"`
	Available bool   `json:"available"` // adapter compiled into this binary
	Connected bool   `json:"connected"`
}

// NewConnectionManager creates a connection manager for the given datasources.
// Starts a background cleanup goroutine that runs until Close() is called.
func NewConnectionManager(cfg ConnectionManagerConfig, datasources []config.DatasourceConfig, logger *zap.Logger) *ConnectionManager {
	if cfg.TTLMinutes <= 0 {
		cfg.TTLMinutes = DefaultConnectionTTLMinutes
	}
	if cfg.PoolMaxConns <= 0 {
		cfg.PoolMaxConns = DefaultPoolMaxConns
	}
	if cfg.PoolMinConns <= 0 {
		cfg.PoolMinConns = DefaultPoolMinConns
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}

	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	manager := &ConnectionManager{
		datasources: make(map[string]config.DatasourceConfig, len(datasources)),
		connections: make(map[string]*ManagedConnection),
		ttl:         ttl,
		poolOpts: PoolOptions{
			MaxConns:    cfg.PoolMaxConns,
			MinConns:    cfg.PoolMinConns,
			MaxIdleTime: ttl,
		},
		retryCfg: cfg.Retry,
		stopChan: make(chan struct{}),
		logger:   logger.Named("datasource"),
	}
	for _, ds := range datasources {
		manager.datasources[ds.Name] = ds
		manager.order = append(manager.order, ds.Name)
	}

	go manager.cleanupExpiredConnections()
	return manager
}

// Get returns the open database for a datasource, connecting on first use.
// A cached database is pinged first and reopened when the ping fails.
func (m *ConnectionManager) Get(ctx context.Context, name string) (Database, error) {
	m.mu.RLock()
	ds, known := m.datasources[name]
	managed, exists := m.connections[name]
	stopped := m.stopped
	m.mu.RUnlock()

	if stopped {
		return nil, fmt.Errorf("connection manager closed")
	}
	if !known {
		return nil, fmt.Errorf("datasource %q: %w", name, apperrors.ErrNotFound)
	}

	if exists {
		managed.mu.Lock()

		healthCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := retry.Do(healthCtx, m.retryCfg, func() error {
			return managed.db.Ping(healthCtx)
		})
		cancel()

		if err != nil {
			m.logger.Warn("Connection unhealthy, reopening",
				zap.String("datasource", name),
				zap.String("error", logging.SanitizeError(err)),
			)
			managed.mu.Unlock()
			m.removeConnection(name)
			return m.open(ctx, ds)
		}

		managed.lastUsed = time.Now()
		managed.mu.Unlock()
		return managed.db, nil
	}

	return m.open(ctx, ds)
}

// open connects a datasource with retry logic.
// Caller must NOT hold any locks.
func (m *ConnectionManager) open(ctx context.Context, ds config.DatasourceConfig) (Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Another goroutine may have connected while we waited for the lock.
	if managed, exists := m.connections[ds.Name]; exists && managed != nil {
		managed.mu.Lock()
		defer managed.mu.Unlock()
		managed.lastUsed = time.Now()
		return managed.db, nil
	}

	factory := GetFactory(ds.Type)
	if factory == nil {
		return nil, fmt.Errorf("datasource %q: type %q is not available in this build", ds.Name, ds.Type)
	}

	db, err := retry.DoWithResult(ctx, m.retryCfg, func() (Database, error) {
		db, err := factory(ctx, &ds, m.poolOpts, m.logger)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		m.logger.Error("Failed to open datasource",
			zap.String("datasource", ds.Name),
			zap.String("type", ds.Type),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("open datasource %q: %w", ds.Name, err)
	}

	m.connections[ds.Name] = &ManagedConnection{
		db:       db,
		dsType:   ds.Type,
		lastUsed: time.Now(),
	}

	m.logger.Info("Opened datasource",
		zap.String("datasource", ds.Name),
		zap.String("type", ds.Type),
		zap.Int("open", len(m.connections)),
	)

	return db, nil
}

// removeConnection closes and forgets a datasource's database.
// Caller must NOT hold m.mu.
func (m *ConnectionManager) removeConnection(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if managed, exists := m.connections[name]; exists && managed != nil {
		if managed.db != nil {
			managed.db.Close()
		}
		delete(m.connections, name)
		m.logger.Debug("Removed connection", zap.String("datasource", name))
	}
}

func (m *ConnectionManager) cleanupExpiredConnections() {
	ticker := time.NewTicker(DefaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performCleanup(time.Now())
		case <-m.stopChan:
			return
		}
	}
}

// performCleanup closes databases idle for longer than the TTL.
// Lock order: manager, then connection.
func (m *ConnectionManager) performCleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}

	var expired []string
	for name, managed := range m.connections {
		if managed == nil {
			continue
		}
		managed.mu.Lock()
		idle := now.Sub(managed.lastUsed)
		managed.mu.Unlock()

		if idle > m.ttl {
			expired = append(expired, name)
			m.logger.Debug("Marking connection for cleanup",
				zap.String("datasource", name),
				zap.Duration("idle", idle),
				zap.Duration("ttl", m.ttl),
			)
		}
	}

	for _, name := range expired {
		if managed := m.connections[name]; managed != nil && managed.db != nil {
			managed.db.Close()
		}
		delete(m.connections, name)
	}

	if len(expired) > 0 {
		m.logger.Info("Cleaned up idle connections",
			zap.Int("count", len(expired)),
			zap.Int("remaining", len(m.connections)),
		)
	}
}

// Datasources lists configured datasources in configuration order.
func (m *ConnectionManager) Datasources() []DatasourceSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]DatasourceSummary, 0, len(m.order))
	for _, name := range m.order {
		ds := m.datasources[name]
		_, connected := m.connections[name]
		out = append(out, DatasourceSummary{
			Name:      ds.Name,
			Type:      ds.Type,
			Schema:    ds.Schema,
			Available: IsRegistered(ds.Type),
			Connected: connected,
		})
	}
	return out
}

// Config returns the configuration of a named datasource.
func (m *ConnectionManager) Config(name string) (config.DatasourceConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasources[name]
	return ds, ok
}

// Close closes all databases and stops the cleanup goroutine. Idempotent.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}

	m.stopped = true
	close(m.stopChan)

	for _, managed := range m.connections {
		if managed != nil && managed.db != nil {
			managed.db.Close()
		}
	}

	m.connections = make(map[string]*ManagedConnection)
	m.logger.Info("Connection manager closed")
	return nil
}

// GetStats returns statistics about the connection manager.
func (m *ConnectionManager) GetStats() ConnectionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	stats := ConnectionStats{
		Configured:     len(m.datasources),
		Open:           len(m.connections),
		TTLMinutes:     int(m.ttl.Minutes()),
		OpenByType:     make(map[string]int),
		OldestIdleSecs: 0,
	}

	for _, managed := range m.connections {
		if managed == nil {
			continue
		}
		managed.mu.Lock()
		idle := int(now.Sub(managed.lastUsed).Seconds())
		stats.OpenByType[managed.dsType]++
		managed.mu.Unlock()
		if idle > stats.OldestIdleSecs {
			stats.OldestIdleSecs = idle
		}
	}

	return stats
}

// ConnectionStats contains statistics about the connection manager state.
type ConnectionStats struct {
	Configured     int            `json:"configured"`
	Open           int            `json:"open"`
	TTLMinutes     int            `json:"ttl_minutes"`
	OpenByType     map[string]int `json:"open_by_type"`
	OldestIdleSecs int            `json:"oldest_idle_seconds"`
}

var _ Provider = (*ConnectionManager)(nil)
