package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

const DefaultSessionTTL = 2 * time.Hour

// Session is one user's conversation: an append-only history plus the
// last query result and the last plot drawn from it.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	history    []models.HistoryEntry
	lastSQL    string
	lastResult *models.ResultTable
	lastPlot   *models.PlotCode
	lastChart  *models.ChartSpec
}

// Append adds an entry to the history.
func (s *Session) Append(entry models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	s.history = append(s.history, entry)
}

// History returns a copy of the history, oldest first.
func (s *Session) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryEntry(nil), s.history...)
}

// SetLastResult remembers the most recent executed query.
func (s *Session) SetLastResult(sql string, result *models.ResultTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSQL = sql
	s.lastResult = result
	// A plot describes the result it was drawn from.
	s.lastPlot = nil
	s.lastChart = nil
}

// LastResult returns the most recent executed query, if any.
func (s *Session) LastResult() (string, *models.ResultTable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSQL, s.lastResult, s.lastResult != nil
}

// SetLastPlot remembers the plot generated for the last result. Exactly one
// of code and chart is normally set.
func (s *Session) SetLastPlot(code *models.PlotCode, chart *models.ChartSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlot = code
	s.lastChart = chart
}

// LastPlot returns the plot generated for the last result, if any.
func (s *Session) LastPlot() (*models.PlotCode, *models.ChartSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPlot, s.lastChart, s.lastPlot != nil || s.lastChart != nil
}

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	LastSQL   string                `json:"last_sql,omitempty"`
	LastPlot  *models.PlotCode      `json:"last_plot,omitempty"`
	LastChart *models.ChartSpec     `json:"last_chart,omitempty"`
	History   []models.HistoryEntry `json:"history"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastSQL:   s.lastSQL,
		LastPlot:  s.lastPlot,
		LastChart: s.lastChart,
		History:   append([]models.HistoryEntry{}, s.history...),
	}
}

// SessionService keeps sessions in memory until they sit idle for the TTL.
type SessionService interface {
	// GetOrCreate returns the live session for id, or a new one when id is
	// empty, unknown or expired.
	GetOrCreate(id string) *Session
	// Get returns a live session and extends its TTL.
	Get(id string) (*Session, bool)
	Delete(id string)
	Count() int
	// Start runs expiry in the background until ctx is done or Stop is called.
	Start(ctx context.Context)
	Stop()
}

type sessionService struct {
	cache  *ttlcache.Cache[string, *Session]
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewSessionService(ttl time.Duration, logger *zap.Logger) SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &sessionService{
		cache:  ttlcache.New[string, *Session](ttlcache.WithTTL[string, *Session](ttl)),
		logger: logger.Named("sessions"),
	}
	s.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.logger.Debug("Session expired", zap.String("session_id", item.Key()))
		}
		metrics.SetSessionsActive(s.cache.Len())
	})
	return s
}

func (s *sessionService) GetOrCreate(id string) *Session {
	if sess, ok := s.Get(id); ok {
		return sess
	}

	sess := &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)
	metrics.SetSessionsActive(s.cache.Len())
	return sess
}

func (s *sessionService) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *sessionService) Delete(id string) {
	s.cache.Delete(id)
}

func (s *sessionService) Count() int {
	return s.cache.Len()
}

func (s *sessionService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.cache.Start()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop ends background expiry. The cache's Stop blocks unless its loop is
// running, so it is only called once per Start.
func (s *sessionService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cache.Stop()
}
