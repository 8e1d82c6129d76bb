package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// OperationLogEntry represents a persisted log entry
type OperationLogEntry struct {
	ID        int                    `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// GormOperationLogRepository persists operation logs of the daemon (sweeps,
// transitions, task triggers)
type GormOperationLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	// Deduplication cache
	dedupCache   map[string]time.Time // key: source+message, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormOperationLogRepository creates a new operation log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormOperationLogRepository(db *gorm.DB, clock shared.Clock) *GormOperationLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormOperationLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000,
	}
}

// Log writes a log entry with time-windowed deduplication
func (r *GormOperationLogRepository) Log(ctx context.Context, source, level, message string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := source + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	// Metadata is optional; an unencodable map is dropped rather than failing the log
	metadataJSON, err := marshalJSON(metadata)
	if err != nil {
		metadataJSON = ""
	}

	entry := &OperationLogModel{
		Source:    source,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// Must be called while holding dedupMu
func (r *GormOperationLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs newest first with optional source, level and time filters
func (r *GormOperationLogRepository) GetLogs(ctx context.Context, source string, limit int, level *string, since *time.Time) ([]OperationLogEntry, error) {
	query := r.db.WithContext(ctx).Model(&OperationLogModel{})
	if source != "" {
		query = query.Where("source = ?", source)
	}
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []OperationLogModel
	if err := query.Order("timestamp DESC, id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get operation logs: %w", err)
	}

	entries := make([]OperationLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}
		entries[i] = OperationLogEntry{
			ID:        model.ID,
			Source:    model.Source,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}

// ForSource returns an OperationLogger writing every entry under source
func (r *GormOperationLogRepository) ForSource(source string) logging.OperationLogger {
	return &sourceLogger{repo: r, source: source}
}

type sourceLogger struct {
	repo   *GormOperationLogRepository
	source string
}

func (l *sourceLogger) Log(level, message string, metadata map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.repo.Log(ctx, l.source, level, message, metadata); err != nil {
		fmt.Printf("Warning: failed to persist %s log: %v\n", l.source, err)
	}
}
