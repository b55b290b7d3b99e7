// Package analytics provides Redis-backed storage for per-content
// historical performance metrics. The optimizer consumes these metrics to
// calibrate RPM, views, and confidence estimates; when no history exists the
// optimizer falls back to neutral defaults, so this store is read
// best-effort.
package analytics

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/autopromote/internal/domain"
)

// DefaultTTL keeps history entries alive for 90 days past their last write.
// Stale performance data is worse than none for calibration.
const DefaultTTL = 90 * 24 * time.Hour

// HistoryStore persists historical metrics as Redis hashes, one per content
// item. It implements promotion.HistoryProvider.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryStore creates a store using DefaultTTL.
func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client, ttl: DefaultTTL}
}

// NewHistoryStoreTTL creates a store with a custom entry TTL. A zero ttl
// means entries never expire.
func NewHistoryStoreTTL(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func historyKey(contentID string) string {
	return fmt.Sprintf("content:history:%s", contentID)
}

// History returns the stored metrics for a content item, or nil when the
// item has no history. Store errors also yield nil: estimation degrades to
// neutral defaults rather than failing the request.
func (s *HistoryStore) History(ctx context.Context, contentID string) *domain.HistoricalMetrics {
	fields, err := s.client.HGetAll(ctx, historyKey(contentID)).Result()
	if err != nil {
		log.Printf("[analytics.HistoryStore] Failed to read history for %s: %v", contentID, err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}

	m := &domain.HistoricalMetrics{}
	m.Views = parseInt(fields["views"])
	m.EngagementRate = parseFloat(fields["engagement_rate"])
	m.ConversionRate = parseFloat(fields["conversion_rate"])
	m.ContentQualityScore = parseFloat(fields["quality_score"])
	m.ViralPotential = parseFloat(fields["viral_potential"])
	return m
}

// Record writes the metrics for a content item, replacing any previous
// values, and refreshes the entry TTL.
func (s *HistoryStore) Record(ctx context.Context, contentID string, m *domain.HistoricalMetrics) error {
	key := historyKey(contentID)
	err := s.client.HSet(ctx, key,
		"views", strconv.FormatInt(m.Views, 10),
		"engagement_rate", strconv.FormatFloat(m.EngagementRate, 'f', -1, 64),
		"conversion_rate", strconv.FormatFloat(m.ConversionRate, 'f', -1, 64),
		"quality_score", strconv.FormatFloat(m.ContentQualityScore, 'f', -1, 64),
		"viral_potential", strconv.FormatFloat(m.ViralPotential, 'f', -1, 64),
	).Err()
	if err != nil {
		return fmt.Errorf("record history for %s: %w", contentID, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("set history TTL for %s: %w", contentID, err)
		}
	}
	return nil
}

// Delete removes a content item's history.
func (s *HistoryStore) Delete(ctx context.Context, contentID string) error {
	if err := s.client.Del(ctx, historyKey(contentID)).Err(); err != nil {
		return fmt.Errorf("delete history for %s: %w", contentID, err)
	}
	return nil
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
