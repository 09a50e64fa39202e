package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/observability"
)

// ResultCache keeps rendered detailed results and assessment statistics in Redis. A nil
// cache or client disables caching.
//
// Every entry is tagged with the generation counters it was read under. Invalidate bumps
// the counters, so a fill computed from rows read before an invalidation is never served
// even when it lands in Redis afterwards.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

type cacheEntry struct {
	Generation string          `json:"generation"`
	Payload    json.RawMessage `json:"payload"`
}

// NewResultCache builds a detailed result cache.
func NewResultCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ResultCache {
	return &ResultCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "result_cache").Logger(),
	}
}

func detailedResultKey(assessmentID, studentID uint) string {
	return fmt.Sprintf("results:detail:%d:%d", assessmentID, studentID)
}

func statisticsKey(assessmentID uint) string {
	return fmt.Sprintf("results:stats:%d", assessmentID)
}

func detailedGenerationKey(assessmentID, studentID uint) string {
	return fmt.Sprintf("results:gen:detail:%d:%d", assessmentID, studentID)
}

func assessmentGenerationKey(assessmentID uint) string {
	return fmt.Sprintf("results:gen:assessment:%d", assessmentID)
}

func statisticsGenerationKey(assessmentID uint) string {
	return fmt.Sprintf("results:gen:stats:%d", assessmentID)
}

func (c *ResultCache) enabled() bool {
	return c != nil && c.client != nil
}

// generationTTL outlives any entry tagged with an older generation.
func (c *ResultCache) generationTTL() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return 2*c.ttl + time.Minute
}

// Get returns the cached result for the pair. On a miss the returned generation has to be
// handed to Set along with the freshly projected result.
func (c *ResultCache) Get(ctx context.Context, assessmentID, studentID uint) (dto.DetailedResult, string, bool) {
	var result dto.DetailedResult
	generation, ok := c.load(ctx, detailedResultKey(assessmentID, studentID), &result,
		assessmentGenerationKey(assessmentID), detailedGenerationKey(assessmentID, studentID))
	return result, generation, ok
}

// Set stores the result for the configured TTL under the generation returned by Get.
func (c *ResultCache) Set(ctx context.Context, result dto.DetailedResult, generation string) {
	c.store(ctx, detailedResultKey(result.AssessmentID, result.StudentID), generation, result)
}

// GetStatistics returns the cached statistics of an assessment, if any, and the generation
// to pass to SetStatistics on a miss.
func (c *ResultCache) GetStatistics(ctx context.Context, assessmentID uint) (dto.AssessmentStatistics, string, bool) {
	var stats dto.AssessmentStatistics
	generation, ok := c.load(ctx, statisticsKey(assessmentID), &stats, statisticsGenerationKey(assessmentID))
	return stats, generation, ok
}

// SetStatistics stores assessment statistics for the configured TTL.
func (c *ResultCache) SetStatistics(ctx context.Context, stats dto.AssessmentStatistics, generation string) {
	c.store(ctx, statisticsKey(stats.AssessmentID), generation, stats)
}

func (c *ResultCache) load(ctx context.Context, key string, target interface{}, generationKeys ...string) (string, bool) {
	if !c.enabled() {
		return "", false
	}

	values, err := c.client.MGet(ctx, append([]string{key}, generationKeys...)...).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to read result cache")
		observability.ResultCacheLookups().WithLabelValues("miss").Inc()
		return "", false
	}

	generation := joinGenerations(values[1:])
	cached, ok := values[0].(string)
	if !ok {
		observability.ResultCacheLookups().WithLabelValues("miss").Inc()
		return generation, false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(cached), &entry); err != nil || entry.Generation != generation {
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable result cache entry")
		}
		observability.ResultCacheLookups().WithLabelValues("miss").Inc()
		return generation, false
	}

	if err := json.Unmarshal(entry.Payload, target); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable result cache entry")
		observability.ResultCacheLookups().WithLabelValues("miss").Inc()
		return generation, false
	}

	observability.ResultCacheLookups().WithLabelValues("hit").Inc()
	return generation, true
}

func joinGenerations(values []interface{}) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		counter, ok := value.(string)
		if !ok {
			counter = "0"
		}
		parts = append(parts, counter)
	}
	return strings.Join(parts, ".")
}

func (c *ResultCache) store(ctx context.Context, key, generation string, value interface{}) {
	if !c.enabled() || generation == "" {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	entry, err := json.Marshal(cacheEntry{Generation: generation, Payload: payload})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, entry, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store result cache")
	}
}

func (c *ResultCache) bump(ctx context.Context, generationKeys []string, keys []string) error {
	ttl := c.generationTTL()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, generationKey := range generationKeys {
			pipe.Incr(ctx, generationKey)
			if ttl > 0 {
				pipe.Expire(ctx, generationKey, ttl)
			}
		}
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

// Invalidate drops the cached result of one student along with the assessment statistics.
func (c *ResultCache) Invalidate(ctx context.Context, assessmentID, studentID uint) {
	if !c.enabled() {
		return
	}

	err := c.bump(ctx,
		[]string{detailedGenerationKey(assessmentID, studentID), statisticsGenerationKey(assessmentID)},
		[]string{detailedResultKey(assessmentID, studentID), statisticsKey(assessmentID)},
	)
	if err != nil {
		c.logger.Warn().Err(err).Uint("assessment_id", assessmentID).Uint("student_id", studentID).Msg("failed to invalidate result cache")
	}
}

// InvalidateAssessment drops every cached result and the statistics of an assessment.
func (c *ResultCache) InvalidateAssessment(ctx context.Context, assessmentID uint) {
	if !c.enabled() {
		return
	}

	keys := []string{statisticsKey(assessmentID)}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("results:detail:%d:*", assessmentID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Uint("assessment_id", assessmentID).Msg("failed to scan result cache")
	}

	err := c.bump(ctx, []string{assessmentGenerationKey(assessmentID), statisticsGenerationKey(assessmentID)}, keys)
	if err != nil {
		c.logger.Warn().Err(err).Uint("assessment_id", assessmentID).Msg("failed to invalidate result cache")
	}
}
