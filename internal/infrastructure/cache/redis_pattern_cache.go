package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Constants for Redis cache configuration
const (
	defaultScanBatchSize = 100
)

// patternEnvelope is the JSON shape stored in Redis. The aggregate keeps
// its fields unexported, so caching goes through this envelope and
// pattern.Restore on the way back.
type patternEnvelope struct {
	ID             uuid.UUID             `json:"id"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Version        int                   `json:"version"`
	SignatureHash  string                `json:"signature_hash"`
	Normalized     string                `json:"normalized"`
	Keywords       []string              `json:"keywords,omitempty"`
	Type           pattern.PatternType   `json:"type"`
	Status         pattern.PatternStatus `json:"status"`
	Origin         pattern.Origin        `json:"origin"`
	TemplateBody   string                `json:"template_body"`
	Confidence     float64               `json:"confidence"`
	AutoExecutable bool                  `json:"auto_executable"`
	TriggerText    string                `json:"trigger_text"`
	TimesMatched   int64                 `json:"times_matched"`
	TimesAccepted  int64                 `json:"times_accepted"`
	TimesModified  int64                 `json:"times_modified"`
	TimesRejected  int64                 `json:"times_rejected"`
	LastMatchedAt  *time.Time            `json:"last_matched_at,omitempty"`
	LastFeedbackAt *time.Time            `json:"last_feedback_at,omitempty"`
	AtFloorSince   *time.Time            `json:"at_floor_since,omitempty"`
	CreatedBy      uuid.UUID             `json:"created_by"`
	Notes          string                `json:"notes,omitempty"`
}

func envelopeFromPattern(p *pattern.Pattern) patternEnvelope {
	sig := p.Signature()
	return patternEnvelope{
		ID:             p.ID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.GetVersion(),
		SignatureHash:  sig.Hash,
		Normalized:     sig.Normalized,
		Keywords:       sig.Keywords,
		Type:           p.Type(),
		Status:         p.Status(),
		Origin:         p.Origin(),
		TemplateBody:   p.Template().Body(),
		Confidence:     p.Confidence(),
		AutoExecutable: p.AutoExecutable(),
		TriggerText:    p.TriggerText(),
		TimesMatched:   p.TimesMatched(),
		TimesAccepted:  p.TimesAccepted(),
		TimesModified:  p.TimesModified(),
		TimesRejected:  p.TimesRejected(),
		LastMatchedAt:  p.LastMatchedAt(),
		LastFeedbackAt: p.LastFeedbackAt(),
		AtFloorSince:   p.AtFloorSince(),
		CreatedBy:      p.CreatedBy(),
		Notes:          p.Notes(),
	}
}

func (e patternEnvelope) toPattern() (*pattern.Pattern, error) {
	template, derr := pattern.NewResponseTemplate(e.TemplateBody)
	if derr != nil {
		return nil, derr
	}

	root := shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt},
		Version:    e.Version,
	}
	return pattern.Restore(
		root,
		pattern.Signature{Hash: e.SignatureHash, Normalized: e.Normalized, Keywords: e.Keywords},
		e.Type, e.Status, e.Origin,
		template,
		e.Confidence, e.AutoExecutable, e.TriggerText,
		e.TimesMatched, e.TimesAccepted, e.TimesModified, e.TimesRejected,
		e.LastMatchedAt, e.LastFeedbackAt, e.AtFloorSince,
		e.CreatedBy, e.Notes,
	), nil
}

// RedisPatternCache implements pattern.Cache using Redis
type RedisPatternCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     pattern.CacheConfig
	logger     *zap.Logger
}

// RedisPatternCacheOption is a functional option for configuring the cache
type RedisPatternCacheOption func(*RedisPatternCache)

// WithCacheConfig sets the cache configuration
func WithCacheConfig(config pattern.CacheConfig) RedisPatternCacheOption {
	return func(c *RedisPatternCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisPatternCacheOption {
	return func(c *RedisPatternCache) {
		c.logger = logger
	}
}

// NewRedisPatternCache creates a new Redis-based pattern cache
func NewRedisPatternCache(cfg RedisConfig, opts ...RedisPatternCacheOption) (*RedisPatternCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisPatternCache{
		client:     client,
		ownsClient: true, // We created this client, so we own it
		config:     pattern.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisPatternCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisPatternCacheWithClient(client *redis.Client, opts ...RedisPatternCacheOption) *RedisPatternCache {
	cache := &RedisPatternCache{
		client:     client,
		ownsClient: false, // Client is shared, don't close it
		config:     pattern.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// patternCacheKey generates the cache key for a signature hash
func (c *RedisPatternCache) patternCacheKey(hash string) string {
	return fmt.Sprintf("pls:pattern:sig:%s", hash)
}

// Get retrieves a pattern from cache by signature hash
func (c *RedisPatternCache) Get(ctx context.Context, hash string) (*pattern.Pattern, error) {
	cacheKey := c.patternCacheKey(hash)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		// Cache miss
		c.logger.Debug("Cache miss for pattern", zap.String("signature_hash", hash))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get pattern from cache",
			zap.String("signature_hash", hash),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get pattern from cache: %w", err)
	}

	var envelope patternEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logger.Error("Failed to unmarshal cached pattern",
			zap.String("signature_hash", hash),
			zap.Error(err))
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal pattern: %w", err)
	}

	p, derr := envelope.toPattern()
	if derr != nil {
		c.logger.Error("Cached pattern failed domain restore",
			zap.String("signature_hash", hash),
			zap.Error(derr))
		_ = c.client.Del(ctx, cacheKey)
		return nil, nil
	}

	c.logger.Debug("Cache hit for pattern", zap.String("signature_hash", hash))
	return p, nil
}

// Set stores a pattern in cache keyed by its signature hash
func (c *RedisPatternCache) Set(ctx context.Context, p *pattern.Pattern, ttl time.Duration) error {
	if p == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.config.PatternTTL
	}

	hash := p.Signature().Hash
	cacheKey := c.patternCacheKey(hash)

	data, err := json.Marshal(envelopeFromPattern(p))
	if err != nil {
		c.logger.Error("Failed to marshal pattern",
			zap.String("signature_hash", hash),
			zap.Error(err))
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set pattern in cache",
			zap.String("signature_hash", hash),
			zap.Error(err))
		return fmt.Errorf("failed to set pattern in cache: %w", err)
	}

	c.logger.Debug("Cached pattern",
		zap.String("signature_hash", hash),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a pattern from cache
func (c *RedisPatternCache) Delete(ctx context.Context, hash string) error {
	cacheKey := c.patternCacheKey(hash)

	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Error("Failed to delete pattern from cache",
			zap.String("signature_hash", hash),
			zap.Error(err))
		return fmt.Errorf("failed to delete pattern from cache: %w", err)
	}

	c.logger.Debug("Deleted pattern from cache", zap.String("signature_hash", hash))
	return nil
}

// InvalidateAll removes all cached patterns
func (c *RedisPatternCache) InvalidateAll(ctx context.Context) error {
	// Use SCAN to find all pattern keys to avoid blocking Redis with KEYS command
	var cursor uint64
	var deletedCount int64

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, "pls:pattern:*", defaultScanBatchSize).Result()
		if err != nil {
			c.logger.Error("Failed to scan pattern cache keys", zap.Error(err))
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Failed to delete pattern cache keys", zap.Error(err))
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Invalidated all pattern cache",
		zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases any resources held by the cache
func (c *RedisPatternCache) Close() error {
	// Only close client if we own it
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisPatternCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisPatternCache implements pattern.Cache
var _ pattern.Cache = (*RedisPatternCache)(nil)
