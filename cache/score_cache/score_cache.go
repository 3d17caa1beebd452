package score_cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "consultai:score:"
	defaultTTL = 24 * time.Hour
)

// Score is the cached result of scoring one uploaded PDF.
type Score struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Compound  float64   `json:"compound"`
	Label     string    `json:"label"`
	Pages     int       `json:"pages"`
	Words     int       `json:"words"`
	Decrypted bool      `json:"decrypted"`
	ScoredAt  time.Time `json:"scored_at"`
}

// Cache stores scores by content digest. A nil *Cache is a disabled cache:
// every lookup misses and every store is dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Digest is the hex SHA-256 of the file bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, digest string) (Score, bool, error) {
	var s Score
	if c == nil {
		return s, false, nil
	}

	raw, err := c.client.Get(ctx, keyPrefix+digest).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, errors.Wrap(err, "get score")
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, false, errors.Wrap(err, "decode score")
	}
	return s, true, nil
}

func (c *Cache) Set(ctx context.Context, digest string, s Score) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return errors.Wrap(c.client.Set(ctx, keyPrefix+digest, raw, c.ttl).Err(), "set score")
}
