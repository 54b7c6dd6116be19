// Package rediscache caches a record source's people in Redis so repeated
// runs within the TTL skip the underlying scan.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

// Config holds Redis connection and cache settings.
type Config struct {
	URL      string        `yaml:"redis_url"`
	Password string        `yaml:"password"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

const (
	defaultKey = "birthday-greeting:people"
	defaultTTL = 6 * time.Hour
)

// Store is the subset of *redis.Client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Source serves people from Redis when present and otherwise loads them from
// the wrapped source and stores them. Redis failures fall back to the
// wrapped source.
type Source struct {
	next   core.RecordSource
	store  Store
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

var _ core.RecordSource = (*Source)(nil)

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Wrap returns next fronted by a Redis cache.
func Wrap(next core.RecordSource, store Store, cfg Config, logger *slog.Logger) *Source {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = defaultKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{next: next, store: store, key: key, ttl: ttl, logger: logger}
}

type cachedPerson struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func (s *Source) People(ctx context.Context) ([]core.Person, error) {
	raw, err := s.store.Get(ctx, s.key).Result()
	switch {
	case err == nil:
		people, decodeErr := decode(raw)
		if decodeErr == nil {
			s.logger.Debug("people served from cache", "key", s.key, "count", len(people))
			return people, nil
		}
		s.logger.Warn("discarding unreadable cache entry", "key", s.key, "error", decodeErr)
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("redis get failed; reading source directly", "key", s.key, "error", err)
	}

	people, err := s.next.People(ctx)
	if err != nil {
		return nil, err
	}
	// An empty set usually means the source was unavailable; keep it out of the cache.
	if len(people) == 0 {
		return people, nil
	}

	b, err := encode(people)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		s.logger.Warn("redis set failed", "key", s.key, "error", err)
	}
	return people, nil
}

func encode(people []core.Person) ([]byte, error) {
	out := make([]cachedPerson, 0, len(people))
	for _, p := range people {
		cp := cachedPerson{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
		if p.DateOfBirth != nil {
			cp.DateOfBirth = p.DateOfBirth.Format(time.DateOnly)
		}
		out = append(out, cp)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode people: %w", err)
	}
	return b, nil
}

func decode(raw string) ([]core.Person, error) {
	var in []cachedPerson
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("decode people: %w", err)
	}
	out := make([]core.Person, 0, len(in))
	for _, cp := range in {
		p := core.Person{FirstName: cp.FirstName, LastName: cp.LastName, Email: cp.Email}
		if cp.DateOfBirth != "" {
			t, err := time.Parse(time.DateOnly, cp.DateOfBirth)
			if err != nil {
				return nil, fmt.Errorf("decode date_of_birth %q: %w", cp.DateOfBirth, err)
			}
			p.DateOfBirth = &t
		}
		out = append(out, p)
	}
	return out, nil
}
