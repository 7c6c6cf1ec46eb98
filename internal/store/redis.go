package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis"
)

// RedisStore keeps each entry as a JSON value at its key and mirrors
// secondary indexes as Redis sets. Expiry uses native key TTLs, so index
// sets may hold stale members until PurgeExpired prunes them.
type RedisStore struct {
	client *redis.Client
	opts   options
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server.
func NewRedisStore(cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, opts: buildOptions(opts)}, nil
}

func (r *RedisStore) key(k string) string { return r.opts.prefix + "entry:" + k }

func (r *RedisStore) indexKey(index, value string) string {
	return r.opts.prefix + "idx:" + index + "=" + value
}

func (r *RedisStore) registry() string { return r.opts.prefix + "indexes" }

func (r *RedisStore) Get(key string) (Entry, error) {
	b, err := r.client.Get(r.key(key)).Bytes()
	if err == redis.Nil {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if e.Expired(r.opts.now()) {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *RedisStore) Set(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if !e.ExpiresAt.IsZero() {
		ttl = e.ExpiresAt.Sub(r.opts.now())
		if ttl <= 0 {
			return r.Delete(e.Key)
		}
	}
	pipe := r.client.TxPipeline()
	pipe.Set(r.key(e.Key), b, ttl)
	for name, value := range e.Indexes {
		idx := r.indexKey(name, value)
		pipe.SAdd(idx, e.Key)
		pipe.SAdd(r.registry(), idx)
	}
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("redis set %s: %w", e.Key, err)
	}
	return nil
}

func (r *RedisStore) Delete(key string) error {
	e, err := r.Get(key)
	if err != nil && err != ErrNotFound {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(r.key(key))
	for name, value := range e.Indexes {
		pipe.SRem(r.indexKey(name, value), key)
	}
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) ScanIndex(index, value string) ([]Entry, error) {
	idx := r.indexKey(index, value)
	keys, err := r.client.SMembers(idx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", idx, err)
	}
	sort.Strings(keys)
	var out []Entry
	for _, k := range keys {
		e, err := r.Get(k)
		if err == ErrNotFound {
			r.client.SRem(idx, k)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// PurgeExpired drops index members whose entries Redis already expired.
func (r *RedisStore) PurgeExpired() (int, error) {
	sets, err := r.client.SMembers(r.registry()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis purge: %w", err)
	}
	n := 0
	for _, idx := range sets {
		keys, err := r.client.SMembers(idx).Result()
		if err != nil {
			return n, fmt.Errorf("redis purge %s: %w", idx, err)
		}
		for _, k := range keys {
			exists, err := r.client.Exists(r.key(k)).Result()
			if err != nil {
				return n, err
			}
			if exists == 0 {
				r.client.SRem(idx, k)
				n++
			}
		}
	}
	return n, nil
}

func (r *RedisStore) Clear() error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(cursor, r.opts.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(keys...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *RedisStore) Close() error { return r.client.Close() }
