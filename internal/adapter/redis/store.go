package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/surveyqr/internal/domain"
)

const scanBatchSize = 100

// Store is the typed key-value adapter over a go-redis client.
//
// A failed ping at construction leaves the store unavailable for the rest of
// the process lifetime; every operation then returns domain.ErrStoreUnavailable
// without touching the network. Failures of individual round-trips are also
// reported as domain.ErrStoreUnavailable (joined with the transport error).
type Store struct {
	rdb       *goredis.Client
	available atomic.Bool
}

// NewStore pings the store once and records whether it is reachable.
func NewStore(ctx context.Context, rdb *goredis.Client) *Store {
	s := &Store{rdb: rdb}
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Could not connect to Redis, serving in unavailable mode", "addr", rdb.Options().Addr, "error", err)
		return s
	}
	s.available.Store(true)
	slog.Info("Connected to Redis", "addr", rdb.Options().Addr)
	return s
}

// Available reports whether the startup connectivity check succeeded.
func (s *Store) Available() bool {
	return s.available.Load()
}

// Ping checks connectivity right now, regardless of the startup result.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return domain.ErrStoreUnavailable
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func (s *Store) guard() error {
	if !s.Available() {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// IncrementCounter atomically increments name and returns the new value.
func (s *Store) IncrementCounter(ctx context.Context, name string) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	v, err := s.rdb.Incr(ctx, name).Result()
	if err != nil {
		return 0, unavailable("incr", err)
	}
	return v, nil
}

// ResetCounter removes the counter so the next increment returns 1.
func (s *Store) ResetCounter(ctx context.Context, name string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, name).Err(); err != nil {
		return unavailable("reset counter", err)
	}
	return nil
}

// WriteFields sets the given hash fields under key.
func (s *Store) WriteFields(ctx context.Context, key string, fields map[string]any) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return unavailable("hset", err)
	}
	return nil
}

// IncrementAndWrite increments counter and writes fields under keyPrefix
// followed by the new counter value, atomically. Returns the new value.
func (s *Store) IncrementAndWrite(ctx context.Context, counter, keyPrefix string, fields map[string]any) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, errors.New("increment and write: no fields")
	}

	// Sorted so the script arguments are deterministic.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	args := make([]any, 0, 1+2*len(fields))
	args = append(args, keyPrefix)
	for _, name := range names {
		args = append(args, name, fields[name])
	}

	id, err := incrementAndWriteScript.Run(ctx, s.rdb, []string{counter}, args...).Int64()
	if err != nil {
		return 0, unavailable("increment and write", err)
	}
	return id, nil
}

// IncrementFieldIfExists adds 1 to field of the hash at key. It reports
// false, and changes nothing, when the hash does not exist.
func (s *Store) IncrementFieldIfExists(ctx context.Context, key, field string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	v, err := incrementFieldIfExistsScript.Run(ctx, s.rdb, []string{key}, field).Int64()
	if err != nil {
		return false, unavailable("hincrby", err)
	}
	return v >= 0, nil
}

// ReadField returns a single hash field and whether it was present.
func (s *Store) ReadField(ctx context.Context, key, field string) (string, bool, error) {
	if err := s.guard(); err != nil {
		return "", false, err
	}
	v, err := s.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("hget", err)
	}
	return v, true, nil
}

// ReadFieldOfKeys reads the same field from several hashes in one pipeline.
// Keys without the field are absent from the result.
func (s *Store) ReadFieldOfKeys(ctx context.Context, field string, keys []string) (map[string]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*goredis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGet(ctx, key, field)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, unavailable("hget pipeline", err)
	}

	for i, cmd := range cmds {
		v, err := cmd.Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return nil, unavailable("hget pipeline", err)
		}
		values[keys[i]] = v
	}
	return values, nil
}

// ReadAllFields returns every field of the hash at key; empty when absent.
func (s *Store) ReadAllFields(ctx context.Context, key string) (map[string]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable("hgetall", err)
	}
	return fields, nil
}

// EnumerateKeys returns the distinct keys starting with prefix, sorted.
// Uses cursor-based SCAN so large keyspaces do not block the server.
func (s *Store) EnumerateKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, unavailable("scan", err)
		}
		for _, key := range keys {
			seen[key] = struct{}{}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// DeleteKeys removes all keys in one command. No-op when keys is empty.
func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}
