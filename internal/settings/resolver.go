// Package settings resolves runtime-rotatable configuration.  Each lookup
// checks the settings table first, then the process environment, then a
// built-in default.  The table is cached in Redis as one JSON document and
// dropped on every admin write so all instances pick up rotated credentials
// on their next call.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CacheKey is the Redis key holding the cached settings map.
const CacheKey = "settings:all"

// Store is the persistence the resolver reads and writes.
type Store interface {
	All(ctx context.Context) (map[string]json.RawMessage, error)
	UpsertMany(ctx context.Context, values map[string]json.RawMessage) error
}

type Resolver struct {
	store  Store
	rdb    *redis.Client
	ttl    time.Duration
	getenv func(string) string
}

// NewResolver builds a resolver.  rdb may be nil, in which case every lookup
// reads the table.
func NewResolver(store Store, rdb *redis.Client, ttl time.Duration) *Resolver {
	if store == nil {
		panic("settings: nil store")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Resolver{store: store, rdb: rdb, ttl: ttl, getenv: os.Getenv}
}

func (r *Resolver) load(ctx context.Context) map[string]json.RawMessage {
	if r.rdb != nil {
		raw, err := r.rdb.Get(ctx, CacheKey).Bytes()
		if err == nil {
			var m map[string]json.RawMessage
			if json.Unmarshal(raw, &m) == nil {
				return m
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("settings cache read failed")
		}
	}

	m, err := r.store.All(ctx)
	if err != nil {
		// Fall through to env and defaults rather than failing the caller.
		log.Error().Err(err).Msg("load settings")
		return map[string]json.RawMessage{}
	}
	if r.rdb != nil {
		if b, err := json.Marshal(m); err == nil {
			if err := r.rdb.Set(ctx, CacheKey, b, r.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("settings cache write failed")
			}
		}
	}
	return m
}

// scalar renders a stored JSON value as a string.  Empty strings and null
// count as unset.
func scalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return string(raw), true
	}
}

func (r *Resolver) lookup(m map[string]json.RawMessage, key string) string {
	if s, ok := scalar(m[key]); ok {
		return s
	}
	sp := known[key]
	if sp.env != "" {
		if v := r.getenv(sp.env); v != "" {
			return v
		}
	}
	return sp.def
}

// String resolves one key.
func (r *Resolver) String(ctx context.Context, key string) string {
	return r.lookup(r.load(ctx), key)
}

// Bool resolves key as a boolean; anything unparsable is false.
func (r *Resolver) Bool(ctx context.Context, key string) bool {
	b, _ := strconv.ParseBool(r.String(ctx, key))
	return b
}

// Int resolves key as an integer, returning def when unparsable.
func (r *Resolver) Int(ctx context.Context, key string, def int) int {
	n, err := strconv.Atoi(r.String(ctx, key))
	if err != nil {
		return def
	}
	return n
}

// Invalidate drops the cached map.
func (r *Resolver) Invalidate(ctx context.Context) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, CacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("settings cache invalidate failed")
	}
}

// Stored returns the rows saved by admins.  Secret values are masked unless
// reveal is set.
func (r *Resolver) Stored(ctx context.Context, reveal bool) (map[string]any, error) {
	m, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(m))
	for k, raw := range m {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			v = string(raw)
		}
		if !reveal && IsSecret(k) {
			if s, ok := v.(string); ok && s != "" {
				v = Mask(s)
			}
		}
		out[k] = v
	}
	return out, nil
}

// Mask hides all but the last four characters of s.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// Save upserts values and invalidates the cache.  SMTP_ENABLED and the
// strings "true"/"false" become booleans; SMTP_PORT becomes an integer.
// A secret posted back exactly as Stored masked it is left unchanged.
func (r *Resolver) Save(ctx context.Context, values map[string]any) error {
	masked, err := r.maskedSecrets(ctx, values)
	if err != nil {
		return err
	}
	enc := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok && s != "" && masked[k] == s {
			continue
		}
		v, err := coerce(k, v)
		if err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode setting %s: %w", k, err)
		}
		enc[k] = b
	}
	if len(enc) == 0 {
		return nil
	}
	if err := r.store.UpsertMany(ctx, enc); err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

// maskedSecrets returns the masked form of every stored secret named in
// values.
func (r *Resolver) maskedSecrets(ctx context.Context, values map[string]any) (map[string]string, error) {
	hasSecret := false
	for k := range values {
		if IsSecret(k) {
			hasSecret = true
			break
		}
	}
	if !hasSecret {
		return nil, nil
	}
	stored, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for k := range values {
		raw, ok := stored[k]
		if !ok || !IsSecret(k) {
			continue
		}
		var cur string
		if json.Unmarshal(raw, &cur) == nil && cur != "" {
			out[k] = Mask(cur)
		}
	}
	return out, nil
}

// ErrInvalidValue is returned by Save when a typed key gets an unusable
// value.
var ErrInvalidValue = errors.New("invalid setting value")

func coerce(key string, v any) (any, error) {
	switch key {
	case SMTPEnabled:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return x == "true", nil
		default:
			return false, nil
		}
	case SMTPPort:
		switch x := v.(type) {
		case float64:
			return int(x), nil
		case int:
			return x, nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, key)
			}
			return n, nil
		}
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, key)
	}
	if s, ok := v.(string); ok && (s == "true" || s == "false") {
		return s == "true", nil
	}
	return v, nil
}
