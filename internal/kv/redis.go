package kv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/calendar-todo/backend/internal/config"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis implements Store on top of redis/go-redis.
type Redis struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedis builds a Redis store from config.
//
// Failed commands are retried with a per-attempt backoff bounded between
// the configured floor (default 50ms) and cap (default 2s); the client
// adds jitter between those bounds. A
// READONLY reply from a demoted replica marks the connection bad, so the
// pool discards it and the next command dials fresh; the hook below logs
// when that happens.
//
// When a New Relic application is provided, redis commands are instrumented
// so they appear in distributed traces.
func NewRedis(cfg *config.RedisConfig, obs *config.ObservabilityConfig, log zerolog.Logger, nrApp *newrelic.Application) *Redis {
	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	cap := time.Duration(cfg.RetryBackoffCapMS) * time.Millisecond
	if cap <= 0 {
		cap = 2 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	opts := &redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      maxRetries,
		MinRetryBackoff: backoff,
		MaxRetryBackoff: cap,
	}

	client := redis.NewClient(opts)

	if nrApp != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	slowThreshold := time.Duration(0)
	if obs != nil {
		slowThreshold = obs.Logging.SlowCommandThreshold
	}
	client.AddHook(&observeHook{log: log, slowThreshold: slowThreshold})

	return &Redis{client: client, log: log}
}

// Client exposes the underlying go-redis client for integrations that need
// it directly (the job queue shares the same Redis).
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.client.HSet(ctx, key, fields).Err()
}

func (r *Redis) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.client.HDel(ctx, key, fields...).Err()
}

func (r *Redis) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (r *Redis) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.ZRem(ctx, key, args...).Err()
}

func (r *Redis) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRange(ctx, key, start, stop).Result()
}

func (r *Redis) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRevRange(ctx, key, start, stop).Result()
}

func (r *Redis) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	return r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(min, 'f', -1, 64),
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}).Result()
}

func (r *Redis) ZCard(ctx context.Context, key string) (int64, error) {
	return r.client.ZCard(ctx, key).Result()
}

func (r *Redis) Pipeline() Batch {
	return &redisBatch{pipe: r.client.Pipeline()}
}

// redisBatch queues commands on a go-redis pipeliner. The per-command
// contexts passed at queue time are unused; I/O happens in Exec.
type redisBatch struct {
	pipe redis.Pipeliner
	n    int
}

func (b *redisBatch) HSet(key string, fields map[string]string) {
	b.pipe.HSet(context.Background(), key, fields)
	b.n++
}

func (b *redisBatch) HGetAll(key string) {
	b.pipe.HGetAll(context.Background(), key)
	b.n++
}

func (b *redisBatch) Del(keys ...string) {
	b.pipe.Del(context.Background(), keys...)
	b.n++
}

func (b *redisBatch) ZAdd(key string, score float64, member string) {
	b.pipe.ZAdd(context.Background(), key, redis.Z{Score: score, Member: member})
	b.n++
}

func (b *redisBatch) ZRem(key string, members ...string) {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	b.pipe.ZRem(context.Background(), key, args...)
	b.n++
}

func (b *redisBatch) Len() int {
	return b.n
}

func (b *redisBatch) Exec(ctx context.Context) ([]Result, error) {
	cmds, execErr := b.pipe.Exec(ctx)

	// Exec reports the first command error, but command errors are already
	// carried per command below. Only a transport failure, where no outcome
	// is known, aborts the whole call.
	if execErr != nil && !isCommandError(execErr) {
		return nil, fmt.Errorf("pipeline exec: %w", execErr)
	}

	results := make([]Result, len(cmds))
	for i, cmd := range cmds {
		res := Result{Err: cmd.Err()}
		switch c := cmd.(type) {
		case *redis.IntCmd:
			res.N = c.Val()
		case *redis.MapStringStringCmd:
			res.Hash = c.Val()
		}
		results[i] = res
	}
	return results, nil
}

// isCommandError reports whether err is a reply from the server (command
// rejected) rather than a connectivity failure.
func isCommandError(err error) bool {
	var re redis.Error
	return errors.As(err, &re) && !errors.Is(err, redis.Nil)
}

// IsUnavailable reports whether err indicates the store could not be
// reached at all, as opposed to a command-level failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// observeHook logs commands that exceed the slow-command threshold.
type observeHook struct {
	log           zerolog.Logger
	slowThreshold time.Duration
}

func (h *observeHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *observeHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), start, err)
		return err
	}
}

func (h *observeHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", start, err)
		return err
	}
}

func (h *observeHook) observe(name string, start time.Time, err error) {
	elapsed := time.Since(start)

	if err != nil && isReadonlyError(err) {
		h.log.Warn().
			Str("command", name).
			Msg("redis replica is read-only, connection will be re-established")
		return
	}

	if h.slowThreshold > 0 && elapsed >= h.slowThreshold {
		h.log.Warn().
			Str("command", name).
			Dur("elapsed", elapsed).
			Msg("slow redis command")
	}
}

func isReadonlyError(err error) bool {
	var re redis.Error
	if !errors.As(err, &re) {
		return false
	}
	return len(re.Error()) >= 8 && re.Error()[:8] == "READONLY"
}
