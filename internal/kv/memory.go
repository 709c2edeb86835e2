package kv

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store used by tests. It models the same command
// surface and the same batch semantics as the Redis implementation:
// batched commands run in submission order, each reports its own result,
// and a failing command does not undo the ones before it.
//
// FailKey makes every command touching the given key fail, which is how
// tests exercise partial-batch behavior. Mem is not used in production
// code paths.
type Mem struct {
	mu      sync.Mutex
	strings map[string]memString
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64
	failing map[string]error

	// Now is the clock used for TTL expiry; replaceable in tests.
	Now func() time.Time
}

type memString struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{
		strings: make(map[string]memString),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
		failing: make(map[string]error),
		Now:     time.Now,
	}
}

// FailKey makes all subsequent commands on key fail with err.
// Passing a nil err clears the failure.
func (m *Mem) FailKey(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failing, key)
		return
	}
	m.failing[key] = err
}

func (m *Mem) keyErr(key string) error {
	return m.failing[key]
}

func (m *Mem) Ping(context.Context) error { return nil }
func (m *Mem) Close() error               { return nil }

func (m *Mem) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return "", false, err
	}
	s, ok := m.strings[key]
	if !ok {
		return "", false, nil
	}
	if !s.expiresAt.IsZero() && m.Now().After(s.expiresAt) {
		delete(m.strings, key)
		return "", false, nil
	}
	return s.value, true, nil
}

func (m *Mem) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return err
	}
	s := memString{value: value}
	if ttl > 0 {
		s.expiresAt = m.Now().Add(ttl)
	}
	m.strings[key] = s
	return nil
}

func (m *Mem) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if err := m.keyErr(key); err != nil {
			return n, err
		}
		n += m.deleteKey(key)
	}
	return n, nil
}

func (m *Mem) deleteKey(key string) int64 {
	var n int64
	if _, ok := m.strings[key]; ok {
		delete(m.strings, key)
		n++
	}
	if _, ok := m.hashes[key]; ok {
		delete(m.hashes, key)
		n++
	}
	if _, ok := m.zsets[key]; ok {
		delete(m.zsets, key)
		n++
	}
	return n
}

func (m *Mem) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return false, err
	}
	if _, ok := m.hashes[key]; ok {
		return true, nil
	}
	if _, ok := m.zsets[key]; ok {
		return true, nil
	}
	_, ok := m.strings[key]
	return ok, nil
}

func (m *Mem) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *Mem) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return err
	}
	m.hset(key, fields)
	return nil
}

func (m *Mem) hset(key string, fields map[string]string) {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
}

func (m *Mem) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return err
	}
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	if len(m.hashes[key]) == 0 {
		delete(m.hashes, key)
	}
	return nil
}

func (m *Mem) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return err
	}
	m.zadd(key, score, member)
	return nil
}

func (m *Mem) zadd(key string, score float64, member string) int64 {
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	_, existed := z[member]
	z[member] = score
	if existed {
		return 0
	}
	return 1
}

func (m *Mem) ZRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return err
	}
	m.zrem(key, members...)
	return nil
}

func (m *Mem) zrem(key string, members ...string) int64 {
	var n int64
	for _, member := range members {
		if _, ok := m.zsets[key][member]; ok {
			delete(m.zsets[key], member)
			n++
		}
	}
	if len(m.zsets[key]) == 0 {
		delete(m.zsets, key)
	}
	return n
}

// sortedMembers returns zset members ascending by (score, member).
func (m *Mem) sortedMembers(key string) []string {
	z := m.zsets[key]
	members := make([]string, 0, len(z))
	for member := range z {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z[members[i]], z[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})
	return members
}

// rangeBounds resolves redis-style inclusive start/stop indexes, where
// negative values count from the end.
func rangeBounds(n int64, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *Mem) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return nil, err
	}
	members := m.sortedMembers(key)
	lo, hi, ok := rangeBounds(int64(len(members)), start, stop)
	if !ok {
		return nil, nil
	}
	return append([]string(nil), members[lo:hi+1]...), nil
}

func (m *Mem) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return nil, err
	}
	members := m.sortedMembers(key)
	for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
		members[i], members[j] = members[j], members[i]
	}
	lo, hi, ok := rangeBounds(int64(len(members)), start, stop)
	if !ok {
		return nil, nil
	}
	return append([]string(nil), members[lo:hi+1]...), nil
}

func (m *Mem) ZRangeByScore(_ context.Context, key string, min, max float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return nil, err
	}
	var out []string
	for _, member := range m.sortedMembers(key) {
		score := m.zsets[key][member]
		if score >= min && score <= max {
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *Mem) ZCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.keyErr(key); err != nil {
		return 0, err
	}
	return int64(len(m.zsets[key])), nil
}

func (m *Mem) Pipeline() Batch {
	return &memBatch{mem: m}
}

type memCmd struct {
	run func() Result
}

type memBatch struct {
	mem  *Mem
	cmds []memCmd
}

func (b *memBatch) HSet(key string, fields map[string]string) {
	copied := make(map[string]string, len(fields))
	for f, v := range fields {
		copied[f] = v
	}
	b.cmds = append(b.cmds, memCmd{run: func() Result {
		if err := b.mem.keyErr(key); err != nil {
			return Result{Err: err}
		}
		b.mem.hset(key, copied)
		return Result{N: int64(len(copied))}
	}})
}

func (b *memBatch) HGetAll(key string) {
	b.cmds = append(b.cmds, memCmd{run: func() Result {
		if err := b.mem.keyErr(key); err != nil {
			return Result{Err: err}
		}
		out := make(map[string]string, len(b.mem.hashes[key]))
		for f, v := range b.mem.hashes[key] {
			out[f] = v
		}
		return Result{Hash: out}
	}})
}

func (b *memBatch) Del(keys ...string) {
	keys = append([]string(nil), keys...)
	b.cmds = append(b.cmds, memCmd{run: func() Result {
		var n int64
		for _, key := range keys {
			if err := b.mem.keyErr(key); err != nil {
				return Result{Err: err, N: n}
			}
			n += b.mem.deleteKey(key)
		}
		return Result{N: n}
	}})
}

func (b *memBatch) ZAdd(key string, score float64, member string) {
	b.cmds = append(b.cmds, memCmd{run: func() Result {
		if err := b.mem.keyErr(key); err != nil {
			return Result{Err: err}
		}
		return Result{N: b.mem.zadd(key, score, member)}
	}})
}

func (b *memBatch) ZRem(key string, members ...string) {
	members = append([]string(nil), members...)
	b.cmds = append(b.cmds, memCmd{run: func() Result {
		if err := b.mem.keyErr(key); err != nil {
			return Result{Err: err}
		}
		return Result{N: b.mem.zrem(key, members...)}
	}})
}

func (b *memBatch) Len() int {
	return len(b.cmds)
}

func (b *memBatch) Exec(context.Context) ([]Result, error) {
	b.mem.mu.Lock()
	defer b.mem.mu.Unlock()
	results := make([]Result, len(b.cmds))
	for i, cmd := range b.cmds {
		results[i] = cmd.run()
	}
	b.cmds = nil
	return results, nil
}
