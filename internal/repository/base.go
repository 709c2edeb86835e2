package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/kv"
)

// Repository provides the generic CRUD operations for one entity type.
// Lookups that find nothing return the zero value (nil for pointer types)
// with a nil error; errors mean the store itself failed.
type Repository[T Entity] struct {
	store kv.Store
	keys  kv.Keys
	typ   string
	codec Codec[T]
	index Indexer[T]
	log   zerolog.Logger

	now func() time.Time
}

// New constructs a Repository for the given entity type name.
func New[T Entity](store kv.Store, keys kv.Keys, typ string, codec Codec[T], index Indexer[T], log zerolog.Logger) *Repository[T] {
	return &Repository[T]{
		store: store,
		keys:  keys,
		typ:   typ,
		codec: codec,
		index: index,
		log:   log.With().Str("entity", typ).Logger(),
		now:   time.Now,
	}
}

// Store exposes the underlying store for type-specific queries.
func (r *Repository[T]) Store() kv.Store { return r.store }

// Keys exposes the key builder for type-specific queries.
func (r *Repository[T]) Keys() kv.Keys { return r.keys }

// Type returns the entity type name.
func (r *Repository[T]) Type() string { return r.typ }

func (r *Repository[T]) entityKey(id string) string { return r.keys.Entity(r.typ, id) }
func (r *Repository[T]) listKey() string            { return r.keys.List(r.typ) }

// FindByID loads one entity. An absent id yields (zero, nil).
func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T

	fields, err := r.store.HGetAll(ctx, r.entityKey(id))
	if err != nil {
		return zero, errors.Wrapf(err, "find %s %s", r.typ, id)
	}
	if len(fields) == 0 {
		return zero, nil
	}

	e, err := r.codec.Decode(fields)
	if err != nil {
		r.log.Warn().Err(err).Str("id", id).Msg("skipping undecodable record")
		return zero, nil
	}
	return e, nil
}

// FindAll loads every entity of the type in creation order. Ids in the
// list whose hash has vanished are skipped.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	ids, err := r.store.ZRange(ctx, r.listKey(), 0, -1)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s ids", r.typ)
	}
	return r.FindByIDs(ctx, ids)
}

// FindByIDs loads the given ids in one round trip, preserving order.
// Missing and unreadable records are dropped from the result.
func (r *Repository[T]) FindByIDs(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	batch := r.store.Pipeline()
	for _, id := range ids {
		batch.HGetAll(r.entityKey(id))
	}
	results, err := batch.Exec(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "bulk read %s", r.typ)
	}

	out := make([]T, 0, len(ids))
	for i, res := range results {
		if res.Err != nil {
			r.log.Warn().Err(res.Err).Str("id", ids[i]).Msg("skipping failed read in batch")
			continue
		}
		if len(res.Hash) == 0 {
			continue
		}
		e, err := r.codec.Decode(res.Hash)
		if err != nil {
			r.log.Warn().Err(err).Str("id", ids[i]).Msg("skipping undecodable record")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Create persists a new entity: its hash, its global list membership, and
// any secondary indexes, in one batch. A blank id gets a fresh UUID; a
// provided creation time is preserved, otherwise now is used.
func (r *Repository[T]) Create(ctx context.Context, e T) (T, error) {
	var zero T

	id := e.EntityID()
	if id == "" {
		id = uuid.NewString()
	}
	now := r.now()
	createdAt := e.CreatedTime()
	if createdAt.IsZero() {
		createdAt = now
	}
	e.SetMeta(id, createdAt, now)

	fields, err := r.codec.Encode(e)
	if err != nil {
		return zero, errors.Wrapf(err, "encode %s %s", r.typ, id)
	}

	batch := r.store.Pipeline()
	batch.HSet(r.entityKey(id), fields)
	batch.ZAdd(r.listKey(), float64(createdAt.UnixMilli()), id)
	r.index.OnCreate(batch, e)

	results, err := batch.Exec(ctx)
	if err != nil {
		return zero, errors.Wrapf(err, "create %s %s", r.typ, id)
	}
	if results[0].Err != nil {
		return zero, errors.Wrapf(results[0].Err, "create %s %s", r.typ, id)
	}
	r.warnPartial(results[1:], "create", id)

	return e, nil
}

// Update loads the entity, applies the mutation, bumps the update
// timestamp, and writes the new hash plus index adjustments in one batch.
// An absent id yields (zero, nil).
func (r *Repository[T]) Update(ctx context.Context, id string, apply func(T)) (T, error) {
	var zero T

	raw, err := r.store.HGetAll(ctx, r.entityKey(id))
	if err != nil {
		return zero, errors.Wrapf(err, "load %s %s for update", r.typ, id)
	}
	if len(raw) == 0 {
		return zero, nil
	}

	// Decode twice so the indexer can diff the previous state against
	// the mutated one.
	prev, err := r.codec.Decode(raw)
	if err != nil {
		return zero, errors.Wrapf(err, "decode %s %s", r.typ, id)
	}
	next, err := r.codec.Decode(raw)
	if err != nil {
		return zero, errors.Wrapf(err, "decode %s %s", r.typ, id)
	}

	apply(next)
	next.SetUpdatedTime(r.now())

	fields, err := r.codec.Encode(next)
	if err != nil {
		return zero, errors.Wrapf(err, "encode %s %s", r.typ, id)
	}

	batch := r.store.Pipeline()
	batch.HSet(r.entityKey(id), fields)
	r.index.OnUpdate(batch, prev, next)

	results, err := batch.Exec(ctx)
	if err != nil {
		return zero, errors.Wrapf(err, "update %s %s", r.typ, id)
	}
	if results[0].Err != nil {
		return zero, errors.Wrapf(results[0].Err, "update %s %s", r.typ, id)
	}
	r.warnPartial(results[1:], "update", id)

	return next, nil
}

// Delete removes the entity hash, its list membership, and its index
// memberships. It reports whether a record was actually removed; deleting
// an absent id is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	raw, err := r.store.HGetAll(ctx, r.entityKey(id))
	if err != nil {
		return false, errors.Wrapf(err, "load %s %s for delete", r.typ, id)
	}
	if len(raw) == 0 {
		return false, nil
	}

	batch := r.store.Pipeline()
	batch.Del(r.entityKey(id))
	batch.ZRem(r.listKey(), id)
	if e, err := r.codec.Decode(raw); err == nil {
		r.index.OnDelete(batch, e)
	}

	results, err := batch.Exec(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "delete %s %s", r.typ, id)
	}
	if results[0].Err != nil {
		return false, errors.Wrapf(results[0].Err, "delete %s %s", r.typ, id)
	}
	r.warnPartial(results[1:], "delete", id)

	return results[0].N > 0, nil
}

// Exists reports whether the entity hash is present.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.entityKey(id))
	if err != nil {
		return false, errors.Wrapf(err, "check %s %s", r.typ, id)
	}
	return ok, nil
}

// Count returns the number of entities of the type.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	n, err := r.store.ZCard(ctx, r.listKey())
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", r.typ)
	}
	return n, nil
}

// FindPaginated returns one newest-first page. Pages are 1-indexed; a page
// past the end yields an empty item slice, not an error.
func (r *Repository[T]) FindPaginated(ctx context.Context, page, limit int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	total, err := r.store.ZCard(ctx, r.listKey())
	if err != nil {
		return Page[T]{}, errors.Wrapf(err, "count %s", r.typ)
	}

	start := int64(page-1) * int64(limit)
	stop := start + int64(limit) - 1
	ids, err := r.store.ZRevRange(ctx, r.listKey(), start, stop)
	if err != nil {
		return Page[T]{}, errors.Wrapf(err, "page %s ids", r.typ)
	}

	items, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasNext: stop+1 < total,
		HasPrev: page > 1,
	}, nil
}

// Reconcile walks the global list, drops ids whose hash has vanished, and
// re-asserts list and index membership for the records that remain. ZADD
// and friends are idempotent, so re-asserting is safe.
func (r *Repository[T]) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := r.store.ZRange(ctx, r.listKey(), 0, -1)
	if err != nil {
		return report, errors.Wrapf(err, "reconcile %s", r.typ)
	}
	report.Checked = len(ids)
	if len(ids) == 0 {
		return report, nil
	}

	read := r.store.Pipeline()
	for _, id := range ids {
		read.HGetAll(r.entityKey(id))
	}
	results, err := read.Exec(ctx)
	if err != nil {
		return report, errors.Wrapf(err, "reconcile %s reads", r.typ)
	}

	repair := r.store.Pipeline()
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if len(res.Hash) == 0 {
			repair.ZRem(r.listKey(), ids[i])
			report.Orphans++
			continue
		}
		e, err := r.codec.Decode(res.Hash)
		if err != nil {
			continue
		}
		repair.ZAdd(r.listKey(), float64(e.CreatedTime().UnixMilli()), ids[i])
		r.index.OnCreate(repair, e)
		report.Repaired++
	}

	if repair.Len() == 0 {
		return report, nil
	}
	if _, err := repair.Exec(ctx); err != nil {
		return report, errors.Wrapf(err, "reconcile %s repairs", r.typ)
	}
	return report, nil
}

// warnPartial logs secondary-command failures from a write batch. The
// entity write already succeeded; index drift is left for Reconcile.
func (r *Repository[T]) warnPartial(results []kv.Result, op, id string) {
	for _, res := range results {
		if res.Err != nil {
			r.log.Warn().Err(res.Err).Str("op", op).Str("id", id).Msg("secondary command failed in batch")
		}
	}
}
