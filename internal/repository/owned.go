package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/kv"
)

// OwnedRepository adds per-owner operations on top of Repository. Owner
// list membership is maintained by chaining it in front of the type's own
// indexer, so every write path keeps the owner list current.
type OwnedRepository[T OwnedEntity] struct {
	*Repository[T]
}

// NewOwned constructs an OwnedRepository for the given entity type name.
func NewOwned[T OwnedEntity](store kv.Store, keys kv.Keys, typ string, codec Codec[T], index Indexer[T], log zerolog.Logger) *OwnedRepository[T] {
	chained := ownerListIndexer[T]{keys: keys, typ: typ, next: index}
	return &OwnedRepository[T]{Repository: New[T](store, keys, typ, codec, chained, log)}
}

func (r *OwnedRepository[T]) ownerKey(ownerID string) string {
	return r.keys.Owner(r.typ, ownerID)
}

// FindByOwner returns the owner's entities newest-first.
func (r *OwnedRepository[T]) FindByOwner(ctx context.Context, ownerID string) ([]T, error) {
	ids, err := r.store.ZRevRange(ctx, r.ownerKey(ownerID), 0, -1)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s for owner %s", r.typ, ownerID)
	}
	return r.FindByIDs(ctx, ids)
}

// FindByOwnerAndID loads one entity and verifies ownership. A match on id
// but not on owner yields (zero, nil), same as an absent id.
func (r *OwnedRepository[T]) FindByOwnerAndID(ctx context.Context, ownerID, id string) (T, error) {
	var zero T

	e, err := r.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if isZero(e) || e.OwnerID() != ownerID {
		return zero, nil
	}
	return e, nil
}

// CountByOwner returns the size of the owner's list.
func (r *OwnedRepository[T]) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	n, err := r.store.ZCard(ctx, r.ownerKey(ownerID))
	if err != nil {
		return 0, errors.Wrapf(err, "count %s for owner %s", r.typ, ownerID)
	}
	return n, nil
}

// FindByOwnerPaginated returns one newest-first page of the owner's list.
func (r *OwnedRepository[T]) FindByOwnerPaginated(ctx context.Context, ownerID string, page, limit int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	total, err := r.store.ZCard(ctx, r.ownerKey(ownerID))
	if err != nil {
		return Page[T]{}, errors.Wrapf(err, "count %s for owner %s", r.typ, ownerID)
	}

	start := int64(page-1) * int64(limit)
	stop := start + int64(limit) - 1
	ids, err := r.store.ZRevRange(ctx, r.ownerKey(ownerID), start, stop)
	if err != nil {
		return Page[T]{}, errors.Wrapf(err, "page %s for owner %s", r.typ, ownerID)
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

// FindByOwnerAndDateRange returns the owner's entities created within
// [from, to], oldest-first. The owner list is scored by creation time in
// milliseconds.
func (r *OwnedRepository[T]) FindByOwnerAndDateRange(ctx context.Context, ownerID string, from, to time.Time) ([]T, error) {
	ids, err := r.store.ZRangeByScore(ctx, r.ownerKey(ownerID),
		float64(from.UnixMilli()), float64(to.UnixMilli()))
	if err != nil {
		return nil, errors.Wrapf(err, "range %s for owner %s", r.typ, ownerID)
	}
	return r.FindByIDs(ctx, ids)
}

// DeleteAllByOwner removes every entity the owner has, plus the owner list
// itself, in one batch. It reports success if the owner had nothing to
// delete, or if at least one command in the batch succeeded; a fully
// failed batch reports false. Leftovers from a partial batch are repaired
// by Reconcile.
func (r *OwnedRepository[T]) DeleteAllByOwner(ctx context.Context, ownerID string) (bool, error) {
	ids, err := r.store.ZRange(ctx, r.ownerKey(ownerID), 0, -1)
	if err != nil {
		return false, errors.Wrapf(err, "list %s for owner %s", r.typ, ownerID)
	}
	if len(ids) == 0 {
		return true, nil
	}

	entities, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	byID := make(map[string]T, len(entities))
	for _, e := range entities {
		byID[e.EntityID()] = e
	}

	batch := r.store.Pipeline()
	for _, id := range ids {
		batch.Del(r.entityKey(id))
		batch.ZRem(r.listKey(), id)
		if e, ok := byID[id]; ok {
			r.index.OnDelete(batch, e)
		}
	}
	batch.Del(r.ownerKey(ownerID))

	results, err := batch.Exec(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "purge %s for owner %s", r.typ, ownerID)
	}

	anyOK := false
	for _, res := range results {
		if res.Err == nil {
			anyOK = true
		} else {
			r.log.Warn().Err(res.Err).Str("owner_id", ownerID).Msg("command failed during owner purge")
		}
	}
	return anyOK, nil
}

// ReconcileOwner re-asserts owner list membership for the owner's live
// records and drops ids whose hash has vanished.
func (r *OwnedRepository[T]) ReconcileOwner(ctx context.Context, ownerID string) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := r.store.ZRange(ctx, r.ownerKey(ownerID), 0, -1)
	if err != nil {
		return report, errors.Wrapf(err, "reconcile %s for owner %s", r.typ, ownerID)
	}
	report.Checked = len(ids)
	if len(ids) == 0 {
		return report, nil
	}

	entities, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return report, err
	}
	live := make(map[string]bool, len(entities))
	for _, e := range entities {
		live[e.EntityID()] = true
	}

	repair := r.store.Pipeline()
	for _, id := range ids {
		if !live[id] {
			repair.ZRem(r.ownerKey(ownerID), id)
			report.Orphans++
		}
	}
	for _, e := range entities {
		r.index.OnCreate(repair, e)
		report.Repaired++
	}

	if repair.Len() == 0 {
		return report, nil
	}
	if _, err := repair.Exec(ctx); err != nil {
		return report, errors.Wrapf(err, "reconcile %s repairs for owner %s", r.typ, ownerID)
	}
	return report, nil
}

// ownerListIndexer keeps the per-owner sorted set current and then
// delegates to the type's own indexer.
type ownerListIndexer[T OwnedEntity] struct {
	keys kv.Keys
	typ  string
	next Indexer[T]
}

func (x ownerListIndexer[T]) key(ownerID string) string {
	return x.keys.Owner(x.typ, ownerID)
}

func (x ownerListIndexer[T]) OnCreate(b kv.Batch, e T) {
	b.ZAdd(x.key(e.OwnerID()), float64(e.CreatedTime().UnixMilli()), e.EntityID())
	x.next.OnCreate(b, e)
}

func (x ownerListIndexer[T]) OnUpdate(b kv.Batch, prev, next T) {
	if prev.OwnerID() != next.OwnerID() {
		b.ZRem(x.key(prev.OwnerID()), prev.EntityID())
		b.ZAdd(x.key(next.OwnerID()), float64(next.CreatedTime().UnixMilli()), next.EntityID())
	}
	x.next.OnUpdate(b, prev, next)
}

func (x ownerListIndexer[T]) OnDelete(b kv.Batch, e T) {
	b.ZRem(x.key(e.OwnerID()), e.EntityID())
	x.next.OnDelete(b, e)
}

// isZero reports whether a generic entity value is its zero value. Entity
// types are pointers, so this is a nil check.
func isZero[T Entity](e T) bool {
	var zero T
	return any(e) == any(zero)
}
