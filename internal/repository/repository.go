// Package repository implements generic entity persistence over the kv
// store: one hash per entity, a global sorted set listing every id of a
// type, a per-owner sorted set for owned types, and optional secondary
// index sets maintained through an Indexer.
//
// Multi-key writes go through one pipeline batch. A batch is a latency
// optimization, not a transaction: commands run independently and a failed
// command never rolls back its neighbours. Index sets are therefore
// eventually consistent with the entity hashes; Reconcile repairs drift.
package repository

import (
	"time"

	"github.com/calendar-todo/backend/internal/kv"
)

// Entity is the contract every stored type satisfies through model.Meta.
// The repository assigns identity and timestamps via SetMeta on create and
// bumps the update timestamp via SetUpdatedTime on every write.
type Entity interface {
	EntityID() string
	CreatedTime() time.Time
	SetMeta(id string, createdAt, updatedAt time.Time)
	SetUpdatedTime(t time.Time)
}

// OwnedEntity is an Entity that belongs to exactly one user.
type OwnedEntity interface {
	Entity
	OwnerID() string
}

// Codec converts an entity to and from its stored hash form. Encode writes
// every field; Decode tolerates missing or malformed fields by substituting
// defaults so one corrupt field never makes a record unreadable.
type Codec[T Entity] interface {
	Encode(e T) (map[string]string, error)
	Decode(fields map[string]string) (T, error)
}

// Indexer queues the secondary-index commands that accompany each write.
// Implementations append to the same batch as the entity write so the
// whole mutation goes out in one round trip.
type Indexer[T Entity] interface {
	OnCreate(b kv.Batch, e T)
	OnUpdate(b kv.Batch, prev, next T)
	OnDelete(b kv.Batch, e T)
}

// NoIndex is the Indexer for types with no secondary indexes.
type NoIndex[T Entity] struct{}

func (NoIndex[T]) OnCreate(kv.Batch, T)    {}
func (NoIndex[T]) OnUpdate(kv.Batch, T, T) {}
func (NoIndex[T]) OnDelete(kv.Batch, T)    {}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// ReconcileReport summarizes one reconciliation pass over an entity type.
type ReconcileReport struct {
	Checked  int
	Orphans  int
	Repaired int
}
