package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

const typeTodos = "todos"

// defaultCategoryID is substituted when a stored record has no category.
const defaultCategoryID = "default"

// TodosRepository stores todos with three owner-scoped indexes: by
// category, by completion state, and a date index scored by due date.
//
// The date index is scored in epoch seconds while the list keys are scored
// in epoch milliseconds; calendar range queries must use second bounds.
type TodosRepository struct {
	*OwnedRepository[*model.Todo]
}

// NewTodosRepository constructs the todos repository.
func NewTodosRepository(store kv.Store, keys kv.Keys, log zerolog.Logger) *TodosRepository {
	codec := todoCodec{log: log.With().Str("entity", typeTodos).Logger()}
	index := todoIndexer{keys: keys}
	return &TodosRepository{
		OwnedRepository: NewOwned[*model.Todo](store, keys, typeTodos, codec, index, log),
	}
}

// FindByOwnerAndCategory returns the owner's todos in one category,
// newest-first.
func (r *TodosRepository) FindByOwnerAndCategory(ctx context.Context, ownerID, categoryID string) ([]*model.Todo, error) {
	key := r.Keys().OwnerIndex(typeTodos, ownerID, "category", categoryID)
	ids, err := r.Store().ZRevRange(ctx, key, 0, -1)
	if err != nil {
		return nil, errors.Wrap(err, "list todos by category")
	}
	return r.FindByIDs(ctx, ids)
}

// FindByOwnerAndCompleted returns the owner's todos filtered by completion
// state, newest-first.
func (r *TodosRepository) FindByOwnerAndCompleted(ctx context.Context, ownerID string, completed bool) ([]*model.Todo, error) {
	key := r.Keys().OwnerIndex(typeTodos, ownerID, "completed", encodeBool(completed))
	ids, err := r.Store().ZRevRange(ctx, key, 0, -1)
	if err != nil {
		return nil, errors.Wrap(err, "list todos by completion")
	}
	return r.FindByIDs(ctx, ids)
}

// FindDueBetween returns the owner's todos due within [from, to],
// earliest-first.
func (r *TodosRepository) FindDueBetween(ctx context.Context, ownerID string, from, to time.Time) ([]*model.Todo, error) {
	key := r.dueKey(ownerID)
	ids, err := r.Store().ZRangeByScore(ctx, key, dueScore(from), dueScore(to))
	if err != nil {
		return nil, errors.Wrap(err, "list todos by due date")
	}
	return r.FindByIDs(ctx, ids)
}

// CountByOwnerAndCompleted returns how many of the owner's todos are in
// the given completion state.
func (r *TodosRepository) CountByOwnerAndCompleted(ctx context.Context, ownerID string, completed bool) (int64, error) {
	key := r.Keys().OwnerIndex(typeTodos, ownerID, "completed", encodeBool(completed))
	n, err := r.Store().ZCard(ctx, key)
	if err != nil {
		return 0, errors.Wrap(err, "count todos by completion")
	}
	return n, nil
}

// MoveCategoryForOwner reassigns every todo in fromCategory to toCategory
// and returns how many moved.
func (r *TodosRepository) MoveCategoryForOwner(ctx context.Context, ownerID, fromCategory, toCategory string) (int, error) {
	todos, err := r.FindByOwnerAndCategory(ctx, ownerID, fromCategory)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, t := range todos {
		if _, err := r.Update(ctx, t.ID, func(next *model.Todo) {
			next.CategoryID = toCategory
		}); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (r *TodosRepository) dueKey(ownerID string) string {
	return r.Keys().OwnerIndex(typeTodos, ownerID, "due", "all")
}

// dueScore converts a due date to its index score in epoch seconds.
func dueScore(t time.Time) float64 {
	return float64(t.Unix())
}

// todoIndexer maintains the category, completed, and due-date sets for one
// owner. Category and completed sets are scored by creation time so their
// reverse ranges stay newest-first.
type todoIndexer struct {
	keys kv.Keys
}

func (x todoIndexer) categoryKey(t *model.Todo) string {
	return x.keys.OwnerIndex(typeTodos, t.UserID, "category", t.CategoryID)
}

func (x todoIndexer) completedKey(t *model.Todo) string {
	return x.keys.OwnerIndex(typeTodos, t.UserID, "completed", encodeBool(t.Completed))
}

func (x todoIndexer) dueKey(t *model.Todo) string {
	return x.keys.OwnerIndex(typeTodos, t.UserID, "due", "all")
}

func (x todoIndexer) OnCreate(b kv.Batch, t *model.Todo) {
	created := float64(t.CreatedAt.UnixMilli())
	b.ZAdd(x.categoryKey(t), created, t.ID)
	b.ZAdd(x.completedKey(t), created, t.ID)
	b.ZAdd(x.dueKey(t), dueScore(t.DueDate), t.ID)
}

func (x todoIndexer) OnUpdate(b kv.Batch, prev, next *model.Todo) {
	created := float64(next.CreatedAt.UnixMilli())

	if prev.CategoryID != next.CategoryID || prev.UserID != next.UserID {
		b.ZRem(x.categoryKey(prev), prev.ID)
		b.ZAdd(x.categoryKey(next), created, next.ID)
	}
	if prev.Completed != next.Completed || prev.UserID != next.UserID {
		b.ZRem(x.completedKey(prev), prev.ID)
		b.ZAdd(x.completedKey(next), created, next.ID)
	}
	if !prev.DueDate.Equal(next.DueDate) || prev.UserID != next.UserID {
		if prev.UserID != next.UserID {
			b.ZRem(x.dueKey(prev), prev.ID)
		}
		// ZADD on the same member just updates the score.
		b.ZAdd(x.dueKey(next), dueScore(next.DueDate), next.ID)
	}
}

func (x todoIndexer) OnDelete(b kv.Batch, t *model.Todo) {
	b.ZRem(x.categoryKey(t), t.ID)
	b.ZRem(x.completedKey(t), t.ID)
	b.ZRem(x.dueKey(t), t.ID)
}

type todoCodec struct {
	log zerolog.Logger
}

func (c todoCodec) Encode(t *model.Todo) (map[string]string, error) {
	return map[string]string{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"completed":   encodeBool(t.Completed),
		"priority":    string(t.Priority),
		"categoryId":  t.CategoryID,
		"todoType":    string(t.TodoType),
		"dueDate":     encodeTime(t.DueDate),
		"userId":      t.UserID,
		"createdAt":   encodeTime(t.CreatedAt),
		"updatedAt":   encodeTime(t.UpdatedAt),
	}, nil
}

func (c todoCodec) Decode(fields map[string]string) (*model.Todo, error) {
	id := fields["id"]
	if id == "" {
		return nil, errors.New("record has no id")
	}
	f := fieldReader{fields: fields, log: c.log, id: id}

	t := &model.Todo{
		Title:       f.str("title", ""),
		Description: f.str("description", ""),
		Completed:   f.boolean("completed", false),
		Priority:    model.Priority(f.str("priority", string(model.PriorityMedium))),
		CategoryID:  f.str("categoryId", defaultCategoryID),
		TodoType:    model.TodoType(f.str("todoType", string(model.TodoTypeEvent))),
		UserID:      f.str("userId", ""),
	}
	t.ID = id
	t.DueDate = f.timestamp("dueDate")
	t.CreatedAt = f.timestamp("createdAt")
	t.UpdatedAt = f.timestamp("updatedAt")

	switch t.Priority {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		f.warn("priority", string(t.Priority), "unknown priority")
		t.Priority = model.PriorityMedium
	}
	switch t.TodoType {
	case model.TodoTypeEvent, model.TodoTypeTask:
	default:
		f.warn("todoType", string(t.TodoType), "unknown todo type")
		t.TodoType = model.TodoTypeEvent
	}

	return t, nil
}
