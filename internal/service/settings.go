package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/calendar-todo/backend/internal/errs"
	"github.com/calendar-todo/backend/internal/model"
	"github.com/calendar-todo/backend/internal/repository"
	"github.com/calendar-todo/backend/internal/server"
)

// SettingsService manages per-user settings and their categories. Category
// deletion reassigns the category's todos so none are orphaned.
type SettingsService struct {
	server *server.Server
	repos  *repository.Repositories
}

// NewSettingsService constructs the settings service.
func NewSettingsService(s *server.Server, repos *repository.Repositories) *SettingsService {
	return &SettingsService{
		server: s,
		repos:  repos,
	}
}

var errCategoryNotFound = errs.NewNotFoundError("Category not found.", false, nil)

// Get returns the user's settings, creating the defaults on first access.
func (s *SettingsService) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	return s.repos.Settings.FindOrCreateByOwner(ctx, userID)
}

// Update applies a partial settings update.
func (s *SettingsService) Update(ctx context.Context, userID string, patch model.SettingsPatch) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, current.ID, model.MergeSettings(current.Settings, patch))
}

// Reset replaces the user's settings with the defaults.
func (s *SettingsService) Reset(ctx context.Context, userID string) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, current.ID, model.DefaultSettings(time.Now()))
}

// AddCategory appends a category and makes it visible in the filter.
func (s *SettingsService) AddCategory(ctx context.Context, userID, name, color string) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Settings
	category := model.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now(),
		Order:     len(next.Categories),
	}
	next.Categories = append(next.Categories, category)
	if next.CategoryFilter == nil {
		next.CategoryFilter = map[string]bool{}
	}
	next.CategoryFilter[category.ID] = true

	return s.save(ctx, current.ID, next)
}

// UpdateCategory renames or recolors one category.
func (s *SettingsService) UpdateCategory(ctx context.Context, userID, categoryID string, name, color *string) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Settings
	found := false
	for i := range next.Categories {
		if next.Categories[i].ID != categoryID {
			continue
		}
		if name != nil {
			next.Categories[i].Name = *name
		}
		if color != nil {
			next.Categories[i].Color = *color
		}
		found = true
		break
	}
	if !found {
		return nil, errCategoryNotFound
	}

	return s.save(ctx, current.ID, next)
}

// DeleteCategory removes a category. Its todos move to replacementID, or
// to the first remaining category when none is given. The last category
// cannot be deleted.
func (s *SettingsService) DeleteCategory(ctx context.Context, userID, categoryID, replacementID string) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Settings
	if current.FindCategory(categoryID) == nil {
		return nil, errCategoryNotFound
	}
	if len(next.Categories) <= 1 {
		return nil, errs.NewBadRequestError("Cannot delete the last category.", false, nil, nil, nil)
	}

	kept := make([]model.Category, 0, len(next.Categories)-1)
	for _, c := range next.Categories {
		if c.ID != categoryID {
			kept = append(kept, c)
		}
	}
	next.Categories = kept
	delete(next.CategoryFilter, categoryID)

	if replacementID == "" {
		replacementID = kept[0].ID
	} else if current.FindCategory(replacementID) == nil || replacementID == categoryID {
		return nil, errCategoryNotFound
	}

	if _, err := s.repos.Todos.MoveCategoryForOwner(ctx, userID, categoryID, replacementID); err != nil {
		return nil, err
	}

	return s.save(ctx, current.ID, next)
}

// ReorderCategories applies a new ordering. ids must name every category
// exactly once.
func (s *SettingsService) ReorderCategories(ctx context.Context, userID string, ids []string) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := current.Settings
	if len(ids) != len(next.Categories) {
		return nil, errs.NewBadRequestError("Ordering must include every category.", false, nil, nil, nil)
	}

	byID := make(map[string]model.Category, len(next.Categories))
	for _, c := range next.Categories {
		byID[c.ID] = c
	}

	reordered := make([]model.Category, 0, len(ids))
	for i, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, errCategoryNotFound
		}
		c.Order = i
		reordered = append(reordered, c)
		delete(byID, id)
	}
	next.Categories = reordered

	return s.save(ctx, current.ID, next)
}

// SetCategoryFilter shows or hides one category in the calendar view.
func (s *SettingsService) SetCategoryFilter(ctx context.Context, userID, categoryID string, visible bool) (*model.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.FindCategory(categoryID) == nil {
		return nil, errCategoryNotFound
	}

	next := current.Settings
	if next.CategoryFilter == nil {
		next.CategoryFilter = map[string]bool{}
	}
	next.CategoryFilter[categoryID] = visible

	return s.save(ctx, current.ID, next)
}

// Import restores a previously exported document. The settings replace the
// user's current ones wholesale; the todos are recreated under fresh
// identities and the importing user's ownership. Todos referencing a
// category the imported settings do not contain land in the first one.
// Returns the stored settings and how many todos were created.
func (s *SettingsService) Import(ctx context.Context, userID string, settings model.Settings, todos []*model.Todo) (*model.UserSettings, int, error) {
	if len(settings.Categories) == 0 {
		return nil, 0, errs.NewBadRequestError("Import must contain at least one category.", true, nil, nil, nil)
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	if settings.CategoryFilter == nil {
		settings.CategoryFilter = map[string]bool{}
	}
	known := make(map[string]bool, len(settings.Categories))
	for _, c := range settings.Categories {
		known[c.ID] = true
		if _, ok := settings.CategoryFilter[c.ID]; !ok {
			settings.CategoryFilter[c.ID] = true
		}
	}

	updated, err := s.save(ctx, current.ID, settings)
	if err != nil {
		return nil, 0, err
	}

	created := 0
	for _, in := range todos {
		if in == nil || in.Title == "" {
			continue
		}
		todo := &model.Todo{
			Title:       in.Title,
			Description: in.Description,
			Completed:   in.Completed,
			Priority:    in.Priority,
			CategoryID:  in.CategoryID,
			TodoType:    in.TodoType,
			DueDate:     in.DueDate,
			UserID:      userID,
		}
		if !known[todo.CategoryID] {
			todo.CategoryID = settings.Categories[0].ID
		}
		todo.ApplyDefaults()

		if _, err := s.repos.Todos.Create(ctx, todo); err != nil {
			return nil, created, err
		}
		created++
	}

	return updated, created, nil
}

func (s *SettingsService) save(ctx context.Context, id string, settings model.Settings) (*model.UserSettings, error) {
	updated, err := s.repos.Settings.Update(ctx, id, func(us *model.UserSettings) {
		us.Settings = settings
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errs.NewNotFoundError("Settings not found.", false, nil)
	}
	return updated, nil
}
