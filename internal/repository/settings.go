package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

const typeSettings = "settings"

// SettingsRepository stores per-user settings documents. Each owner has at
// most one record; the owner list is how it is found.
type SettingsRepository struct {
	*OwnedRepository[*model.UserSettings]
}

// NewSettingsRepository constructs the settings repository.
func NewSettingsRepository(store kv.Store, keys kv.Keys, log zerolog.Logger) *SettingsRepository {
	codec := settingsCodec{log: log.With().Str("entity", typeSettings).Logger()}
	return &SettingsRepository{
		OwnedRepository: NewOwned[*model.UserSettings](store, keys, typeSettings, codec, NoIndex[*model.UserSettings]{}, log),
	}
}

// FindOneByOwner returns the owner's settings record, or nil.
func (r *SettingsRepository) FindOneByOwner(ctx context.Context, ownerID string) (*model.UserSettings, error) {
	ids, err := r.Store().ZRange(ctx, r.Keys().Owner(typeSettings, ownerID), 0, 0)
	if err != nil {
		return nil, errors.Wrap(err, "resolve settings for owner")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindByOwnerAndID(ctx, ownerID, ids[0])
}

// FindOrCreateByOwner returns the owner's settings, creating the default
// document on first access.
func (r *SettingsRepository) FindOrCreateByOwner(ctx context.Context, ownerID string) (*model.UserSettings, error) {
	existing, err := r.FindOneByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fresh := &model.UserSettings{
		UserID:   ownerID,
		Settings: model.DefaultSettings(r.now()),
	}
	return r.Create(ctx, fresh)
}

type settingsCodec struct {
	log zerolog.Logger
}

func (c settingsCodec) Encode(s *model.UserSettings) (map[string]string, error) {
	doc, err := encodeJSON(s.Settings)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"id":        s.ID,
		"userId":    s.UserID,
		"settings":  doc,
		"createdAt": encodeTime(s.CreatedAt),
		"updatedAt": encodeTime(s.UpdatedAt),
	}, nil
}

func (c settingsCodec) Decode(fields map[string]string) (*model.UserSettings, error) {
	id := fields["id"]
	if id == "" {
		return nil, errors.New("record has no id")
	}
	f := fieldReader{fields: fields, log: c.log, id: id}

	s := &model.UserSettings{
		UserID: f.str("userId", ""),
	}
	s.ID = id
	s.CreatedAt = f.timestamp("createdAt")
	s.UpdatedAt = f.timestamp("updatedAt")

	// An unreadable document falls back to defaults rather than failing
	// the read; the next save rewrites it.
	if !f.document("settings", &s.Settings) {
		s.Settings = model.DefaultSettings(s.CreatedAt)
	}
	return s, nil
}
