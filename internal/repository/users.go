package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/kv"
	"github.com/calendar-todo/backend/internal/model"
)

const typeUsers = "users"

// UsersRepository stores accounts and maintains a global index on the
// lowercased email so login can resolve an email to an id in one hop.
type UsersRepository struct {
	*Repository[*model.User]
	log zerolog.Logger
}

// NewUsersRepository constructs the users repository.
func NewUsersRepository(store kv.Store, keys kv.Keys, log zerolog.Logger) *UsersRepository {
	codec := userCodec{log: log.With().Str("entity", typeUsers).Logger()}
	index := emailIndexer{keys: keys}
	return &UsersRepository{
		Repository: New[*model.User](store, keys, typeUsers, codec, index, log),
		log:        log.With().Str("entity", typeUsers).Logger(),
	}
}

func (r *UsersRepository) emailKey(email string) string {
	return r.Keys().Index(typeUsers, "email", normalizeEmail(email))
}

// FindByEmail resolves an email through the index. A stale index entry
// pointing at a record whose email no longer matches yields (nil, nil) and
// a warning; Reconcile re-asserts the correct membership.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ids, err := r.Store().ZRange(ctx, r.emailKey(email), 0, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve email index")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	u, err := r.FindByID(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	if normalizeEmail(u.Email) != normalizeEmail(email) {
		r.log.Warn().Str("id", u.ID).Msg("stale email index entry")
		return nil, nil
	}
	return u, nil
}

// ExistsByEmail reports whether any account uses the email.
func (r *UsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailIndexer maintains {prefix}:users:index:email:{email} sets. Each set
// holds the ids registered under that email; a well-behaved system keeps
// it at one member.
type emailIndexer struct {
	keys kv.Keys
}

func (x emailIndexer) key(email string) string {
	return x.keys.Index(typeUsers, "email", normalizeEmail(email))
}

func (x emailIndexer) OnCreate(b kv.Batch, u *model.User) {
	b.ZAdd(x.key(u.Email), float64(u.CreatedAt.UnixMilli()), u.ID)
}

func (x emailIndexer) OnUpdate(b kv.Batch, prev, next *model.User) {
	if normalizeEmail(prev.Email) != normalizeEmail(next.Email) {
		b.ZRem(x.key(prev.Email), prev.ID)
		b.ZAdd(x.key(next.Email), float64(next.CreatedAt.UnixMilli()), next.ID)
	}
}

func (x emailIndexer) OnDelete(b kv.Batch, u *model.User) {
	b.ZRem(x.key(u.Email), u.ID)
}

type userCodec struct {
	log zerolog.Logger
}

func (c userCodec) Encode(u *model.User) (map[string]string, error) {
	return map[string]string{
		"id":            u.ID,
		"email":         u.Email,
		"username":      u.Username,
		"passwordHash":  u.PasswordHash,
		"profileImage":  u.ProfileImage,
		"emailVerified": encodeBool(u.EmailVerified),
		"isActive":      encodeBool(u.IsActive),
		"createdAt":     encodeTime(u.CreatedAt),
		"updatedAt":     encodeTime(u.UpdatedAt),
	}, nil
}

func (c userCodec) Decode(fields map[string]string) (*model.User, error) {
	id := fields["id"]
	if id == "" {
		return nil, errors.New("record has no id")
	}
	f := fieldReader{fields: fields, log: c.log, id: id}

	u := &model.User{
		Email:         f.str("email", ""),
		Username:      f.str("username", ""),
		PasswordHash:  f.str("passwordHash", ""),
		ProfileImage:  f.str("profileImage", ""),
		EmailVerified: f.boolean("emailVerified", false),
		IsActive:      f.boolean("isActive", true),
	}
	u.ID = id
	u.CreatedAt = f.timestamp("createdAt")
	u.UpdatedAt = f.timestamp("updatedAt")
	return u, nil
}
