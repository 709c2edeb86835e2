// Package model defines the domain entities stored through the repository
// layer: users, todos, and per-user settings.
//
// Every entity embeds Meta, which carries the identity and timestamp fields
// the repositories manage.
package model

import "time"

// Meta holds the fields common to every stored entity. The repository layer
// assigns ID and CreatedAt on create and bumps UpdatedAt on every write;
// domain code treats ID and CreatedAt as immutable once set.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID returns the entity's id.
func (m *Meta) EntityID() string { return m.ID }

// CreatedTime returns the creation timestamp.
func (m *Meta) CreatedTime() time.Time { return m.CreatedAt }

// SetMeta stamps identity and timestamps. Used by the repository on create.
func (m *Meta) SetMeta(id string, createdAt, updatedAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
}

// SetUpdatedTime bumps the update timestamp. Used by the repository on update.
func (m *Meta) SetUpdatedTime(t time.Time) { m.UpdatedAt = t }
