package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeysShapes(t *testing.T) {
	k := NewKeys("caltodo")

	assert.Equal(t, "caltodo:todos:abc", k.Entity("todos", "abc"))
	assert.Equal(t, "caltodo:todos:list", k.List("todos"))
	assert.Equal(t, "caltodo:todos:user:u1", k.Owner("todos", "u1"))
	assert.Equal(t, "caltodo:users:index:email:a@b.c", k.Index("users", "email", "a@b.c"))
	assert.Equal(t, "caltodo:todos:user:u1:index:category:work", k.OwnerIndex("todos", "u1", "category", "work"))
}

func TestKeysEscapesDelimiter(t *testing.T) {
	k := NewKeys("caltodo")

	// A value containing the delimiter must not collide with a key built
	// from different segments.
	withColon := k.Index("users", "email", "a:b")
	split := k.OwnerIndex("users", "email", "a", "b")
	assert.NotEqual(t, withColon, split)
	assert.Equal(t, "caltodo:users:index:email:a%3Ab", withColon)

	// Escaping is unambiguous: a literal percent escapes too.
	assert.Equal(t, "caltodo:todos:a%253Ab", k.Entity("todos", "a%3Ab"))
}
