package kv

import "strings"

// Delimiter separates key segments. Segment values are escaped so two
// distinct (type, qualifiers) tuples can never produce the same key.
const Delimiter = ":"

var keyEscaper = strings.NewReplacer("%", "%25", Delimiter, "%3A")

// Keys builds namespaced store keys from a fixed deployment prefix.
//
// The key shapes are:
//
//	{prefix}:{type}:{id}
//	{prefix}:{type}:list
//	{prefix}:{type}:user:{ownerID}
//	{prefix}:{type}:index:{field}:{value}
//	{prefix}:{type}:user:{ownerID}:index:{field}:{value}
type Keys struct {
	prefix string
}

// NewKeys returns a Keys builder for the given deployment prefix.
func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

func (k Keys) join(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, k.prefix)
	for _, p := range parts {
		escaped = append(escaped, keyEscaper.Replace(p))
	}
	return strings.Join(escaped, Delimiter)
}

// Entity returns the hash key for one entity record.
func (k Keys) Entity(typ, id string) string {
	return k.join(typ, id)
}

// List returns the global sorted-set key for an entity type.
func (k Keys) List(typ string) string {
	return k.join(typ, "list")
}

// Owner returns the per-owner sorted-set key for an entity type.
func (k Keys) Owner(typ, ownerID string) string {
	return k.join(typ, "user", ownerID)
}

// Index returns the global secondary-index key for a (field, value) pair.
func (k Keys) Index(typ, field, value string) string {
	return k.join(typ, "index", field, value)
}

// OwnerIndex returns the owner-scoped secondary-index key.
func (k Keys) OwnerIndex(typ, ownerID, field, value string) string {
	return k.join(typ, "user", ownerID, "index", field, value)
}
