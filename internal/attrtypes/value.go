// Package attrtypes holds the types shared between the attribute engine's
// internal packages and its public surface, kept separate so the internal
// packages never need to import the root package they are composed into.
package attrtypes

import "github.com/cespare/xxhash/v2"

// ValueKind distinguishes the shape an attribute Value carries.
type ValueKind uint8

const (
	// Unspecified means no rule assigned this attribute at all.
	Unspecified ValueKind = iota
	True
	False
	Unset
	String
)

// Value is the resolved value of one attribute at one path.
type Value struct {
	Kind ValueKind
	Str  string // only meaningful when Kind == String
}

func (v Value) String() string {
	switch v.Kind {
	case True:
		return "true"
	case False:
		return "false"
	case Unset:
		return "unset"
	case String:
		return v.Str
	default:
		return "unspecified"
	}
}

// Assignment binds one attribute name to one value. NameHash is a
// precomputed 32-bit hash used to binary-search a Rule's sorted
// assignment list without repeated hashing.
type Assignment struct {
	Name     string
	NameHash uint32
	Value    Value
}

// NameHash computes the 32-bit hash used to key and sort assignments,
// built on xxhash rather than a hand-rolled polynomial hash.
func NameHash(name string) uint32 {
	return uint32(xxhash.Sum64String(name))
}

// NewAssignment builds an Assignment with its hash precomputed.
func NewAssignment(name string, v Value) Assignment {
	return Assignment{Name: name, NameHash: NameHash(name), Value: v}
}
