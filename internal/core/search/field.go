// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import "github.com/taibuivan/archivum/internal/core/predicate"

// # Field Types

// Type determines how a raw value is coerced and which operators apply.
type Type string

const (
	TypeUUID Type = "uuid"
	TypeInt  Type = "int"
	TypeStr  Type = "str"
	TypeTime Type = "time"
	TypeLang Type = "lang"
)

// operators lists the comparison operators each [Type] accepts.
var operators = map[Type][]predicate.Op{
	TypeUUID: {predicate.OpEq, predicate.OpNeq},
	TypeInt:  {predicate.OpEq, predicate.OpNeq, predicate.OpLt, predicate.OpGt, predicate.OpLeq, predicate.OpGeq},
	TypeStr:  {predicate.OpEq, predicate.OpNeq, predicate.OpIn, predicate.OpStartsWith, predicate.OpEndsWith},
	TypeTime: {predicate.OpEq, predicate.OpNeq, predicate.OpLt, predicate.OpGt, predicate.OpLeq, predicate.OpGeq},
	TypeLang: {predicate.OpEq, predicate.OpNeq, predicate.OpIn, predicate.OpStartsWith},
}

// Supports reports whether op may be applied to values of type t.
func (t Type) Supports(op predicate.Op) bool {
	for _, allowed := range operators[t] {
		if allowed == op {
			return true
		}
	}
	return false
}

// Field describes one searchable public field.
type Field struct {
	Type Type
	// Path is the internal field path the predicate compares against.
	Path string
}

// AllowList maps public field names to their type and internal path.
// Names missing from the list are rejected by [Compile].
type AllowList map[string]Field
