// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package predicate defines the filter tree shared by the search compiler, the
access evaluator and the storage adapters.

A tree is built from atomic [Compare] nodes, access [Grant] nodes and the
[And]/[Or] combinators. It never contains query text: adapters render it with
parameter binding (see [SQL]) or evaluate it in memory (see [Eval]).
*/
package predicate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
)

// # Operators

// Op is a comparison operator.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpLt         Op = "lt"
	OpGt         Op = "gt"
	OpLeq        Op = "leq"
	OpGeq        Op = "geq"
	OpIn         Op = "in" // substring match
	OpStartsWith Op = "startswith"
	OpEndsWith   Op = "endswith"
)

// IsValid reports whether o is a recognised [Op].
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNeq, OpLt, OpGt, OpLeq, OpGeq, OpIn, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

// # Nodes

// Node is any element of a predicate tree. A nil Node matches everything.
type Node interface {
	isNode()
}

// Compare is an atomic comparison of one field against a typed value.
type Compare struct {
	Path  string
	Op    Op
	Value any
}

// And matches when every child matches.
type And []Node

// Or matches when at least one child matches.
type Or []Node

// Grant matches records for which an access rule exists granting one of
// Grantees the requested permission on the record's id.
type Grant struct {
	Class    entity.Class
	Grantees []uuid.UUID
	Write    bool
}

func (Compare) isNode() {}
func (And) isNode()     {}
func (Or) isNode()      {}
func (Grant) isNode()   {}

// # Constructors

// Eq is shorthand for an equality [Compare].
func Eq(path string, value any) Compare {
	return Compare{Path: path, Op: OpEq, Value: value}
}

// AllOf combines nodes with AND, dropping nil entries and flattening nested ANDs.
// It returns nil when nothing is left and the sole node when only one remains.
func AllOf(nodes ...Node) Node {
	var flat And
	for _, node := range nodes {
		switch typed := node.(type) {
		case nil:
			continue
		case And:
			flat = append(flat, typed...)
		default:
			flat = append(flat, node)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return flat
}

// AnyOf combines nodes with OR. A nil entry matches everything, so it makes
// the whole disjunction nil.
func AnyOf(nodes ...Node) Node {
	var flat Or
	for _, node := range nodes {
		switch typed := node.(type) {
		case nil:
			return nil
		case Or:
			flat = append(flat, typed...)
		default:
			flat = append(flat, node)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return flat
}

// # Formatting

// Format renders a tree for logs and tests. The output is not query text.
func Format(node Node) string {
	switch typed := node.(type) {
	case nil:
		return "TRUE"
	case Compare:
		return fmt.Sprintf("%s %s %v", typed.Path, typed.Op, typed.Value)
	case Grant:
		mode := "read"
		if typed.Write {
			mode = "write"
		}
		return fmt.Sprintf("grant(%s, %s, %d grantees)", typed.Class, mode, len(typed.Grantees))
	case And:
		return join(typed, " AND ")
	case Or:
		return join(typed, " OR ")
	}
	return fmt.Sprintf("<%T>", node)
}

func join(nodes []Node, separator string) string {
	parts := make([]string, len(nodes))
	for i, child := range nodes {
		part := Format(child)
		switch child.(type) {
		case And, Or:
			part = "(" + part + ")"
		}
		parts[i] = part
	}
	return strings.Join(parts, separator)
}
