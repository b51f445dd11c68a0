// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package predicate

import (
	"fmt"
	"strconv"
	"strings"
)

// likeEscaper escapes the LIKE metacharacters of a bound pattern fragment.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GrantRenderer renders a [Grant] node for a specific schema. It must bind
// every value through the supplied [SQL] and return a boolean SQL expression.
type GrantRenderer func(sql *SQL, grant Grant) (string, error)

// SQL renders predicate trees into PostgreSQL boolean expressions.
//
// # Safety
//
// Values are never written into the expression text. Each one is appended to
// [SQL.Args] and referenced as a positional $n placeholder; only column names
// from the Columns allow-list reach the text.
type SQL struct {
	// Columns maps internal field paths to qualified column names.
	Columns map[string]string

	// Grant renders access-rule nodes. Nil makes Grant nodes an error.
	Grant GrantRenderer

	args []any
}

// NewSQL creates a renderer whose placeholders start after offset existing args.
func NewSQL(columns map[string]string, grant GrantRenderer, args ...any) *SQL {
	return &SQL{Columns: columns, Grant: grant, args: append([]any(nil), args...)}
}

// Bind appends value to the argument list and returns its placeholder.
func (s *SQL) Bind(value any) string {
	s.args = append(s.args, value)
	return "$" + strconv.Itoa(len(s.args))
}

// Args returns the bound arguments in placeholder order.
func (s *SQL) Args() []any {
	return s.args
}

// Render converts node into a boolean expression. A nil node renders as TRUE.
func (s *SQL) Render(node Node) (string, error) {
	switch typed := node.(type) {
	case nil:
		return "TRUE", nil
	case And:
		return s.combine(typed, " AND ")
	case Or:
		return s.combine(typed, " OR ")
	case Grant:
		if s.Grant == nil {
			return "", fmt.Errorf("predicate: no grant renderer configured")
		}
		return s.Grant(s, typed)
	case Compare:
		return s.compare(typed)
	}
	return "", fmt.Errorf("predicate: unsupported node %T", node)
}

func (s *SQL) combine(nodes []Node, separator string) (string, error) {
	if len(nodes) == 0 {
		if separator == " OR " {
			return "FALSE", nil
		}
		return "TRUE", nil
	}

	parts := make([]string, 0, len(nodes))
	for _, child := range nodes {
		part, err := s.Render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, separator) + ")", nil
}

func (s *SQL) compare(node Compare) (string, error) {
	column, ok := s.Columns[node.Path]
	if !ok {
		return "", fmt.Errorf("predicate: field %q has no column", node.Path)
	}

	switch node.Op {
	case OpEq:
		return column + " = " + s.Bind(node.Value), nil
	case OpNeq:
		return column + " <> " + s.Bind(node.Value), nil
	case OpLt:
		return column + " < " + s.Bind(node.Value), nil
	case OpGt:
		return column + " > " + s.Bind(node.Value), nil
	case OpLeq:
		return column + " <= " + s.Bind(node.Value), nil
	case OpGeq:
		return column + " >= " + s.Bind(node.Value), nil
	}

	text, ok := node.Value.(string)
	if !ok {
		return "", fmt.Errorf("predicate: operator %q needs a string value, got %T", node.Op, node.Value)
	}
	escaped := likeEscaper.Replace(text)

	switch node.Op {
	case OpIn:
		return column + ` LIKE ` + s.Bind("%"+escaped+"%") + ` ESCAPE '\'`, nil
	case OpStartsWith:
		return column + ` LIKE ` + s.Bind(escaped+"%") + ` ESCAPE '\'`, nil
	case OpEndsWith:
		return column + ` LIKE ` + s.Bind("%"+escaped) + ` ESCAPE '\'`, nil
	}

	return "", fmt.Errorf("predicate: unsupported operator %q", node.Op)
}
