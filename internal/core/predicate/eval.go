// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package predicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row exposes record fields by internal path.
type Row interface {
	Value(path string) (any, bool)
}

// GrantFunc decides a [Grant] node for one row.
type GrantFunc func(grant Grant, row Row) bool

// Eval reports whether row satisfies node. Grant nodes are delegated to grant;
// a nil grant func denies them.
func Eval(node Node, row Row, grant GrantFunc) (bool, error) {
	switch typed := node.(type) {
	case nil:
		return true, nil

	case And:
		for _, child := range typed {
			ok, err := Eval(child, row, grant)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case Or:
		for _, child := range typed {
			ok, err := Eval(child, row, grant)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case Grant:
		return grant != nil && grant(typed, row), nil

	case Compare:
		actual, ok := row.Value(typed.Path)
		if !ok {
			return false, fmt.Errorf("predicate: unknown field %q", typed.Path)
		}
		return compare(actual, typed.Op, typed.Value)
	}

	return false, fmt.Errorf("predicate: unsupported node %T", node)
}

func compare(actual any, op Op, expected any) (bool, error) {
	// NULL only ever equals nothing
	if actual == nil {
		return false, nil
	}

	switch want := expected.(type) {
	case string:
		have, ok := actual.(string)
		if !ok {
			return false, mismatch(actual, expected)
		}
		switch op {
		case OpIn:
			return strings.Contains(have, want), nil
		case OpStartsWith:
			return strings.HasPrefix(have, want), nil
		case OpEndsWith:
			return strings.HasSuffix(have, want), nil
		}
		return ordered(strings.Compare(have, want), op)

	case int, int64:
		have, ok := toInt64(actual)
		if !ok {
			return false, mismatch(actual, expected)
		}
		wantInt, _ := toInt64(want)
		switch {
		case have < wantInt:
			return ordered(-1, op)
		case have > wantInt:
			return ordered(1, op)
		}
		return ordered(0, op)

	case time.Time:
		have, ok := actual.(time.Time)
		if !ok {
			return false, mismatch(actual, expected)
		}
		return ordered(have.Compare(want), op)

	case uuid.UUID:
		have, ok := actual.(uuid.UUID)
		if !ok {
			return false, mismatch(actual, expected)
		}
		return equality(have == want, op)

	case bool:
		have, ok := actual.(bool)
		if !ok {
			return false, mismatch(actual, expected)
		}
		return equality(have == want, op)
	}

	return false, fmt.Errorf("predicate: unsupported value type %T", expected)
}

func ordered(cmp int, op Op) (bool, error) {
	switch op {
	case OpEq:
		return cmp == 0, nil
	case OpNeq:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpLeq:
		return cmp <= 0, nil
	case OpGeq:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("predicate: operator %q not applicable", op)
}

func equality(equal bool, op Op) (bool, error) {
	switch op {
	case OpEq:
		return equal, nil
	case OpNeq:
		return !equal, nil
	}
	return false, fmt.Errorf("predicate: operator %q not applicable", op)
}

func toInt64(value any) (int64, bool) {
	switch typed := value.(type) {
	case int:
		return int64(typed), true
	case int64:
		return typed, true
	case int32:
		return int64(typed), true
	}
	return 0, false
}

func mismatch(actual, expected any) error {
	return fmt.Errorf("predicate: cannot compare %T with %T", actual, expected)
}
