// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package predicate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/predicate"
)

/*
TestAllOf_Flattening verifies nil dropping and AND flattening.
*/
func TestAllOf_Flattening(t *testing.T) {
	a := predicate.Eq("title", "a")
	b := predicate.Eq("version", 1)

	assert.Nil(t, predicate.AllOf())
	assert.Nil(t, predicate.AllOf(nil, nil))
	assert.Equal(t, a, predicate.AllOf(nil, a))
	assert.Equal(t, predicate.And{a, b, a}, predicate.AllOf(predicate.And{a, b}, nil, a))

	assert.Nil(t, predicate.AnyOf(a, nil), "a nil branch matches everything")
	assert.Equal(t, predicate.Or{a, b}, predicate.AnyOf(a, b))
}

/*
TestEval covers in-memory evaluation against a typed record.
*/
func TestEval(t *testing.T) {
	owner := uuid.New()
	record := &entity.MediaObject{
		Header: entity.Header{
			ID:        uuid.New(),
			Version:   3,
			Owner:     owner,
			Visible:   true,
			Language:  "en-GB",
			Title:     "Harbour 50% sounds",
			Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Type: "audio",
	}

	tests := []struct {
		name string
		node predicate.Node
		want bool
	}{
		{name: "nil matches", node: nil, want: true},
		{name: "int eq", node: predicate.Eq(entity.FieldVersion, 3), want: true},
		{name: "int gt", node: predicate.Compare{Path: entity.FieldVersion, Op: predicate.OpGt, Value: 5}, want: false},
		{name: "int leq", node: predicate.Compare{Path: entity.FieldVersion, Op: predicate.OpLeq, Value: 3}, want: true},
		{name: "substring", node: predicate.Compare{Path: entity.FieldTitle, Op: predicate.OpIn, Value: "50%"}, want: true},
		{name: "prefix", node: predicate.Compare{Path: entity.FieldLanguage, Op: predicate.OpStartsWith, Value: "en"}, want: true},
		{name: "suffix", node: predicate.Compare{Path: entity.FieldTitle, Op: predicate.OpEndsWith, Value: "harbour"}, want: false},
		{name: "uuid neq", node: predicate.Compare{Path: entity.FieldOwner, Op: predicate.OpNeq, Value: owner}, want: false},
		{name: "bool", node: predicate.Eq(entity.FieldVisible, true), want: true},
		{name: "time before", node: predicate.Compare{Path: entity.FieldTimestamp, Op: predicate.OpLt, Value: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, want: true},
		{name: "media field", node: predicate.Eq(entity.FieldType, "audio"), want: true},
		{name: "null parent", node: predicate.Eq(entity.FieldParentVersion, 0), want: false},
		{
			name: "or of ands",
			node: predicate.Or{
				predicate.And{predicate.Eq(entity.FieldTitle, "a"), predicate.Eq(entity.FieldVersion, 3)},
				predicate.And{predicate.Eq(entity.FieldType, "audio")},
			},
			want: true,
		},
		{name: "empty or", node: predicate.Or{}, want: false},
		{name: "grant without func", node: predicate.Grant{Class: entity.ClassMedia}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := predicate.Eval(tt.node, record, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		_, err := predicate.Eval(predicate.Eq("nope", 1), record, nil)
		assert.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := predicate.Eval(predicate.Eq(entity.FieldTitle, 1), record, nil)
		assert.Error(t, err)
	})

	t.Run("grant func", func(t *testing.T) {
		grantee := uuid.New()
		got, err := predicate.Eval(predicate.Grant{Class: entity.ClassMedia, Grantees: []uuid.UUID{grantee}}, record,
			func(grant predicate.Grant, row predicate.Row) bool {
				id, _ := row.Value(entity.FieldID)
				return id == record.ID && grant.Grantees[0] == grantee
			})
		require.NoError(t, err)
		assert.True(t, got)
	})
}

/*
TestSQL_Render verifies that every value is bound and never written into the
expression text.
*/
func TestSQL_Render(t *testing.T) {
	columns := map[string]string{
		entity.FieldTitle:   "e.title",
		entity.FieldVersion: "e.version",
	}

	t.Run("or of ands", func(t *testing.T) {
		renderer := predicate.NewSQL(columns, nil)
		node := predicate.Or{
			predicate.And{
				predicate.Eq(entity.FieldTitle, "a"),
				predicate.Compare{Path: entity.FieldVersion, Op: predicate.OpGt, Value: 5},
			},
			predicate.And{predicate.Eq(entity.FieldTitle, "b")},
		}

		sql, err := renderer.Render(node)
		require.NoError(t, err)
		assert.Equal(t, "((e.title = $1 AND e.version > $2) OR (e.title = $3))", sql)
		assert.Equal(t, []any{"a", 5, "b"}, renderer.Args())
	})

	t.Run("like escaping", func(t *testing.T) {
		renderer := predicate.NewSQL(columns, nil)
		sql, err := renderer.Render(predicate.Compare{Path: entity.FieldTitle, Op: predicate.OpIn, Value: `50%_off\'`})
		require.NoError(t, err)
		assert.Equal(t, `e.title LIKE $1 ESCAPE '\'`, sql)
		assert.Equal(t, []any{`%50\%\_off\\'%`}, renderer.Args())
	})

	t.Run("placeholder offset", func(t *testing.T) {
		renderer := predicate.NewSQL(columns, nil, "existing")
		sql, err := renderer.Render(predicate.Eq(entity.FieldVersion, 1))
		require.NoError(t, err)
		assert.Equal(t, "e.version = $2", sql)
	})

	t.Run("nil is true", func(t *testing.T) {
		sql, err := predicate.NewSQL(columns, nil).Render(nil)
		require.NoError(t, err)
		assert.Equal(t, "TRUE", sql)
	})

	t.Run("unmapped field", func(t *testing.T) {
		_, err := predicate.NewSQL(columns, nil).Render(predicate.Eq("owner", uuid.New()))
		assert.Error(t, err)
	})

	t.Run("grant without renderer", func(t *testing.T) {
		_, err := predicate.NewSQL(columns, nil).Render(predicate.Grant{Class: entity.ClassMedia})
		assert.Error(t, err)
	})

	t.Run("grant renderer", func(t *testing.T) {
		renderer := predicate.NewSQL(columns, func(sql *predicate.SQL, grant predicate.Grant) (string, error) {
			return "granted(" + sql.Bind(len(grant.Grantees)) + ")", nil
		})
		sql, err := renderer.Render(predicate.And{predicate.Eq(entity.FieldTitle, "x"), predicate.Grant{Grantees: []uuid.UUID{uuid.New()}}})
		require.NoError(t, err)
		assert.Equal(t, "(e.title = $1 AND granted($2))", sql)
		assert.Equal(t, []any{"x", 1}, renderer.Args())
	})
}

/*
TestFormat renders trees for logs.
*/
func TestFormat(t *testing.T) {
	node := predicate.Or{
		predicate.And{predicate.Eq("title", "a"), predicate.Compare{Path: "version", Op: predicate.OpGt, Value: 5}},
		predicate.Eq("title", "b"),
	}
	assert.Equal(t, "(title eq a AND version gt 5) OR title eq b", predicate.Format(node))
	assert.Equal(t, "TRUE", predicate.Format(nil))
}
