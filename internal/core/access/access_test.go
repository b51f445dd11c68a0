// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/core/access"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// memoryRules is an in-memory [access.Repository].
type memoryRules struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*access.Rule
}

func newMemoryRules() *memoryRules {
	return &memoryRules{rules: map[uuid.UUID]*access.Rule{}}
}

func (m *memoryRules) HasGrant(_ context.Context, target access.Target, grantees []uuid.UUID, mode access.Mode) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rule := range m.rules {
		if rule.Target == target && rule.Grants(mode) && slices.Contains(grantees, rule.Grantee()) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRules) List(_ context.Context, target access.Target) ([]*access.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rules []*access.Rule
	for _, rule := range m.rules {
		if rule.Target == target {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (m *memoryRules) Find(_ context.Context, id uuid.UUID) (*access.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, apperr.NotFound("Rule")
	}
	return rule, nil
}

func (m *memoryRules) Create(_ context.Context, rule *access.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rules {
		if existing.Target == rule.Target && existing.Grantee() == rule.Grantee() {
			return apperr.Conflict("Resource already exists")
		}
	}
	rule.CreatedAt = time.Now()
	m.rules[rule.ID] = rule
	return nil
}

func (m *memoryRules) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return 0, nil
	}
	delete(m.rules, id)
	return 1, nil
}

// grantFunc evaluates Grant nodes against the in-memory rules.
func (m *memoryRules) grantFunc(grant predicate.Grant, row predicate.Row) bool {
	id, _ := row.Value(entity.FieldID)
	mode := access.ModeRead
	if grant.Write {
		mode = access.ModeWrite
	}
	ok, _ := m.HasGrant(context.Background(), access.Target{Class: grant.Class, EntityID: id.(uuid.UUID)}, grant.Grantees, mode)
	return ok
}

// staticOwners is an [access.OwnerLookup] over fixed headers.
type staticOwners map[uuid.UUID]*entity.Header

func (s staticOwners) LatestHeader(_ context.Context, _ entity.Class, id uuid.UUID) (*entity.Header, error) {
	header, ok := s[id]
	if !ok {
		return nil, apperr.NotFound("Entity")
	}
	return header, nil
}

func userRule(target access.Target, userID uuid.UUID, read, write bool) *access.Rule {
	return &access.Rule{ID: uuid.New(), Target: target, UserID: &userID, Read: read, Write: write}
}

func groupRule(target access.Target, groupID uuid.UUID, read, write bool) *access.Rule {
	return &access.Rule{ID: uuid.New(), Target: target, GroupID: &groupID, Read: read, Write: write}
}

/*
TestEvaluator_ACLSoundness verifies that reads need a grant, and that a group
grant behaves exactly like a direct user grant.
*/
func TestEvaluator_ACLSoundness(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.New()
	caller := identity.Identity{
		UserID: uuid.New(),
		Tier:   sec.TierAuthenticated,
		Groups: map[uuid.UUID]string{groupID: "oral-history"},
	}
	header := &entity.Header{ID: uuid.New(), Visible: true}
	target := access.Target{Class: entity.ClassMedia, EntityID: header.ID}

	t.Run("no_rule", func(t *testing.T) {
		evaluator := access.NewEvaluator(newMemoryRules())
		allowed, err := evaluator.CanRead(ctx, caller, entity.ClassMedia, header)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("user_rule", func(t *testing.T) {
		rules := newMemoryRules()
		require.NoError(t, rules.Create(ctx, userRule(target, caller.UserID, true, false)))

		allowed, err := access.NewEvaluator(rules).CanRead(ctx, caller, entity.ClassMedia, header)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("group_rule", func(t *testing.T) {
		rules := newMemoryRules()
		require.NoError(t, rules.Create(ctx, groupRule(target, groupID, true, false)))

		allowed, err := access.NewEvaluator(rules).CanRead(ctx, caller, entity.ClassMedia, header)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("rule_on_other_class", func(t *testing.T) {
		rules := newMemoryRules()
		other := access.Target{Class: entity.ClassSeries, EntityID: header.ID}
		require.NoError(t, rules.Create(ctx, userRule(other, caller.UserID, true, false)))

		allowed, err := access.NewEvaluator(rules).CanRead(ctx, caller, entity.ClassMedia, header)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("invisible_entity", func(t *testing.T) {
		rules := newMemoryRules()
		require.NoError(t, rules.Create(ctx, userRule(target, caller.UserID, true, true)))
		hidden := *header
		hidden.Visible = false

		evaluator := access.NewEvaluator(rules)
		readable, err := evaluator.CanRead(ctx, caller, entity.ClassMedia, &hidden)
		require.NoError(t, err)
		assert.False(t, readable)

		// Write eligibility ignores the visible flag
		writable, err := evaluator.CanWrite(ctx, caller, entity.ClassMedia, hidden.ID)
		require.NoError(t, err)
		assert.True(t, writable)
	})

	t.Run("editor_bypass", func(t *testing.T) {
		editor := identity.Identity{UserID: uuid.New(), Tier: sec.TierEditor}
		hidden := *header
		hidden.Visible = false

		allowed, err := access.NewEvaluator(newMemoryRules()).CanRead(ctx, editor, entity.ClassMedia, &hidden)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

/*
TestEvaluator_VisibilityPredicate evaluates the produced predicate in memory
and checks it agrees with the single-entity answers.
*/
func TestEvaluator_VisibilityPredicate(t *testing.T) {
	ctx := context.Background()
	rules := newMemoryRules()
	evaluator := access.NewEvaluator(rules)
	caller := identity.Identity{UserID: uuid.New(), Tier: sec.TierAuthenticated}

	granted := &entity.MediaObject{Header: entity.Header{ID: uuid.New(), Visible: true}}
	hidden := &entity.MediaObject{Header: entity.Header{ID: uuid.New(), Visible: false}}
	ungranted := &entity.MediaObject{Header: entity.Header{ID: uuid.New(), Visible: true}}

	for _, record := range []*entity.MediaObject{granted, hidden} {
		target := access.Target{Class: entity.ClassMedia, EntityID: record.ID}
		require.NoError(t, rules.Create(ctx, userRule(target, caller.UserID, true, false)))
	}

	node := evaluator.VisibilityPredicate(caller, entity.ClassMedia, access.ModeRead)
	assert.Equal(t, "visible eq true AND grant(media, read, 1 grantees)", predicate.Format(node))

	for _, record := range []*entity.MediaObject{granted, hidden, ungranted} {
		matched, err := predicate.Eval(node, record, rules.grantFunc)
		require.NoError(t, err)

		allowed, err := evaluator.CanRead(ctx, caller, entity.ClassMedia, &record.Header)
		require.NoError(t, err)

		assert.Equal(t, allowed, matched, record.ID.String())
	}

	writeNode := evaluator.VisibilityPredicate(caller, entity.ClassMedia, access.ModeWrite)
	matched, err := predicate.Eval(writeNode, granted, rules.grantFunc)
	require.NoError(t, err)
	assert.False(t, matched, "read-only grant must not satisfy write mode")

	editor := identity.Identity{UserID: uuid.New(), Tier: sec.TierAdministrator}
	assert.Nil(t, evaluator.VisibilityPredicate(editor, entity.ClassMedia, access.ModeRead))
}

/*
TestEvaluator_AuthorizeVersion covers the ownership guard for version creation.
*/
func TestEvaluator_AuthorizeVersion(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	latest := &entity.Header{ID: uuid.New(), Owner: owner, Visible: true}
	target := access.Target{Class: entity.ClassSeries, EntityID: latest.ID}

	rules := newMemoryRules()
	writerID := uuid.New()
	readerID := uuid.New()
	require.NoError(t, rules.Create(ctx, userRule(target, writerID, false, true)))
	require.NoError(t, rules.Create(ctx, userRule(target, readerID, true, false)))
	evaluator := access.NewEvaluator(rules)

	member := func(id uuid.UUID) identity.Identity {
		return identity.Identity{UserID: id, Tier: sec.TierAuthenticated}
	}
	editor := identity.Identity{UserID: uuid.New(), Tier: sec.TierEditor}

	tests := []struct {
		name   string
		caller identity.Identity
		latest *entity.Header
		owner  uuid.UUID
		code   string
	}{
		{"anonymous", identity.Identity{}, nil, uuid.Nil, "UNAUTHORIZED"},
		{"new_entity_self_owned", member(stranger), nil, stranger, ""},
		{"new_entity_foreign_owner", member(stranger), nil, owner, "FORBIDDEN"},
		{"new_entity_editor_assigns_owner", editor, nil, owner, ""},
		{"owner_appends", member(owner), latest, owner, ""},
		{"write_grant_appends", member(writerID), latest, owner, ""},
		{"read_grant_rejected", member(readerID), latest, owner, "FORBIDDEN"},
		{"stranger_rejected", member(stranger), latest, owner, "FORBIDDEN"},
		{"owner_cannot_transfer", member(owner), latest, stranger, "FORBIDDEN"},
		{"editor_transfers", editor, latest, stranger, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluator.AuthorizeVersion(ctx, tt.caller, entity.ClassSeries, tt.latest, tt.owner)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

/*
TestRule_Validate checks the exactly-one target and grantee invariants.
*/
func TestRule_Validate(t *testing.T) {
	userID := uuid.New()
	groupID := uuid.New()
	target := access.Target{Class: entity.ClassMedia, EntityID: uuid.New()}

	tests := []struct {
		name  string
		rule  access.Rule
		valid bool
	}{
		{"user_grantee", access.Rule{Target: target, UserID: &userID, Read: true}, true},
		{"group_grantee", access.Rule{Target: target, GroupID: &groupID, Write: true}, true},
		{"both_grantees", access.Rule{Target: target, UserID: &userID, GroupID: &groupID, Read: true}, false},
		{"no_grantee", access.Rule{Target: target, Read: true}, false},
		{"no_permission", access.Rule{Target: target, UserID: &userID}, false},
		{"bad_class", access.Rule{Target: access.Target{Class: "book", EntityID: uuid.New()}, UserID: &userID, Read: true}, false},
		{"no_entity", access.Rule{Target: access.Target{Class: entity.ClassMedia}, UserID: &userID, Read: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
			}
		})
	}
}

/*
TestService_RuleAdministration verifies who may grant and revoke rules.
*/
func TestService_RuleAdministration(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	header := &entity.Header{ID: uuid.New(), Owner: owner}
	target := access.Target{Class: entity.ClassMedia, EntityID: header.ID}

	rules := newMemoryRules()
	service := access.NewService(rules, staticOwners{header.ID: header}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ownerIdentity := identity.Identity{UserID: owner, Tier: sec.TierAuthenticated}
	stranger := identity.Identity{UserID: uuid.New(), Tier: sec.TierAuthenticated}
	granteeID := uuid.New()

	// Strangers cannot grant
	err := service.Grant(ctx, stranger, userRule(target, stranger.UserID, true, true))
	assert.True(t, apperr.HasCode(err, "FORBIDDEN"))

	// Owners can
	rule := &access.Rule{Target: target, UserID: &granteeID, Read: true}
	require.NoError(t, service.Grant(ctx, ownerIdentity, rule))
	assert.NotEqual(t, uuid.Nil, rule.ID)

	// A second rule for the same grantee conflicts
	err = service.Grant(ctx, ownerIdentity, &access.Rule{Target: target, UserID: &granteeID, Write: true})
	assert.True(t, apperr.HasCode(err, "CONFLICT"))

	listed, err := service.ListRules(ctx, ownerIdentity, target)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// Unknown entities are reported as missing
	_, err = service.ListRules(ctx, ownerIdentity, access.Target{Class: entity.ClassMedia, EntityID: uuid.New()})
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))

	assert.True(t, apperr.HasCode(service.Revoke(ctx, stranger, rule.ID), "FORBIDDEN"))
	require.NoError(t, service.Revoke(ctx, ownerIdentity, rule.ID))
	assert.True(t, apperr.HasCode(service.Revoke(ctx, ownerIdentity, rule.ID), "NOT_FOUND"))
}

/*
TestGrantSQL verifies that grant nodes render as a parameterized EXISTS.
*/
func TestGrantSQL(t *testing.T) {
	grantee := uuid.New()
	renderer := predicate.NewSQL(map[string]string{entity.FieldVisible: "e.visible"}, access.GrantSQL("e.id"))

	node := predicate.AllOf(
		predicate.Eq(entity.FieldVisible, true),
		predicate.Grant{Class: entity.ClassSeries, Grantees: []uuid.UUID{grantee}},
	)

	sql, err := renderer.Render(node)
	require.NoError(t, err)
	assert.Equal(t,
		"(e.visible = $1 AND EXISTS (SELECT 1 FROM archive.accessrule r WHERE r.seriesid = e.id AND (r.userid = ANY($2::uuid[]) OR r.groupid = ANY($2::uuid[])) AND r.readaccess))",
		sql,
	)
	assert.Equal(t, []any{true, []string{grantee.String()}}, renderer.Args())

	empty, err := predicate.NewSQL(nil, access.GrantSQL("e.id")).Render(predicate.Grant{Class: entity.ClassMedia})
	require.NoError(t, err)
	assert.Equal(t, "FALSE", empty)
}
