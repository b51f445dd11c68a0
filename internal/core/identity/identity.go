// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity resolves callers into the identity every core operation
receives explicitly.

# Core Responsibility

  - Accounts: [User] with a global [sec.Tier] and group memberships.
  - Groups: [Group] with two reserved names ("admin", "public") whose
    semantics are fixed.
  - Resolution: turns transport credentials (bearer subject, name/password,
    nothing at all) into an [Identity].
*/
package identity

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/platform/sec"
)

// # Reserved Groups

const (
	// GroupAdmin members are resolved at the administrator tier.
	GroupAdmin = "admin"

	// GroupPublic implicitly contains every caller, including anonymous ones.
	GroupPublic = "public"
)

// # Domain Entities

// User represents an archive account.
type User struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Tier         sec.Tier             `json:"tier"`
	Groups       map[uuid.UUID]string `json:"groups"`
	PasswordHash string               `json:"-"` // bcrypt, salt embedded
	CreatedAt    time.Time            `json:"created_at"`
}

// Group is a named set of users that access rules can target.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the resolved caller passed into every core operation.
type Identity struct {
	// UserID is uuid.Nil for anonymous callers.
	UserID uuid.UUID            `json:"user_id"`
	Name   string               `json:"name,omitempty"`
	Tier   sec.Tier             `json:"tier"`
	Groups map[uuid.UUID]string `json:"groups"`
}

// IsAnonymous reports whether the caller is not signed in.
func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}

// Grantees returns every id an access rule may name to apply to this caller:
// the user id (if any) followed by the group ids in a stable order.
func (i Identity) Grantees() []uuid.UUID {
	grantees := make([]uuid.UUID, 0, len(i.Groups)+1)
	if !i.IsAnonymous() {
		grantees = append(grantees, i.UserID)
	}

	groupIDs := make([]uuid.UUID, 0, len(i.Groups))
	for id := range i.Groups {
		groupIDs = append(groupIDs, id)
	}
	slices.SortFunc(groupIDs, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	return append(grantees, groupIDs...)
}

// InGroup reports whether the caller is a member of a group with the given name.
func (i Identity) InGroup(name string) bool {
	for _, groupName := range i.Groups {
		if groupName == name {
			return true
		}
	}
	return false
}

// # Field Identifiers

const (
	FieldName     = "name"
	FieldTier     = "tier"
	FieldPassword = "password"
	FieldGroup    = "group"
)
