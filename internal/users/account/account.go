// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the directory behind the caller identity: user accounts,
groups and memberships.

It resolves transport credentials into an [identity.Identity] and administers
the groups that access rules can target.

# Core Responsibility

  - Resolution: bearer subjects, name/password pairs and anonymous callers.
  - Groups: creation, deletion and membership, with the reserved "admin" and
    "public" groups protected from tampering.
  - Accounts: administrator-driven user enrollment with bcrypt credentials.
*/
package account

import (
	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/platform/sec"
)

// # Inputs

// CreateUserInput holds the data required to enroll an account.
type CreateUserInput struct {
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Tier     sec.Tier `json:"tier"`
}

// CreateGroupInput names a new group.
type CreateGroupInput struct {
	Name string `json:"name"`
}

// Membership links one user to one group.
type Membership struct {
	GroupID uuid.UUID `json:"group_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// # Constraints

const (
	// MaxNameLength bounds user and group names.
	MaxNameLength = 100

	// MinPasswordLength is enforced when a password is supplied.
	MinPasswordLength = 8
)
