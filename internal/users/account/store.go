// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/identity"
)

// # Directory Data Access

// Repository defines the data access contract for users, groups and memberships.
type Repository interface {

	/*
		FindUser retrieves an account with its group memberships.

		Returns:
		  - *identity.User: Hydrated account, Groups never nil
		  - error: NotFound if missing
	*/
	FindUser(context context.Context, id uuid.UUID) (*identity.User, error)

	// FindUserByName retrieves an account, memberships included, by its unique name.
	FindUserByName(context context.Context, name string) (*identity.User, error)

	// CreateUser persists a new account. Duplicate names surface as Conflict.
	CreateUser(context context.Context, user *identity.User) error

	// # Groups

	ListGroups(context context.Context) ([]*identity.Group, error)
	FindGroup(context context.Context, id uuid.UUID) (*identity.Group, error)
	FindGroupByName(context context.Context, name string) (*identity.Group, error)
	CreateGroup(context context.Context, group *identity.Group) error

	/*
		DeleteGroup removes a group and, by cascade, its memberships and access rules.

		Returns:
		  - int64: Rows removed (0 when nothing matched)
	*/
	DeleteGroup(context context.Context, id uuid.UUID) (int64, error)

	// # Memberships

	// AddMember links a user to a group. Re-adding an existing member is a no-op.
	AddMember(context context.Context, membership Membership) error

	// RemoveMember unlinks a user from a group and reports rows removed.
	RemoveMember(context context.Context, membership Membership) (int64, error)
}
