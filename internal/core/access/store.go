// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
)

// # Rule Data Access

// Repository defines the data access contract for access rules.
type Repository interface {

	/*
		HasGrant reports whether any rule on the target names one of grantees
		with the permission for mode.

		Parameters:
		  - context: context.Context
		  - target: Target
		  - grantees: []uuid.UUID (user id and group ids)
		  - mode: Mode

		Returns:
		  - bool: true when a matching rule exists
		  - error: Database failures
	*/
	HasGrant(context context.Context, target Target, grantees []uuid.UUID, mode Mode) (bool, error)

	// List returns every rule attached to target, oldest first.
	List(context context.Context, target Target) ([]*Rule, error)

	// Find retrieves a single rule. Missing rules surface as NotFound.
	Find(context context.Context, id uuid.UUID) (*Rule, error)

	// Create persists a rule. A second rule for the same target and grantee is a Conflict.
	Create(context context.Context, rule *Rule) error

	// Delete removes a rule and reports how many rows matched.
	Delete(context context.Context, id uuid.UUID) (int64, error)
}

// OwnerLookup exposes the latest version header of an entity, used to decide
// whether the caller owns it. Missing entities surface as NotFound.
type OwnerLookup interface {
	LatestHeader(context context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error)
}
