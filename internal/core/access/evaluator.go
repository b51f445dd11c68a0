// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/platform/apperr"
)

// # Evaluator

// Evaluator answers access questions for a resolved caller. It has no side
// effects; every answer is a query over rules, the caller and the entity header.
type Evaluator struct {
	rules Repository
}

// NewEvaluator constructs an [Evaluator] over the rule store.
func NewEvaluator(rules Repository) *Evaluator {
	return &Evaluator{rules: rules}
}

/*
CanRead reports whether caller may read the version described by header.

Editors and administrators read everything. Others need the entity to be
visible and a read grant addressed to them or one of their groups.
*/
func (evaluator *Evaluator) CanRead(context context.Context, caller identity.Identity, class entity.Class, header *entity.Header) (bool, error) {
	if caller.Tier.Privileged() {
		return true, nil
	}
	if !header.Visible {
		return false, nil
	}
	return evaluator.rules.HasGrant(context, Target{Class: class, EntityID: header.ID}, caller.Grantees(), ModeRead)
}

/*
CanWrite reports whether caller holds write permission on the entity id.
Write eligibility does not depend on the visible flag.
*/
func (evaluator *Evaluator) CanWrite(context context.Context, caller identity.Identity, class entity.Class, id uuid.UUID) (bool, error) {
	if caller.Tier.Privileged() {
		return true, nil
	}
	return evaluator.rules.HasGrant(context, Target{Class: class, EntityID: id}, caller.Grantees(), ModeWrite)
}

/*
VisibilityPredicate restricts a listing of class to the rows caller may see
(ModeRead) or change (ModeWrite).

Returns:
  - predicate.Node: nil for privileged callers (no restriction)
*/
func (evaluator *Evaluator) VisibilityPredicate(caller identity.Identity, class entity.Class, mode Mode) predicate.Node {
	if caller.Tier.Privileged() {
		return nil
	}

	grant := predicate.Grant{Class: class, Grantees: caller.Grantees(), Write: mode == ModeWrite}
	if mode == ModeWrite {
		return grant
	}

	return predicate.AllOf(predicate.Eq(entity.FieldVisible, true), grant)
}

/*
AuthorizeVersion guards the creation of a new version.

Description:
  - New entity (latest is nil): any signed-in caller; the owner must be the
    caller unless the caller is an editor or above.
  - Existing entity: the caller must own the latest version or hold write
    permission. Changing the owner needs editor tier or above; it is rejected,
    never silently ignored.

Parameters:
  - context: context.Context
  - caller: identity.Identity
  - class: entity.Class
  - latest: *entity.Header (nil when the entity does not exist yet)
  - owner: uuid.UUID (owner requested for the new version)

Returns:
  - error: Unauthorized for anonymous callers, Forbidden on denial
*/
func (evaluator *Evaluator) AuthorizeVersion(context context.Context, caller identity.Identity, class entity.Class, latest *entity.Header, owner uuid.UUID) error {
	if caller.IsAnonymous() {
		return apperr.Unauthorized("Authentication required")
	}

	privileged := caller.Tier.Privileged()

	if latest == nil {
		if owner != caller.UserID && !privileged {
			return apperr.Forbidden("New entities must be owned by their creator")
		}
		return nil
	}

	if owner != latest.Owner && !privileged {
		return apperr.Forbidden("Only editors can change the owner")
	}

	if privileged || latest.Owner == caller.UserID {
		return nil
	}

	allowed, err := evaluator.CanWrite(context, caller, class, latest.ID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden("No write access to this entity")
	}

	return nil
}
