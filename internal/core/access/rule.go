// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access decides what a caller may see or change.

# Core Responsibility

  - Rules: [Rule] grants read and/or write on one entity to one user or group.
  - Evaluation: [Evaluator] answers single-entity questions and produces the
    visibility predicate applied to every listing.
  - Ownership: [Evaluator.AuthorizeVersion] guards version creation.
  - Administration: [Service] lets editors and owners manage rules.

Editors and administrators bypass rules entirely. Everyone else needs an
explicit grant, addressed either to their user id or to one of their groups.
*/
package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/platform/validate"
)

// # Access Modes

// Mode selects the permission being checked.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// # Domain Entities

// Target names the entity a rule applies to. Rules cover every version of the id.
type Target struct {
	Class    entity.Class `json:"class"`
	EntityID uuid.UUID    `json:"entity_id"`
}

// Rule grants permissions on one target to exactly one grantee.
type Rule struct {
	ID     uuid.UUID `json:"id"`
	Target Target    `json:"target"`

	// Exactly one of UserID and GroupID is set
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`

	Read      bool      `json:"read"`
	Write     bool      `json:"write"`
	CreatedAt time.Time `json:"created_at"`
}

// Grantee returns the user or group id the rule is addressed to.
func (r *Rule) Grantee() uuid.UUID {
	if r.UserID != nil {
		return *r.UserID
	}
	if r.GroupID != nil {
		return *r.GroupID
	}
	return uuid.Nil
}

// Grants reports whether the rule carries the permission for mode.
func (r *Rule) Grants(mode Mode) bool {
	if mode == ModeWrite {
		return r.Write
	}
	return r.Read
}

// Validate enforces the exactly-one target and exactly-one grantee shape.
func (r *Rule) Validate() error {
	validator := &validate.Validator{}
	validator.Custom(FieldClass, !r.Target.Class.IsValid(), "Must be media or series")
	validator.Custom(FieldEntityID, r.Target.EntityID == uuid.Nil, "This field is required")
	validator.Custom(FieldGrantee, (r.UserID == nil) == (r.GroupID == nil), "Exactly one of user_id and group_id must be set")
	validator.Custom(FieldGrantee, r.UserID != nil && *r.UserID == uuid.Nil, "Must be a valid UUID")
	validator.Custom(FieldGrantee, r.GroupID != nil && *r.GroupID == uuid.Nil, "Must be a valid UUID")
	validator.Custom(FieldPermission, !r.Read && !r.Write, "A rule must grant read or write")
	return validator.Err()
}

// # Field Identifiers

const (
	FieldClass      = "class"
	FieldEntityID   = "entity_id"
	FieldGrantee    = "grantee"
	FieldPermission = "permission"
)
