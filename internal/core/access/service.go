// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	idgen "github.com/taibuivan/archivum/pkg/uuid"
)

// # Service Layer

// Service administers access rules. Editors, administrators and the owner of
// the target's latest version may manage its rules.
type Service struct {
	rules  Repository
	owners OwnerLookup
	logger *slog.Logger
}

// NewService constructs a new rule administration [Service].
func NewService(rules Repository, owners OwnerLookup, logger *slog.Logger) *Service {
	return &Service{rules: rules, owners: owners, logger: logger}
}

/*
ListRules returns the rules attached to target.

Returns:
  - []*Rule: Rules, oldest first
  - error: NotFound when the entity does not exist, Forbidden when the caller may not manage it
*/
func (service *Service) ListRules(context context.Context, caller identity.Identity, target Target) ([]*Rule, error) {
	if err := service.authorize(context, caller, target); err != nil {
		return nil, err
	}
	return service.rules.List(context, target)
}

/*
Grant attaches a new rule to its target.

Parameters:
  - context: context.Context
  - caller: identity.Identity
  - rule: *Rule (ID and CreatedAt are assigned here)

Returns:
  - error: Validation, Forbidden, or Conflict when the grantee already has a rule
*/
func (service *Service) Grant(context context.Context, caller identity.Identity, rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	if err := service.authorize(context, caller, rule.Target); err != nil {
		return err
	}

	rule.ID = idgen.New()
	if err := service.rules.Create(context, rule); err != nil {
		return err
	}

	service.logger.InfoContext(context, "access_rule_granted",
		slog.String("rule_id", rule.ID.String()),
		slog.String("class", string(rule.Target.Class)),
		slog.String("entity_id", rule.Target.EntityID.String()),
		slog.String("grantee_id", rule.Grantee().String()),
		slog.Bool("read", rule.Read),
		slog.Bool("write", rule.Write),
		slog.String("actor_id", caller.UserID.String()),
	)

	return nil
}

/*
Revoke deletes a rule.

Returns:
  - error: Forbidden, or Gone when the rule was removed concurrently
*/
func (service *Service) Revoke(context context.Context, caller identity.Identity, ruleID uuid.UUID) error {
	rule, err := service.rules.Find(context, ruleID)
	if err != nil {
		return err
	}

	if err := service.authorize(context, caller, rule.Target); err != nil {
		return err
	}

	affected, err := service.rules.Delete(context, ruleID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Gone("Rule already revoked")
	}

	service.logger.InfoContext(context, "access_rule_revoked",
		slog.String("rule_id", ruleID.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return nil
}

func (service *Service) authorize(context context.Context, caller identity.Identity, target Target) error {
	if caller.IsAnonymous() {
		return apperr.Unauthorized("Authentication required")
	}

	latest, err := service.owners.LatestHeader(context, target.Class, target.EntityID)
	if err != nil {
		return err
	}

	if caller.Tier.Privileged() || latest.Owner == caller.UserID {
		return nil
	}
	return apperr.Forbidden("Only the owner or an editor can manage access rules")
}
