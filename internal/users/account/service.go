// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/sec"
	"github.com/taibuivan/archivum/internal/platform/validate"
	"github.com/taibuivan/archivum/pkg/slug"
	idgen "github.com/taibuivan/archivum/pkg/uuid"
)

// # Service Layer

// Service resolves callers and administers the identity directory.
type Service struct {
	repository Repository
	logger     *slog.Logger

	// The public group row never changes once seeded.
	publicMu    sync.Mutex
	publicGroup *identity.Group
}

// NewService constructs a new directory [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// # Resolution

/*
Resolve builds the identity of a signed-in user.

Description: The stored tier is raised to at least authenticated, members of
the "admin" group resolve as administrators, and every caller is placed in
the "public" group.

Parameters:
  - context: context.Context
  - userID: uuid.UUID (bearer subject)

Returns:
  - identity.Identity: The resolved caller
  - error: NotFound if the account does not exist
*/
func (service *Service) Resolve(context context.Context, userID uuid.UUID) (identity.Identity, error) {
	user, err := service.repository.FindUser(context, userID)
	if err != nil {
		return identity.Identity{}, err
	}
	return service.identityOf(context, user)
}

/*
Authenticate checks a name/password pair and resolves the account.

Unknown names and wrong passwords produce the same Unauthorized error.
*/
func (service *Service) Authenticate(context context.Context, name, password string) (identity.Identity, error) {
	user, err := service.repository.FindUserByName(context, name)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return identity.Identity{}, apperr.Unauthorized("Invalid credentials")
		}
		return identity.Identity{}, err
	}

	// Accounts without a credential hash never match
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return identity.Identity{}, apperr.Unauthorized("Invalid credentials")
	}

	return service.identityOf(context, user)
}

// Anonymous returns the identity of a caller that presented no credentials.
func (service *Service) Anonymous(context context.Context) (identity.Identity, error) {
	caller := identity.Identity{Tier: sec.TierPublic, Groups: map[uuid.UUID]string{}}

	public, err := service.public(context)
	if err != nil {
		return identity.Identity{}, err
	}
	if public != nil {
		caller.Groups[public.ID] = public.Name
	}

	return caller, nil
}

func (service *Service) identityOf(context context.Context, user *identity.User) (identity.Identity, error) {
	caller := identity.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Tier:   max(user.Tier, sec.TierAuthenticated),
		Groups: make(map[uuid.UUID]string, len(user.Groups)+1),
	}

	for id, name := range user.Groups {
		caller.Groups[id] = name
	}

	public, err := service.public(context)
	if err != nil {
		return identity.Identity{}, err
	}
	if public != nil {
		caller.Groups[public.ID] = public.Name
	}

	if caller.InGroup(identity.GroupAdmin) {
		caller.Tier = sec.TierAdministrator
	}

	return caller, nil
}

// public loads the reserved public group once. A missing row is logged and
// tolerated: callers then simply carry no implicit group.
func (service *Service) public(context context.Context) (*identity.Group, error) {
	service.publicMu.Lock()
	defer service.publicMu.Unlock()

	if service.publicGroup != nil {
		return service.publicGroup, nil
	}

	group, err := service.repository.FindGroupByName(context, identity.GroupPublic)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			service.logger.WarnContext(context, "public_group_missing")
			return nil, nil
		}
		return nil, err
	}

	service.publicGroup = group
	return group, nil
}

// # Accounts

/*
CreateUser enrolls an account. Only administrators may do so.

Parameters:
  - context: context.Context
  - caller: identity.Identity
  - input: CreateUserInput

Returns:
  - *identity.User: Created account (hash never serialized)
  - error: Forbidden, validation or Conflict on duplicate name
*/
func (service *Service) CreateUser(context context.Context, caller identity.Identity, input CreateUserInput) (*identity.User, error) {
	if !caller.Tier.AtLeast(sec.TierAdministrator) {
		return nil, apperr.Forbidden("Only administrators can create accounts")
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldName, input.Name).MaxLen(identity.FieldName, input.Name, MaxNameLength)
	if input.Password != "" {
		validator.MinLen(identity.FieldPassword, input.Password, MinPasswordLength)
	}
	validator.Custom(identity.FieldTier, input.Tier == sec.TierPublic, "Accounts start at the authenticated tier or above")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user := &identity.User{
		ID:     idgen.New(),
		Name:   input.Name,
		Tier:   input.Tier,
		Groups: map[uuid.UUID]string{},
	}

	if input.Password != "" {
		hash, err := sec.HashPassword(input.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		user.PasswordHash = hash
	}

	if err := service.repository.CreateUser(context, user); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_created",
		slog.String("user_id", user.ID.String()),
		slog.String("tier", user.Tier.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return user, nil
}

// # Groups

// ListGroups returns every group. Group names are not secret.
func (service *Service) ListGroups(context context.Context) ([]*identity.Group, error) {
	return service.repository.ListGroups(context)
}

/*
CreateGroup adds a group. Names that normalize to a reserved name are rejected.
*/
func (service *Service) CreateGroup(context context.Context, caller identity.Identity, input CreateGroupInput) (*identity.Group, error) {
	if !caller.Tier.AtLeast(sec.TierAdministrator) {
		return nil, apperr.Forbidden("Only administrators can manage groups")
	}

	validator := &validate.Validator{}
	validator.Required(identity.FieldName, input.Name).MaxLen(identity.FieldName, input.Name, MaxNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if IsReserved(input.Name) {
		return nil, apperr.Conflict("Group name is reserved")
	}

	group := &identity.Group{ID: idgen.New(), Name: input.Name}
	if err := service.repository.CreateGroup(context, group); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "group_created",
		slog.String("group_id", group.ID.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return group, nil
}

/*
DeleteGroup removes a group together with its memberships and access rules.
The reserved groups cannot be deleted.
*/
func (service *Service) DeleteGroup(context context.Context, caller identity.Identity, groupID uuid.UUID) error {
	group, err := service.adminGroup(context, caller, groupID)
	if err != nil {
		return err
	}

	if IsReserved(group.Name) {
		return apperr.Conflict("Reserved groups cannot be deleted")
	}

	affected, err := service.repository.DeleteGroup(context, groupID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Gone("Group already removed")
	}

	service.logger.InfoContext(context, "group_deleted",
		slog.String("group_id", groupID.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return nil
}

/*
AddMember puts a user into a group.

Membership of "public" is implicit, so explicit changes to it are rejected.
*/
func (service *Service) AddMember(context context.Context, caller identity.Identity, membership Membership) error {
	group, err := service.adminGroup(context, caller, membership.GroupID)
	if err != nil {
		return err
	}

	if slug.From(group.Name) == identity.GroupPublic {
		return apperr.Conflict("Membership of the public group is implicit")
	}

	if _, err := service.repository.FindUser(context, membership.UserID); err != nil {
		return err
	}

	if err := service.repository.AddMember(context, membership); err != nil {
		return err
	}

	service.logger.InfoContext(context, "group_member_added",
		slog.String("group_id", membership.GroupID.String()),
		slog.String("user_id", membership.UserID.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return nil
}

// RemoveMember takes a user out of a group.
func (service *Service) RemoveMember(context context.Context, caller identity.Identity, membership Membership) error {
	group, err := service.adminGroup(context, caller, membership.GroupID)
	if err != nil {
		return err
	}

	if slug.From(group.Name) == identity.GroupPublic {
		return apperr.Conflict("Membership of the public group is implicit")
	}

	// Administrators cannot demote themselves
	if slug.From(group.Name) == identity.GroupAdmin && membership.UserID == caller.UserID {
		return apperr.Conflict("Administrators cannot remove themselves from the admin group")
	}

	affected, err := service.repository.RemoveMember(context, membership)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Gone("User is not a member of the group")
	}

	service.logger.InfoContext(context, "group_member_removed",
		slog.String("group_id", membership.GroupID.String()),
		slog.String("user_id", membership.UserID.String()),
		slog.String("actor_id", caller.UserID.String()),
	)

	return nil
}

func (service *Service) adminGroup(context context.Context, caller identity.Identity, groupID uuid.UUID) (*identity.Group, error) {
	if !caller.Tier.AtLeast(sec.TierAdministrator) {
		return nil, apperr.Forbidden("Only administrators can manage groups")
	}
	return service.repository.FindGroup(context, groupID)
}

// IsReserved reports whether name collides with a reserved group name once
// case, accents and punctuation are normalized away.
func IsReserved(name string) bool {
	normalized := slug.From(name)
	return normalized == identity.GroupAdmin || normalized == identity.GroupPublic
}
