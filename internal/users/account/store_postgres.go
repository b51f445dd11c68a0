// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for the identity directory.

# Schema Table Mapping
  - identity."user": Accounts, tiers and credential hashes.
  - identity."group": Named groups, including the reserved ones.
  - identity.membership: User to group links.
*/
package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/platform/database/schema"
	"github.com/taibuivan/archivum/internal/platform/dberr"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation of the directory.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Accounts

/*
FindUser retrieves a user record and its memberships.

Parameters:
  - context: context.Context
  - id: uuid.UUID

Returns:
  - *identity.User: Hydrated account
  - error: dberr.ErrNotFound or database execution failure
*/
func (repository *PostgresRepository) FindUser(context context.Context, id uuid.UUID) (*identity.User, error) {
	return repository.findUserBy(context, schema.IdentityUser.ID, id)
}

// FindUserByName retrieves a user record and its memberships by name.
func (repository *PostgresRepository) FindUserByName(context context.Context, name string) (*identity.User, error) {
	return repository.findUserBy(context, schema.IdentityUser.Name, name)
}

func (repository *PostgresRepository) findUserBy(context context.Context, column string, value any) (*identity.User, error) {
	table := schema.IdentityUser
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(%s, ''), %s
		FROM %s
		WHERE %s = $1`,
		table.ID, table.Name, table.Tier, table.PasswordHash, table.CreatedAt,
		table.Table, column,
	)

	user := &identity.User{}
	var tierName string
	err := repository.pool.QueryRow(context, query, value).Scan(
		&user.ID, &user.Name, &tierName, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_user")
	}

	if user.Tier, err = sec.ParseTier(tierName); err != nil {
		return nil, dberr.Wrap(err, "parse_user_tier")
	}

	if user.Groups, err = repository.userGroups(context, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

func (repository *PostgresRepository) userGroups(context context.Context, userID uuid.UUID) (map[uuid.UUID]string, error) {
	query := fmt.Sprintf(`
		SELECT g.%s, g.%s
		FROM %s m
		JOIN %s g ON g.%s = m.%s
		WHERE m.%s = $1`,
		schema.IdentityGroup.ID, schema.IdentityGroup.Name,
		schema.IdentityMembership.Table,
		schema.IdentityGroup.Table, schema.IdentityGroup.ID, schema.IdentityMembership.GroupID,
		schema.IdentityMembership.UserID,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_user_groups")
	}
	defer rows.Close()

	groups := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, dberr.Wrap(err, "scan_user_group")
		}
		groups[id] = name
	}

	return groups, dberr.Wrap(rows.Err(), "list_user_groups")
}

// CreateUser inserts a new account.
func (repository *PostgresRepository) CreateUser(context context.Context, user *identity.User) error {
	table := schema.IdentityUser
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING %s`,
		table.Table, table.ID, table.Name, table.Tier, table.PasswordHash,
		table.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		user.ID, user.Name, user.Tier.String(), user.PasswordHash,
	).Scan(&user.CreatedAt)

	return dberr.Wrap(err, "create_user")
}

// # Groups

// ListGroups returns every group ordered by name.
func (repository *PostgresRepository) ListGroups(context context.Context) ([]*identity.Group, error) {
	table := schema.IdentityGroup
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s ORDER BY %s ASC`,
		table.ID, table.Name, table.CreatedAt, table.Table, table.Name,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_groups")
	}
	defer rows.Close()

	var groups []*identity.Group
	for rows.Next() {
		group := &identity.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_group")
		}
		groups = append(groups, group)
	}

	return groups, dberr.Wrap(rows.Err(), "list_groups")
}

// FindGroup retrieves a group by id.
func (repository *PostgresRepository) FindGroup(context context.Context, id uuid.UUID) (*identity.Group, error) {
	return repository.findGroupBy(context, schema.IdentityGroup.ID, id)
}

// FindGroupByName retrieves a group by its unique name.
func (repository *PostgresRepository) FindGroupByName(context context.Context, name string) (*identity.Group, error) {
	return repository.findGroupBy(context, schema.IdentityGroup.Name, name)
}

func (repository *PostgresRepository) findGroupBy(context context.Context, column string, value any) (*identity.Group, error) {
	table := schema.IdentityGroup
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		table.ID, table.Name, table.CreatedAt, table.Table, column,
	)

	group := &identity.Group{}
	err := repository.pool.QueryRow(context, query, value).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "find_group")
	}
	return group, nil
}

// CreateGroup inserts a new group.
func (repository *PostgresRepository) CreateGroup(context context.Context, group *identity.Group) error {
	table := schema.IdentityGroup
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) RETURNING %s`,
		table.Table, table.ID, table.Name, table.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query, group.ID, group.Name).Scan(&group.CreatedAt)
	return dberr.Wrap(err, "create_group")
}

// DeleteGroup hard-deletes a group; memberships and rules follow by cascade.
func (repository *PostgresRepository) DeleteGroup(context context.Context, id uuid.UUID) (int64, error) {
	table := schema.IdentityGroup
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_group")
	}
	return result.RowsAffected(), nil
}

// # Memberships

// AddMember inserts a membership link; duplicates are ignored.
func (repository *PostgresRepository) AddMember(context context.Context, membership Membership) error {
	table := schema.IdentityMembership
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		table.Table, table.UserID, table.GroupID,
	)

	_, err := repository.pool.Exec(context, query, membership.UserID, membership.GroupID)
	return dberr.Wrap(err, "add_member")
}

// RemoveMember deletes a membership link.
func (repository *PostgresRepository) RemoveMember(context context.Context, membership Membership) (int64, error) {
	table := schema.IdentityMembership
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		table.Table, table.UserID, table.GroupID,
	)

	result, err := repository.pool.Exec(context, query, membership.UserID, membership.GroupID)
	if err != nil {
		return 0, dberr.Wrap(err, "remove_member")
	}
	return result.RowsAffected(), nil
}
