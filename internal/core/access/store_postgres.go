// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/database/schema"
	"github.com/taibuivan/archivum/internal/platform/dberr"
	"github.com/taibuivan/archivum/pkg/slice"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for access rules.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// TargetColumn returns the accessrule column that references entities of class.
func TargetColumn(class entity.Class) (string, error) {
	switch class {
	case entity.ClassMedia:
		return schema.ArchiveAccessRule.MediaID, nil
	case entity.ClassSeries:
		return schema.ArchiveAccessRule.SeriesID, nil
	}
	return "", fmt.Errorf("access: unknown class %q", class)
}

func permissionColumn(mode Mode) string {
	if mode == ModeWrite {
		return schema.ArchiveAccessRule.WriteAccess
	}
	return schema.ArchiveAccessRule.ReadAccess
}

/*
GrantSQL renders [predicate.Grant] nodes as a correlated EXISTS over the rule
table. idColumn is the qualified id column of the entity table being filtered.
*/
func GrantSQL(idColumn string) predicate.GrantRenderer {
	return func(sql *predicate.SQL, grant predicate.Grant) (string, error) {
		target, err := TargetColumn(grant.Class)
		if err != nil {
			return "", err
		}

		// An identity with no grantees can never match a rule
		if len(grant.Grantees) == 0 {
			return "FALSE", nil
		}

		mode := ModeRead
		if grant.Write {
			mode = ModeWrite
		}

		rules := schema.ArchiveAccessRule
		grantees := sql.Bind(slice.Map(grant.Grantees, uuid.UUID.String))
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s r WHERE r.%s = %s AND (r.%s = ANY(%s::uuid[]) OR r.%s = ANY(%s::uuid[])) AND r.%s)",
			rules.Table, target, idColumn,
			rules.UserID, grantees, rules.GroupID, grantees,
			permissionColumn(mode),
		), nil
	}
}

// HasGrant checks for a matching rule with one indexed lookup.
func (repository *PostgresRepository) HasGrant(context context.Context, target Target, grantees []uuid.UUID, mode Mode) (bool, error) {
	if len(grantees) == 0 {
		return false, nil
	}

	column, err := TargetColumn(target.Class)
	if err != nil {
		return false, apperr.Internal(err)
	}

	rules := schema.ArchiveAccessRule
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1
			  AND (%s = ANY($2::uuid[]) OR %s = ANY($2::uuid[]))
			  AND %s
		)`,
		rules.Table, column, rules.UserID, rules.GroupID, permissionColumn(mode),
	)

	var exists bool
	err = repository.pool.QueryRow(context, query, target.EntityID, slice.Map(grantees, uuid.UUID.String)).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "has_grant")
	}
	return exists, nil
}

func selectRules(where string) string {
	rules := schema.ArchiveAccessRule
	return fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s`,
		rules.ID, rules.MediaID, rules.SeriesID, rules.UserID, rules.GroupID,
		rules.ReadAccess, rules.WriteAccess, rules.CreatedAt,
		rules.Table, where,
	)
}

func scanRule(row pgx.Row) (*Rule, error) {
	rule := &Rule{}
	var mediaID, seriesID *uuid.UUID

	err := row.Scan(
		&rule.ID, &mediaID, &seriesID, &rule.UserID, &rule.GroupID,
		&rule.Read, &rule.Write, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if mediaID != nil {
		rule.Target = Target{Class: entity.ClassMedia, EntityID: *mediaID}
	} else if seriesID != nil {
		rule.Target = Target{Class: entity.ClassSeries, EntityID: *seriesID}
	}

	return rule, nil
}

// List returns the rules attached to target.
func (repository *PostgresRepository) List(context context.Context, target Target) ([]*Rule, error) {
	column, err := TargetColumn(target.Class)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	query := selectRules(column+" = $1") + " ORDER BY " + schema.ArchiveAccessRule.CreatedAt + " ASC"
	rows, err := repository.pool.Query(context, query, target.EntityID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_rules")
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_rule")
		}
		rules = append(rules, rule)
	}

	return rules, dberr.Wrap(rows.Err(), "list_rules")
}

// Find retrieves a rule by id.
func (repository *PostgresRepository) Find(context context.Context, id uuid.UUID) (*Rule, error) {
	rule, err := scanRule(repository.pool.QueryRow(context, selectRules(schema.ArchiveAccessRule.ID+" = $1"), id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_rule")
	}
	return rule, nil
}

// Create inserts a rule. The table's CHECK constraints mirror [Rule.Validate].
func (repository *PostgresRepository) Create(context context.Context, rule *Rule) error {
	column, err := TargetColumn(rule.Target.Class)
	if err != nil {
		return apperr.Internal(err)
	}

	rules := schema.ArchiveAccessRule
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`,
		rules.Table, rules.ID, column, rules.UserID, rules.GroupID, rules.ReadAccess, rules.WriteAccess,
		rules.CreatedAt,
	)

	err = repository.pool.QueryRow(context, query,
		rule.ID, rule.Target.EntityID, rule.UserID, rule.GroupID, rule.Read, rule.Write,
	).Scan(&rule.CreatedAt)

	return dberr.Wrap(err, "create_rule")
}

// Delete removes a rule by id.
func (repository *PostgresRepository) Delete(context context.Context, id uuid.UUID) (int64, error) {
	rules := schema.ArchiveAccessRule
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, rules.Table, rules.ID)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_rule")
	}
	return result.RowsAffected(), nil
}
