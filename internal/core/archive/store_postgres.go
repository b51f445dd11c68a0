// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package archive (Postgres) implements version chain storage.

# Schema Table Mapping
  - archive.media, archive.series: One row per (id, version).
  - archive.<class><relation>: Version-scoped relation rows.
  - archive.accessrule: Dropped together with the last version of an id.
*/
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/archivum/internal/core/access"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/database/schema"
	"github.com/taibuivan/archivum/internal/platform/dberr"
	"github.com/taibuivan/archivum/pkg/slice"
)

// entityAlias qualifies entity columns in assembled reads.
const entityAlias = "e"

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for version chains.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Schema Resolution

func tableOf(class entity.Class) (schema.ArchiveEntityTable, error) {
	switch class {
	case entity.ClassMedia:
		return schema.ArchiveMedia, nil
	case entity.ClassSeries:
		return schema.ArchiveSeries, nil
	}
	return schema.ArchiveEntityTable{}, fmt.Errorf("archive: unknown class %q", class)
}

func relationTables(class entity.Class) map[entity.RelationKind]schema.ArchiveRelationTable {
	if class == entity.ClassMedia {
		return map[entity.RelationKind]schema.ArchiveRelationTable{
			entity.RelationCreator:     schema.MediaCreator,
			entity.RelationContributor: schema.MediaContributor,
			entity.RelationPublisher:   schema.MediaPublisher,
			entity.RelationSubject:     schema.MediaSubject,
		}
	}
	return map[entity.RelationKind]schema.ArchiveRelationTable{
		entity.RelationCreator:   schema.SeriesCreator,
		entity.RelationPublisher: schema.SeriesPublisher,
		entity.RelationSubject:   schema.SeriesSubject,
		entity.RelationMedia:     schema.SeriesMedia,
	}
}

// columnsOf returns the selected columns of class in scan order.
func columnsOf(class entity.Class, table schema.ArchiveEntityTable) []string {
	columns := table.HeaderColumns()
	if class == entity.ClassMedia {
		columns = append(columns, table.MediaColumns()...)
	}
	return columns
}

// ColumnMap maps internal field paths to the qualified columns of class.
func ColumnMap(class entity.Class, alias string) (map[string]string, error) {
	table, err := tableOf(class)
	if err != nil {
		return nil, err
	}

	qualify := func(column string) string { return alias + "." + column }
	columns := map[string]string{
		entity.FieldID:            qualify(table.ID),
		entity.FieldVersion:       qualify(table.Version),
		entity.FieldParentVersion: qualify(table.ParentVersion),
		entity.FieldOwner:         qualify(table.Owner),
		entity.FieldEditor:        qualify(table.Editor),
		entity.FieldPublished:     qualify(table.Published),
		entity.FieldVisible:       qualify(table.Visible),
		entity.FieldLanguage:      qualify(table.Language),
		entity.FieldTitle:         qualify(table.Title),
		entity.FieldDescription:   qualify(table.Description),
		entity.FieldSource:        qualify(table.Source),
		entity.FieldTimestamp:     qualify(table.Timestamp),
		entity.FieldCreatedAt:     qualify(table.CreatedAt),
	}
	if class == entity.ClassMedia {
		columns[entity.FieldRights] = qualify(table.Rights)
		columns[entity.FieldType] = qualify(table.Type)
		columns[entity.FieldCoverage] = qualify(table.Coverage)
		columns[entity.FieldRelation] = qualify(table.Relation)
	}
	return columns, nil
}

func qualifiedList(alias string, columns []string) string {
	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return strings.Join(qualified, ", ")
}

// # Scanning

func scanTargets(record entity.Entity) []any {
	head := record.Head()
	targets := []any{
		&head.ID, &head.Version, &head.ParentVersion, &head.Owner, &head.Editor,
		&head.Published, &head.Visible, &head.Language, &head.Title, &head.Description,
		&head.Source, &head.Timestamp, &head.CreatedAt,
	}
	if media, ok := record.(*entity.MediaObject); ok {
		targets = append(targets, &media.Rights, &media.Type, &media.Coverage, &media.Relation)
	}
	return targets
}

func insertValues(record entity.Entity) []any {
	head := record.Head()
	values := []any{
		head.ID, head.Version, head.ParentVersion, head.Owner, head.Editor,
		head.Published, head.Visible, head.Language, head.Title, head.Description,
		head.Source, head.Timestamp, head.CreatedAt,
	}
	if media, ok := record.(*entity.MediaObject); ok {
		values = append(values, media.Rights, media.Type, media.Coverage, media.Relation)
	}
	return values
}

// # Reads

// LatestHeader returns the header of the highest version of id.
func (repository *PostgresRepository) LatestHeader(context context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error) {
	table, err := tableOf(class)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT 1`,
		strings.Join(table.HeaderColumns(), ", "),
		table.Table, table.ID, table.Version,
	)

	// Only the header columns are selected, so scan into a series shell
	record := &entity.Series{}
	if err := repository.pool.QueryRow(context, query, id).Scan(scanTargets(record)...); err != nil {
		return nil, dberr.Wrap(err, "latest_version")
	}

	header := record.Header
	return &header, nil
}

// Get loads one version with its relations.
func (repository *PostgresRepository) Get(context context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, error) {
	table, err := tableOf(class)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2`,
		strings.Join(columnsOf(class, table), ", "),
		table.Table, table.ID, table.Version,
	)

	record, err := entity.New(class)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := repository.pool.QueryRow(context, query, id, version).Scan(scanTargets(record)...); err != nil {
		return nil, dberr.Wrap(err, "get_version")
	}

	if err := repository.loadRelations(context, class, []entity.Entity{record}); err != nil {
		return nil, err
	}
	return record, nil
}

// VersionStamp returns the write timestamp of one stored version.
func (repository *PostgresRepository) VersionStamp(context context.Context, class entity.Class, id uuid.UUID, version int) (time.Time, error) {
	table, err := tableOf(class)
	if err != nil {
		return time.Time{}, apperr.Internal(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		table.Timestamp, table.Table, table.ID, table.Version,
	)

	var stamp time.Time
	if err := repository.pool.QueryRow(context, query, id, version).Scan(&stamp); err != nil {
		return time.Time{}, dberr.Wrap(err, "version_stamp")
	}
	return stamp, nil
}

// FindStatement is the SQL of one assembled read.
type FindStatement struct {
	// Select returns one page; its last column is the total match count.
	Select string
	Args   []any

	// Count recounts the matches when the page is past the end and carries no rows.
	Count     string
	CountArgs []any
}

/*
BuildFind renders an assembled read into SQL.

Description: Latest views select the highest version per id in a derived
table before any filter applies, so an id whose newest version fails a
filter never falls back to an older one. Ties on the sort column are broken
by (id, version) for stable paging.
*/
func BuildFind(query Query) (FindStatement, error) {
	table, err := tableOf(query.Class)
	if err != nil {
		return FindStatement{}, err
	}

	columnMap, err := ColumnMap(query.Class, entityAlias)
	if err != nil {
		return FindStatement{}, err
	}

	source := table.Table
	if query.View.OnlyLatest() {
		source = fmt.Sprintf("(SELECT DISTINCT ON (%s) * FROM %s ORDER BY %s, %s DESC)",
			table.ID, table.Table, table.ID, table.Version)
	}

	renderer := predicate.NewSQL(columnMap, access.GrantSQL(columnMap[entity.FieldID]))
	where, err := renderer.Render(query.Filter)
	if err != nil {
		return FindStatement{}, err
	}
	if query.View.OnlyPublished() {
		where = fmt.Sprintf("%s AND %s", columnMap[entity.FieldPublished], where)
	}

	orderBy := fmt.Sprintf("%s ASC, %s ASC", columnMap[entity.FieldID], columnMap[entity.FieldVersion])
	if query.Order != nil {
		column, ok := columnMap[query.Order.Path]
		if !ok {
			return FindStatement{}, fmt.Errorf("archive: no column for order path %q", query.Order.Path)
		}
		direction := "ASC"
		if query.Order.Descending {
			direction = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s, %s", column, direction, orderBy)
	}

	// Snapshot the filter arguments before paging placeholders are bound
	countArgs := append([]any(nil), renderer.Args()...)
	limit := renderer.Bind(query.Limit)
	offset := renderer.Bind(query.Offset)

	return FindStatement{
		Select: fmt.Sprintf("SELECT %s, COUNT(*) OVER() FROM %s %s WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
			qualifiedList(entityAlias, columnsOf(query.Class, table)),
			source, entityAlias, where, orderBy, limit, offset,
		),
		Args:      renderer.Args(),
		Count:     fmt.Sprintf("SELECT COUNT(*) FROM %s %s WHERE %s", source, entityAlias, where),
		CountArgs: countArgs,
	}, nil
}

// Find executes an assembled read built by [BuildFind].
func (repository *PostgresRepository) Find(context context.Context, query Query) ([]entity.Entity, int, error) {
	statement, err := BuildFind(query)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	rows, err := repository.pool.Query(context, statement.Select, statement.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "find_versions")
	}
	defer rows.Close()

	var records []entity.Entity
	total := 0
	for rows.Next() {
		record, err := entity.New(query.Class)
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}
		if err := rows.Scan(append(scanTargets(record), &total)...); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_version")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "find_versions")
	}

	// A page past the end carries no window count
	if len(records) == 0 && query.Offset > 0 {
		if err := repository.pool.QueryRow(context, statement.Count, statement.CountArgs...).Scan(&total); err != nil {
			return nil, 0, dberr.Wrap(err, "count_versions")
		}
	}

	if err := repository.loadRelations(context, query.Class, records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// loadRelations fills the relation slices of records with one query per relation table.
func (repository *PostgresRepository) loadRelations(context context.Context, class entity.Class, records []entity.Entity) error {
	if len(records) == 0 {
		return nil
	}

	type versionKey struct {
		id      uuid.UUID
		version int
	}

	byKey := make(map[versionKey]entity.Entity, len(records))
	ids := make([]string, len(records))
	versions := make([]int32, len(records))
	for i, record := range records {
		head := record.Head()
		byKey[versionKey{head.ID, head.Version}] = record
		ids[i] = head.ID.String()
		versions[i] = int32(head.Version)
	}

	for kind, relation := range relationTables(class) {
		query := fmt.Sprintf(`
			SELECT %s, %s, %s
			FROM %s
			WHERE (%s, %s) IN (SELECT * FROM unnest($1::uuid[], $2::int[]))
			ORDER BY %s`,
			relation.EntityID, relation.EntityVersion, relation.RelatedID,
			relation.Table,
			relation.EntityID, relation.EntityVersion,
			relation.RelatedID,
		)

		rows, err := repository.pool.Query(context, query, ids, versions)
		if err != nil {
			return dberr.Wrap(err, "load_relations")
		}

		related := make(map[versionKey][]uuid.UUID)
		for rows.Next() {
			var key versionKey
			var relatedID uuid.UUID
			if err := rows.Scan(&key.id, &key.version, &relatedID); err != nil {
				rows.Close()
				return dberr.Wrap(err, "scan_relation")
			}
			related[key] = append(related[key], relatedID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return dberr.Wrap(err, "load_relations")
		}

		for key, record := range byKey {
			if err := entity.SetRelation(record, kind, related[key]); err != nil {
				return apperr.Internal(err)
			}
		}
	}

	return nil
}

// # Writes

/*
Insert writes the version row and its relation rows in one transaction.

Returns:
  - error: ErrVersionTaken when (id, version) is already stored or the
    transaction lost a serialization race; Conflict for dangling references
*/
func (repository *PostgresRepository) Insert(context context.Context, record entity.Entity) error {
	class := record.Class()
	table, err := tableOf(class)
	if err != nil {
		return apperr.Internal(err)
	}
	head := record.Head()

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	columns := columnsOf(class, table)
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	if _, err := transaction.Exec(context, query, insertValues(record)...); err != nil {
		return insertError(err, table)
	}

	tables := relationTables(class)
	for kind, ids := range record.Relations() {
		if len(ids) == 0 {
			continue
		}

		if kind == entity.RelationMedia {
			if err := requireMedia(context, transaction, ids); err != nil {
				return err
			}
		}

		relation := tables[kind]
		relationQuery := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, %s)
			SELECT $1, $2, unnest($3::uuid[])`,
			relation.Table, relation.EntityID, relation.EntityVersion, relation.RelatedID,
		)
		if _, err := transaction.Exec(context, relationQuery, head.ID, head.Version, slice.Map(ids, uuid.UUID.String)); err != nil {
			return insertError(err, table)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return insertError(err, table)
	}
	return nil
}

func insertError(err error, table schema.ArchiveEntityTable) error {
	if dberr.IsUniqueViolation(err, table.PrimaryKey) || dberr.IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrVersionTaken, err)
	}
	return dberr.Wrap(err, "insert_version")
}

// requireMedia rejects series memberships that name media ids with no stored version.
func requireMedia(context context.Context, transaction pgx.Tx, ids []uuid.UUID) error {
	media := schema.ArchiveMedia
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) FROM %s WHERE %s = ANY($1::uuid[])`,
		media.ID, media.Table, media.ID,
	)

	var found int
	if err := transaction.QueryRow(context, query, slice.Map(ids, uuid.UUID.String)).Scan(&found); err != nil {
		return dberr.Wrap(err, "check_series_media")
	}
	if found != len(ids) {
		return apperr.Conflict("Series references media that does not exist")
	}
	return nil
}

/*
Delete removes one version (or all versions) of id. Relation rows cascade;
access rules are removed once no version of id is left.
*/
func (repository *PostgresRepository) Delete(context context.Context, class entity.Class, id uuid.UUID, version *int) (int64, error) {
	table, err := tableOf(class)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	targetColumn, err := access.TargetColumn(class)
	if err != nil {
		return 0, apperr.Internal(err)
	}

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)
	args := []any{id}
	if version != nil {
		query += fmt.Sprintf(` AND %s = $2`, table.Version)
		args = append(args, *version)
	}

	result, err := transaction.Exec(context, query, args...)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_version")
	}

	var remaining bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table.Table, table.ID)
	if err := transaction.QueryRow(context, existsQuery, id).Scan(&remaining); err != nil {
		return 0, dberr.Wrap(err, "delete_version")
	}

	if !remaining {
		rules := schema.ArchiveAccessRule
		rulesQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, rules.Table, targetColumn)
		if _, err := transaction.Exec(context, rulesQuery, id); err != nil {
			return 0, dberr.Wrap(err, "delete_access_rules")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return 0, dberr.Wrap(err, "delete_version")
	}
	return result.RowsAffected(), nil
}
