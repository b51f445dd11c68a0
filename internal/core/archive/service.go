// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package archive composes version storage, access control and search into the
read and write operations of the media and series archive.

# Core Responsibility

  - Versioning: [VersionStore] allocates versions and keeps chains immutable.
  - Reads: [Service.Read] assembles view, filters, visibility and search into
    one parameterized query.
  - Writes: [Service.Write] validates, authorizes and appends a version.
*/
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/access"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/core/search"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/sec"
	"github.com/taibuivan/archivum/internal/platform/validate"
	"github.com/taibuivan/archivum/pkg/pagination"
)

// Field limits enforced on every write.
const (
	MaxTitleLength       = 1024
	MaxDescriptionLength = 65536
	MaxSourceLength      = 2048
)

// Request parameter names, also used as validation detail fields.
const (
	ParamSearch    = "q"
	ParamLanguage  = "language"
	ParamAsc       = "asc"
	ParamDesc      = "desc"
	ParamLatest    = "latest"
	ParamPublished = "published"
	ParamOffset    = "offset"
	ParamLimit     = "limit"
)

// # Request Shapes

// ReadRequest describes a listing. Zero values mean "no restriction".
type ReadRequest struct {
	Caller identity.Identity
	Class  entity.Class

	ID       *uuid.UUID
	Version  *int
	Language string
	Search   string

	// At most one of OrderAsc and OrderDesc may name a sortable field.
	OrderAsc  string
	OrderDesc string

	OnlyLatest    bool
	OnlyPublished bool

	Page pagination.Params
}

// Page is one window of a listing and the size of the full result.
type Page struct {
	Items []entity.Entity
	Total int
	Meta  pagination.Meta
}

// WriteRequest appends a version to the chain of Record's id (or starts a new
// chain when the id is nil).
type WriteRequest struct {
	Caller identity.Identity
	Record entity.Entity

	// ParentVersion overrides the derived parent; nil derives from latest.
	ParentVersion *int
}

// # Service Layer

// Service is the query assembler of the archive.
type Service struct {
	store    *VersionStore
	access   *access.Evaluator
	maxLimit int
	logger   *slog.Logger
}

// NewService constructs the archive [Service]. Limits above maxLimit are clamped.
func NewService(store *VersionStore, evaluator *access.Evaluator, maxLimit int, logger *slog.Logger) *Service {
	if maxLimit < 1 {
		maxLimit = pagination.MaxLimit
	}
	return &Service{store: store, access: evaluator, maxLimit: maxLimit, logger: logger}
}

/*
Read returns the records matching request that the caller may read.

Description: The view is applied to whole version chains first; id, version,
language, visibility and search restrictions are then combined with AND. The
total counts every match of the same filter regardless of paging.

Returns:
  - Page: Items in the requested order plus the total count
  - error: ValidationError for malformed search, order or paging input
*/
func (service *Service) Read(context context.Context, request ReadRequest) (Page, error) {
	query, err := service.assemble(request)
	if err != nil {
		return Page{}, err
	}

	items, total, err := service.store.Find(context, query)
	if err != nil {
		return Page{}, err
	}

	params := pagination.Params{Offset: query.Offset, Limit: query.Limit}
	return Page{Items: items, Total: total, Meta: pagination.NewMeta(params, total)}, nil
}

// assemble validates request and builds the storage query.
func (service *Service) assemble(request ReadRequest) (Query, error) {
	if !request.Class.IsValid() {
		return Query{}, apperr.ValidationError(fmt.Sprintf("Unknown class %q", request.Class))
	}

	validator := &validate.Validator{}
	validator.NonNegative(ParamOffset, request.Page.Offset)
	validator.NonNegative(ParamLimit, request.Page.Limit)
	validator.Custom(ParamAsc, request.OrderAsc != "" && request.OrderDesc != "", "asc and desc are mutually exclusive")
	if request.Language != "" {
		validator.Custom(ParamLanguage, !search.IsLanguageTag(request.Language), "Invalid language tag")
	}
	if request.Version != nil {
		validator.NonNegative(entity.FieldVersion, *request.Version)
	}

	order, orderErr := resolveOrder(request)
	if orderErr != nil {
		validator.Custom(orderErr.field, true, orderErr.message)
	}

	if err := validator.Err(); err != nil {
		return Query{}, err
	}

	compiled, err := search.Compile(request.Search, SearchFields(request.Class))
	if err != nil {
		var searchErr *search.Error
		if errors.As(err, &searchErr) {
			return Query{}, apperr.ValidationError("Invalid search query",
				apperr.FieldError{Field: ParamSearch, Message: searchErr.Error()})
		}
		return Query{}, err
	}

	var idFilter, versionFilter, languageFilter predicate.Node
	if request.ID != nil {
		idFilter = predicate.Eq(entity.FieldID, *request.ID)
	}
	if request.Version != nil {
		versionFilter = predicate.Eq(entity.FieldVersion, *request.Version)
	}
	if request.Language != "" {
		languageFilter = predicate.Eq(entity.FieldLanguage, request.Language)
	}

	filter := predicate.AllOf(
		idFilter,
		versionFilter,
		languageFilter,
		service.access.VisibilityPredicate(request.Caller, request.Class, access.ModeRead),
		compiled,
	)

	limit := request.Page.Limit
	if limit == 0 {
		limit = pagination.DefaultLimit
	}
	if limit > service.maxLimit {
		limit = service.maxLimit
	}

	return Query{
		Class:  request.Class,
		View:   ResolveView(request.OnlyLatest, request.OnlyPublished),
		Filter: filter,
		Order:  order,
		Offset: request.Page.Offset,
		Limit:  limit,
	}, nil
}

type orderError struct {
	field   string
	message string
}

func resolveOrder(request ReadRequest) (*Order, *orderError) {
	name, param, descending := request.OrderAsc, ParamAsc, false
	if request.OrderDesc != "" {
		name, param, descending = request.OrderDesc, ParamDesc, true
	}
	if name == "" {
		return nil, nil
	}

	path, ok := OrderFields(request.Class)[name]
	if !ok {
		return nil, &orderError{field: param, message: fmt.Sprintf("Cannot order by %q", name)}
	}
	return &Order{Path: path, Descending: descending}, nil
}

/*
Get returns one version of an entity; a nil version means the latest.

Description: Callers who cannot read the record get NotFound, as if it did
not exist. Callers holding write access but not read access get Forbidden.

Returns:
  - entity.Entity: The stored record
  - error: NotFound or Forbidden
*/
func (service *Service) Get(context context.Context, caller identity.Identity, class entity.Class, id uuid.UUID, version *int) (entity.Entity, error) {
	if !class.IsValid() {
		return nil, apperr.ValidationError(fmt.Sprintf("Unknown class %q", class))
	}

	var number int
	if version != nil {
		number = *version
	} else {
		latest, err := service.store.LatestHeader(context, class, id)
		if err != nil {
			return nil, err
		}
		number = latest.Version
	}

	record, err := service.store.Get(context, class, id, number)
	if err != nil {
		return nil, err
	}

	readable, err := service.access.CanRead(context, caller, class, record.Head())
	if err != nil {
		return nil, err
	}
	if readable {
		return record, nil
	}

	writable, err := service.access.CanWrite(context, caller, class, id)
	if err != nil {
		return nil, err
	}
	if writable {
		return nil, apperr.Forbidden("No read access to this entity")
	}
	return nil, apperr.NotFound(titleOf(class))
}

/*
Write validates, authorizes and stores a new version.

Description: An empty owner keeps the current owner (or the caller for a new
entity). Ownership and write access are checked against the version the new
one is appended to, on every allocation attempt. The editor is always the caller. An explicit id that does not exist
yet starts a new chain under that id.

Returns:
  - *entity.Header: Stored header with the allocated version
  - error: Unauthorized, ValidationError, Forbidden or Transient
*/
func (service *Service) Write(ctx context.Context, request WriteRequest) (*entity.Header, error) {
	if request.Caller.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	record := request.Record
	if err := validateRecord(record); err != nil {
		return nil, err
	}

	head := record.Head()
	class := record.Class()
	caller := request.Caller
	requestedOwner := head.Owner

	head.Editor = caller.UserID

	// Runs per allocation attempt: a concurrent handover must be seen by the retry.
	guard := func(context context.Context, latest *entity.Header, head *entity.Header) error {
		head.Owner = requestedOwner
		if head.Owner == uuid.Nil {
			head.Owner = caller.UserID
			if latest != nil {
				head.Owner = latest.Owner
			}
		}
		return service.access.AuthorizeVersion(context, caller, class, latest, head.Owner)
	}

	stored, err := service.store.CreateVersion(ctx, record, request.ParentVersion, guard)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, string(class)+"_version_created",
		slog.String("entity_id", stored.ID.String()),
		slog.Int("version", stored.Version),
		slog.String("owner_id", stored.Owner.String()),
		slog.String("actor_id", request.Caller.UserID.String()),
	)

	return stored, nil
}

/*
Delete hard-deletes one version, or the whole chain when version is nil.
Only administrators may delete.

Returns:
  - int64: Version rows removed
  - error: Unauthorized, Forbidden, or Gone when nothing matched
*/
func (service *Service) Delete(context context.Context, caller identity.Identity, class entity.Class, id uuid.UUID, version *int) (int64, error) {
	if caller.IsAnonymous() {
		return 0, apperr.Unauthorized("Authentication required")
	}
	if !caller.Tier.AtLeast(sec.TierAdministrator) {
		return 0, apperr.Forbidden("Only administrators can delete versions")
	}
	if !class.IsValid() {
		return 0, apperr.ValidationError(fmt.Sprintf("Unknown class %q", class))
	}

	affected, err := service.store.DeleteVersion(context, class, id, version)
	if err != nil {
		return 0, err
	}

	attrs := []any{
		slog.String("entity_id", id.String()),
		slog.Int64("versions", affected),
		slog.String("actor_id", caller.UserID.String()),
	}
	if version != nil {
		attrs = append(attrs, slog.Int("version", *version))
	}
	service.logger.InfoContext(context, string(class)+"_deleted", attrs...)

	return affected, nil
}

// validateRecord checks the caller-supplied fields of a draft.
func validateRecord(record entity.Entity) error {
	if record == nil {
		return apperr.ValidationError("Missing record")
	}
	head := record.Head()

	validator := &validate.Validator{}
	validator.Required(entity.FieldTitle, head.Title).MaxLen(entity.FieldTitle, head.Title, MaxTitleLength)
	validator.Required(entity.FieldLanguage, head.Language)
	if head.Language != "" {
		validator.LanguageTag(entity.FieldLanguage, head.Language)
	}
	validator.MaxLen(entity.FieldDescription, head.Description, MaxDescriptionLength)
	validator.MaxLen(entity.FieldSource, head.Source, MaxSourceLength)

	for kind, ids := range record.Relations() {
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if id == uuid.Nil {
				validator.Custom(string(kind), true, "Related id must not be empty")
				break
			}
			if _, duplicate := seen[id]; duplicate {
				validator.Custom(string(kind), true, "Related ids must be unique")
				break
			}
			seen[id] = struct{}{}
		}
	}

	return validator.Err()
}

func titleOf(class entity.Class) string {
	if class == entity.ClassSeries {
		return "Series"
	}
	return "Media"
}
