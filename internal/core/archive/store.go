// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/predicate"
)

// ErrVersionTaken is returned by [Repository.Insert] when another writer
// already stored the same (id, version). Callers re-read and retry.
var ErrVersionTaken = errors.New("archive: version already allocated")

// # Query Shapes

// Order sorts a listing by one field path.
type Order struct {
	Path       string
	Descending bool
}

// Query is a fully assembled read: view, filter, order and page.
//
// Filter may contain [predicate.Grant] nodes; adapters must be able to render them.
type Query struct {
	Class  entity.Class
	View   ViewSelector
	Filter predicate.Node
	Order  *Order
	Offset int
	Limit  int
}

// # Entity Data Access

// Repository defines the storage contract for version chains.
type Repository interface {

	/*
		LatestHeader returns the header of the highest stored version of id.

		Returns:
		  - *entity.Header: Latest version header
		  - error: NotFound when no version exists
	*/
	LatestHeader(context context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error)

	/*
		Insert writes one version row and all its relation rows atomically.

		The header must already carry the allocated version. A collision on
		(id, version) returns [ErrVersionTaken]; any other failure rolls the
		whole unit back.
	*/
	Insert(context context.Context, record entity.Entity) error

	// Get loads one immutable version with its relations.
	Get(context context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, error)

	/*
		VersionStamp returns the write timestamp of the stored (id, version) row.

		A deleted number can be allocated again, so (id, version, timestamp)
		identifies one stored row while (id, version) alone does not.

		Returns:
		  - time.Time: Timestamp of the stored row
		  - error: NotFound when the row does not exist
	*/
	VersionStamp(context context.Context, class entity.Class, id uuid.UUID, version int) (time.Time, error)

	/*
		Find executes a read and returns one page plus the total match count for
		the same view and filter, ignoring offset and limit.
	*/
	Find(context context.Context, query Query) ([]entity.Entity, int, error)

	/*
		Delete hard-deletes one version (or every version when version is nil),
		their relation rows and, once no version of id remains, its access rules.

		Returns:
		  - int64: Version rows removed
	*/
	Delete(context context.Context, class entity.Class, id uuid.UUID, version *int) (int64, error)
}
