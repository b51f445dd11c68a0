// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	idgen "github.com/taibuivan/archivum/pkg/uuid"
)

// Retry pacing for version allocation. Collisions resolve within one round
// trip, so the intervals stay small.
const (
	retryInitialInterval = 5 * time.Millisecond
	retryMaxInterval     = 200 * time.Millisecond
)

// # Versioned Entity Store

// VersionGuard authorizes one allocation attempt against the latest header
// read in that attempt (nil for a new entity). It may fill in header fields
// derived from latest, such as a carried-forward owner.
type VersionGuard func(context context.Context, latest *entity.Header, head *entity.Header) error

// VersionStore allocates version numbers and keeps version chains immutable.
//
// Allocation is optimistic: the next number is derived from the latest stored
// version and the insert is retried when a concurrent writer took it first.
type VersionStore struct {
	repo    Repository
	cache   Cache
	retries int
	logger  *slog.Logger
}

// NewVersionStore constructs a [VersionStore]. retryLimit is the total number
// of allocation attempts per write; cache may be a [NopCache].
func NewVersionStore(repo Repository, cache Cache, retryLimit int, logger *slog.Logger) *VersionStore {
	if retryLimit < 1 {
		retryLimit = 1
	}
	return &VersionStore{repo: repo, cache: cache, retries: retryLimit, logger: logger}
}

/*
LatestVersion returns the highest stored version of id.

Returns:
  - *int: Latest version, nil when the id has no versions
  - error: Storage errors only
*/
func (store *VersionStore) LatestVersion(context context.Context, class entity.Class, id uuid.UUID) (*int, error) {
	header, err := store.latest(context, class, id)
	if err != nil || header == nil {
		return nil, err
	}
	version := header.Version
	return &version, nil
}

// LatestHeader returns the header of the highest version of id, or NotFound.
func (store *VersionStore) LatestHeader(context context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error) {
	return store.repo.LatestHeader(context, class, id)
}

/*
CreateVersion stores record as the next version of its chain.

Description: A nil record id mints a new entity. The version is latest+1 (or 0
for a new id); the parent is parentHint when given, otherwise the latest
version. Header fields the store owns (version, parent, timestamps) are
overwritten; the rest of the record is stored as given.

guard, when set, runs on every attempt against the latest header read in
that attempt, so a lost race re-checks authorization against the version
that won it.

Parameters:
  - context: context.Context
  - record: entity.Entity
  - parentHint: *int (nil for "derive from latest")
  - guard: VersionGuard (nil to skip authorization)

Returns:
  - *entity.Header: The stored header
  - error: ValidationError for a bad hint, the guard's error, Transient when every attempt lost the race
*/
func (store *VersionStore) CreateVersion(context context.Context, record entity.Entity, parentHint *int, guard VersionGuard) (*entity.Header, error) {
	head := record.Head()
	if head.ID == uuid.Nil {
		head.ID = idgen.New()
	}

	attempts := 0
	operation := func() error {
		attempts++

		latest, err := store.latest(context, record.Class(), head.ID)
		if err != nil {
			return backoff.Permanent(err)
		}

		if guard != nil {
			if err := guard(context, latest, head); err != nil {
				return backoff.Permanent(err)
			}
		}

		if err := allocate(head, latest, parentHint); err != nil {
			return backoff.Permanent(err)
		}

		err = store.repo.Insert(context, record)
		if errors.Is(err, ErrVersionTaken) {
			store.logger.DebugContext(context, "version_allocation_collision",
				slog.String("class", string(record.Class())),
				slog.String("entity_id", head.ID.String()),
				slog.Int("version", head.Version),
				slog.Int("attempt", attempts),
			)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(operation, store.policy(context)); err != nil {
		if errors.Is(err, ErrVersionTaken) {
			store.logger.WarnContext(context, "version_allocation_exhausted",
				slog.String("class", string(record.Class())),
				slog.String("entity_id", head.ID.String()),
				slog.Int("attempts", attempts),
			)
			return nil, apperr.Transient("Concurrent edits on this entity, please retry", err)
		}
		return nil, err
	}

	stored := *head
	return &stored, nil
}

// allocate fills the version envelope of head from the latest stored header.
func allocate(head *entity.Header, latest *entity.Header, parentHint *int) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	head.Timestamp = now

	if latest == nil {
		if parentHint != nil {
			return apperr.ValidationError("A new entity cannot name a parent version",
				apperr.FieldError{Field: entity.FieldParentVersion, Message: "must be empty for a new entity"})
		}
		head.Version = 0
		head.ParentVersion = nil
		head.CreatedAt = now
		return nil
	}

	parent := latest.Version
	if parentHint != nil {
		if *parentHint < 0 || *parentHint > latest.Version {
			return apperr.ValidationError("Parent version does not exist",
				apperr.FieldError{Field: entity.FieldParentVersion, Message: "must be between 0 and the latest version"})
		}
		parent = *parentHint
	}

	head.Version = latest.Version + 1
	head.ParentVersion = &parent
	head.CreatedAt = latest.CreatedAt
	return nil
}

func (store *VersionStore) policy(context context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = retryInitialInterval
	exponential.MaxInterval = retryMaxInterval

	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(store.retries-1)), context)
}

func (store *VersionStore) latest(context context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error) {
	header, err := store.repo.LatestHeader(context, class, id)
	if apperr.HasCode(err, "NOT_FOUND") {
		return nil, nil
	}
	return header, err
}

/*
Get returns one immutable version. Stored versions never change, so a cached
copy is served without revalidation.

Description: After populating the cache the row is stamped again. A delete
that committed between the load and the Set has already run its purge, so
the entry is dropped here unless the loaded row is still the stored one.
*/
func (store *VersionStore) Get(context context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, error) {
	if cached, ok := store.cache.Get(context, class, id, version); ok {
		return cached, nil
	}

	record, err := store.repo.Get(context, class, id, version)
	if err != nil {
		return nil, err
	}

	if _, disabled := store.cache.(NopCache); disabled {
		return record, nil
	}

	store.cache.Set(context, record)

	stamp, err := store.repo.VersionStamp(context, class, id, version)
	if err != nil || !stamp.Equal(record.Head().Timestamp) {
		store.logger.DebugContext(context, "version_cache_fill_discarded",
			slog.String("class", string(class)),
			slog.String("entity_id", id.String()),
			slog.Int("version", version),
		)
		store.cache.Purge(context, class, id, &version)
	}
	return record, nil
}

// Find runs an assembled read against the repository.
func (store *VersionStore) Find(context context.Context, query Query) ([]entity.Entity, int, error) {
	return store.repo.Find(context, query)
}

/*
DeleteVersion hard-deletes one version, or the whole chain when version is nil,
and purges the matching cache entries.

Returns:
  - int64: Version rows removed
  - error: Gone when nothing matched
*/
func (store *VersionStore) DeleteVersion(context context.Context, class entity.Class, id uuid.UUID, version *int) (int64, error) {
	affected, err := store.repo.Delete(context, class, id, version)
	if err != nil {
		return 0, err
	}

	store.cache.Purge(context, class, id, version)

	if affected == 0 {
		return 0, apperr.Gone("No matching version")
	}
	return affected, nil
}
