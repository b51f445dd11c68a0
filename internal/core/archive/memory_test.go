// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive_test

import (
	"cmp"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/access"
	"github.com/taibuivan/archivum/internal/core/archive"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/identity"
	"github.com/taibuivan/archivum/internal/core/predicate"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// # Fakes

type chainKey struct {
	class   entity.Class
	id      uuid.UUID
	version int
}

// memoryRepository is an in-memory [archive.Repository] that enforces the
// (id, version) key exactly like the primary key constraint does.
type memoryRepository struct {
	mu      sync.Mutex
	records map[chainKey]entity.Entity
	rules   *memoryRules

	// beforeInsert runs outside the lock before every insert.
	beforeInsert func()
	// afterGet runs outside the lock after every successful Get.
	afterGet func()
	insertErr    error
	inserts      int
	gets         int
}

func newMemoryRepository(rules *memoryRules) *memoryRepository {
	return &memoryRepository{records: map[chainKey]entity.Entity{}, rules: rules}
}

// clone deep-copies a record through its wire form.
func clone(record entity.Entity) entity.Entity {
	payload, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	copied, err := entity.New(record.Class())
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(payload, copied); err != nil {
		panic(err)
	}
	return copied
}

func (m *memoryRepository) LatestHeader(_ context.Context, class entity.Class, id uuid.UUID) (*entity.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *entity.Header
	for key, record := range m.records {
		if key.class == class && key.id == id && (latest == nil || key.version > latest.Version) {
			header := *record.Head()
			latest = &header
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("Entity")
	}
	return latest, nil
}

func (m *memoryRepository) Insert(_ context.Context, record entity.Entity) error {
	if m.beforeInsert != nil {
		m.beforeInsert()
	}
	if m.insertErr != nil {
		return m.insertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	head := record.Head()
	key := chainKey{record.Class(), head.ID, head.Version}
	if _, taken := m.records[key]; taken {
		return archive.ErrVersionTaken
	}
	m.records[key] = clone(record)
	m.inserts++
	return nil
}

func (m *memoryRepository) Get(_ context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, error) {
	m.mu.Lock()
	m.gets++
	record, ok := m.records[chainKey{class, id, version}]
	if !ok {
		m.mu.Unlock()
		return nil, apperr.NotFound("Entity")
	}
	loaded := clone(record)
	m.mu.Unlock()

	if m.afterGet != nil {
		m.afterGet()
	}
	return loaded, nil
}

func (m *memoryRepository) VersionStamp(_ context.Context, class entity.Class, id uuid.UUID, version int) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[chainKey{class, id, version}]
	if !ok {
		return time.Time{}, apperr.NotFound("Entity")
	}
	return record.Head().Timestamp, nil
}

func (m *memoryRepository) Find(_ context.Context, query archive.Query) ([]entity.Entity, int, error) {
	m.mu.Lock()
	var chain []entity.Entity
	for key, record := range m.records {
		if key.class == query.Class {
			chain = append(chain, clone(record))
		}
	}
	m.mu.Unlock()

	var matched []entity.Entity
	for _, record := range query.View.Apply(chain) {
		ok, err := predicate.Eval(query.Filter, record, m.rules.grantFunc)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, record)
		}
	}

	slices.SortFunc(matched, func(a, b entity.Entity) int {
		if query.Order != nil {
			left, _ := a.Value(query.Order.Path)
			right, _ := b.Value(query.Order.Path)
			if order := compareValues(left, right); order != 0 {
				if query.Order.Descending {
					return -order
				}
				return order
			}
		}
		if order := strings.Compare(a.Head().ID.String(), b.Head().ID.String()); order != 0 {
			return order
		}
		return cmp.Compare(a.Head().Version, b.Head().Version)
	})

	total := len(matched)
	start := min(query.Offset, total)
	end := min(start+query.Limit, total)
	return matched[start:end], total, nil
}

func (m *memoryRepository) Delete(_ context.Context, class entity.Class, id uuid.UUID, version *int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for key := range m.records {
		if key.class == class && key.id == id && (version == nil || key.version == *version) {
			delete(m.records, key)
			affected++
		}
	}
	return affected, nil
}

func compareValues(left, right any) int {
	switch typed := left.(type) {
	case string:
		return strings.Compare(typed, right.(string))
	case int:
		return cmp.Compare(typed, right.(int))
	case time.Time:
		return typed.Compare(right.(time.Time))
	case uuid.UUID:
		return strings.Compare(typed.String(), right.(uuid.UUID).String())
	}
	return 0
}

// memoryRules is an in-memory [access.Repository] holding grants only.
type memoryRules struct {
	mu    sync.Mutex
	rules []*access.Rule
}

func (m *memoryRules) grant(class entity.Class, id uuid.UUID, grantee uuid.UUID, read, write bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &access.Rule{
		ID:     uuid.New(),
		Target: access.Target{Class: class, EntityID: id},
		UserID: &grantee,
		Read:   read,
		Write:  write,
	})
}

func (m *memoryRules) HasGrant(_ context.Context, target access.Target, grantees []uuid.UUID, mode access.Mode) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rule := range m.rules {
		if rule.Target == target && rule.Grants(mode) && slices.Contains(grantees, rule.Grantee()) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRules) List(context.Context, access.Target) ([]*access.Rule, error) { return nil, nil }
func (m *memoryRules) Find(context.Context, uuid.UUID) (*access.Rule, error) {
	return nil, apperr.NotFound("Rule")
}
func (m *memoryRules) Create(context.Context, *access.Rule) error        { return nil }
func (m *memoryRules) Delete(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (m *memoryRules) grantFunc(grant predicate.Grant, row predicate.Row) bool {
	id, _ := row.Value(entity.FieldID)
	mode := access.ModeRead
	if grant.Write {
		mode = access.ModeWrite
	}
	ok, _ := m.HasGrant(context.Background(), access.Target{Class: grant.Class, EntityID: id.(uuid.UUID)}, grant.Grantees, mode)
	return ok
}

// # Fixtures

type fixture struct {
	repo    *memoryRepository
	rules   *memoryRules
	store   *archive.VersionStore
	service *archive.Service
}

func newFixture(retryLimit int) *fixture {
	rules := &memoryRules{}
	repo := newMemoryRepository(rules)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := archive.NewVersionStore(repo, archive.NopCache{}, retryLimit, logger)
	service := archive.NewService(store, access.NewEvaluator(rules), 500, logger)

	return &fixture{repo: repo, rules: rules, store: store, service: service}
}

func member(tier sec.Tier) identity.Identity {
	return identity.Identity{UserID: uuid.New(), Tier: tier, Groups: map[uuid.UUID]string{}}
}

func media(id uuid.UUID, owner uuid.UUID, title string, published bool) *entity.MediaObject {
	return &entity.MediaObject{
		Header: entity.Header{
			ID:        id,
			Owner:     owner,
			Editor:    owner,
			Published: published,
			Visible:   true,
			Language:  "en",
			Title:     title,
		},
	}
}
