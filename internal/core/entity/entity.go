// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package entity defines the versioned records kept by the archive.

Every logical media object or series is a chain of immutable versions sharing
one ID. Versions are numbered 0, 1, 2, ... and never updated in place; editing
appends a new version that points back at the one it was derived from.

Core Responsibility:

  - Records: [MediaObject] and [Series] as explicit, typed payloads.
  - Lineage: [Header] carries the (id, version, parent_version) triple.
  - Relations: version-scoped links to people, organizations, subjects and media.
*/
package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// # Entity Classes

// Class names the kind of versioned record.
type Class string

const (
	ClassMedia  Class = "media"
	ClassSeries Class = "series"
)

// IsValid reports whether c is a recognised [Class].
func (c Class) IsValid() bool {
	switch c {
	case ClassMedia, ClassSeries:
		return true
	}
	return false
}

// ParseClass converts a raw string into a [Class].
func ParseClass(raw string) (Class, error) {
	class := Class(raw)
	if !class.IsValid() {
		return "", fmt.Errorf("entity: unknown class %q", raw)
	}
	return class, nil
}

// # Relation Kinds

// RelationKind names one of the version-scoped join tables.
type RelationKind string

const (
	RelationCreator     RelationKind = "creator"
	RelationContributor RelationKind = "contributor"
	RelationPublisher   RelationKind = "publisher"
	RelationSubject     RelationKind = "subject"
	RelationMedia       RelationKind = "media"
)

// # Core Records

// Header is the versioning envelope shared by every record class.
type Header struct {
	ID            uuid.UUID `json:"id"`
	Version       int       `json:"version"`
	ParentVersion *int      `json:"parent_version"`
	Owner         uuid.UUID `json:"owner"`
	Editor        uuid.UUID `json:"editor"`
	Published     bool      `json:"published"`
	Visible       bool      `json:"visible"`
	Language      string    `json:"language"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Source        string    `json:"source,omitempty"`
	Timestamp     time.Time `json:"timestamp"`  // when this version was written
	CreatedAt     time.Time `json:"created_at"` // when version 0 was written
}

// Entity is implemented by every versioned record class.
type Entity interface {
	Head() *Header
	Class() Class

	// Relations returns the related ids grouped by join table.
	Relations() map[RelationKind][]uuid.UUID

	// Value exposes a field by its internal path for in-memory predicate evaluation.
	Value(path string) (any, bool)
}

// MediaObject describes a single recording, document or other media item.
type MediaObject struct {
	Header

	Rights   string `json:"rights,omitempty"`
	Type     string `json:"type,omitempty"`
	Coverage string `json:"coverage,omitempty"`
	Relation string `json:"relation,omitempty"`

	Creators     []uuid.UUID `json:"creators"`
	Contributors []uuid.UUID `json:"contributors"`
	Publishers   []uuid.UUID `json:"publishers"`
	Subjects     []uuid.UUID `json:"subjects"`
}

// Series groups media objects; membership is part of each series version.
type Series struct {
	Header

	Creators   []uuid.UUID `json:"creators"`
	Publishers []uuid.UUID `json:"publishers"`
	Subjects   []uuid.UUID `json:"subjects"`
	Media      []uuid.UUID `json:"media"`
}

func (m *MediaObject) Head() *Header { return &m.Header }
func (m *MediaObject) Class() Class  { return ClassMedia }

func (m *MediaObject) Relations() map[RelationKind][]uuid.UUID {
	return map[RelationKind][]uuid.UUID{
		RelationCreator:     m.Creators,
		RelationContributor: m.Contributors,
		RelationPublisher:   m.Publishers,
		RelationSubject:     m.Subjects,
	}
}

func (s *Series) Head() *Header { return &s.Header }
func (s *Series) Class() Class  { return ClassSeries }

func (s *Series) Relations() map[RelationKind][]uuid.UUID {
	return map[RelationKind][]uuid.UUID{
		RelationCreator:   s.Creators,
		RelationPublisher: s.Publishers,
		RelationSubject:   s.Subjects,
		RelationMedia:     s.Media,
	}
}

// New returns an empty record of the given class.
func New(class Class) (Entity, error) {
	switch class {
	case ClassMedia:
		return &MediaObject{}, nil
	case ClassSeries:
		return &Series{}, nil
	}
	return nil, fmt.Errorf("entity: unknown class %q", class)
}

// SetRelation assigns related ids of one kind, rejecting kinds the class does not carry.
func SetRelation(e Entity, kind RelationKind, ids []uuid.UUID) error {
	switch record := e.(type) {
	case *MediaObject:
		switch kind {
		case RelationCreator:
			record.Creators = ids
		case RelationContributor:
			record.Contributors = ids
		case RelationPublisher:
			record.Publishers = ids
		case RelationSubject:
			record.Subjects = ids
		default:
			return fmt.Errorf("entity: media has no %s relation", kind)
		}
	case *Series:
		switch kind {
		case RelationCreator:
			record.Creators = ids
		case RelationPublisher:
			record.Publishers = ids
		case RelationSubject:
			record.Subjects = ids
		case RelationMedia:
			record.Media = ids
		default:
			return fmt.Errorf("entity: series has no %s relation", kind)
		}
	default:
		return fmt.Errorf("entity: unsupported record %T", e)
	}
	return nil
}
