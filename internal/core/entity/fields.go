// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entity

// # Field Paths

// Internal field paths. Search allow-lists, ordering and the storage adapters
// all address record fields through these names.
const (
	FieldID            = "id"
	FieldVersion       = "version"
	FieldParentVersion = "parent_version"
	FieldOwner         = "owner"
	FieldEditor        = "editor"
	FieldPublished     = "published"
	FieldVisible       = "visible"
	FieldLanguage      = "language"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldSource        = "source"
	FieldTimestamp     = "timestamp"
	FieldCreatedAt     = "created_at"

	// Media only
	FieldRights   = "rights"
	FieldType     = "type"
	FieldCoverage = "coverage"
	FieldRelation = "relation"
)

// Value implements [Entity] for the header fields shared by all classes.
func (h *Header) Value(path string) (any, bool) {
	switch path {
	case FieldID:
		return h.ID, true
	case FieldVersion:
		return h.Version, true
	case FieldParentVersion:
		if h.ParentVersion == nil {
			return nil, true
		}
		return *h.ParentVersion, true
	case FieldOwner:
		return h.Owner, true
	case FieldEditor:
		return h.Editor, true
	case FieldPublished:
		return h.Published, true
	case FieldVisible:
		return h.Visible, true
	case FieldLanguage:
		return h.Language, true
	case FieldTitle:
		return h.Title, true
	case FieldDescription:
		return h.Description, true
	case FieldSource:
		return h.Source, true
	case FieldTimestamp:
		return h.Timestamp, true
	case FieldCreatedAt:
		return h.CreatedAt, true
	}
	return nil, false
}

func (m *MediaObject) Value(path string) (any, bool) {
	switch path {
	case FieldRights:
		return m.Rights, true
	case FieldType:
		return m.Type, true
	case FieldCoverage:
		return m.Coverage, true
	case FieldRelation:
		return m.Relation, true
	}
	return m.Header.Value(path)
}

func (s *Series) Value(path string) (any, bool) {
	return s.Header.Value(path)
}
