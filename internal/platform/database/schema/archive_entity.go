// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ArchiveEntityTable represents a versioned entity table ('archive.media' or 'archive.series').
//
// Both classes share the versioning columns; media-only columns are empty on series.
type ArchiveEntityTable struct {
	Table         string
	ID            string
	Version       string
	ParentVersion string
	Owner         string
	Editor        string
	Published     string
	Visible       string
	Language      string
	Title         string
	Description   string
	Source        string
	Timestamp     string
	CreatedAt     string

	// Media only
	Rights   string
	Type     string
	Coverage string
	Relation string

	// PrimaryKey is the constraint guarding (id, version) uniqueness.
	PrimaryKey string
}

// ArchiveMedia is the schema definition for archive.media
var ArchiveMedia = ArchiveEntityTable{
	Table:         "archive.media",
	ID:            "id",
	Version:       "version",
	ParentVersion: "parentversion",
	Owner:         "owner",
	Editor:        "editor",
	Published:     "published",
	Visible:       "visible",
	Language:      "language",
	Title:         "title",
	Description:   "description",
	Source:        "source",
	Timestamp:     "timestamp",
	CreatedAt:     "createdat",
	Rights:        "rights",
	Type:          "type",
	Coverage:      "coverage",
	Relation:      "relation",
	PrimaryKey:    "media_pkey",
}

// ArchiveSeries is the schema definition for archive.series
var ArchiveSeries = ArchiveEntityTable{
	Table:         "archive.series",
	ID:            "id",
	Version:       "version",
	ParentVersion: "parentversion",
	Owner:         "owner",
	Editor:        "editor",
	Published:     "published",
	Visible:       "visible",
	Language:      "language",
	Title:         "title",
	Description:   "description",
	Source:        "source",
	Timestamp:     "timestamp",
	CreatedAt:     "createdat",
	PrimaryKey:    "series_pkey",
}

// HeaderColumns returns the versioning and descriptive columns shared by all classes.
func (t ArchiveEntityTable) HeaderColumns() []string {
	return []string{
		t.ID, t.Version, t.ParentVersion, t.Owner, t.Editor, t.Published, t.Visible,
		t.Language, t.Title, t.Description, t.Source, t.Timestamp, t.CreatedAt,
	}
}

// MediaColumns returns the media-only payload columns.
func (t ArchiveEntityTable) MediaColumns() []string {
	return []string{t.Rights, t.Type, t.Coverage, t.Relation}
}
