// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ArchiveRelationTable represents a version-scoped join table keyed by
// (entity id, entity version, related id).
type ArchiveRelationTable struct {
	Table         string
	EntityID      string
	EntityVersion string
	RelatedID     string
}

// Media relations
var (
	MediaCreator = ArchiveRelationTable{
		Table: "archive.mediacreator", EntityID: "mediaid", EntityVersion: "mediaversion", RelatedID: "personid",
	}
	MediaContributor = ArchiveRelationTable{
		Table: "archive.mediacontributor", EntityID: "mediaid", EntityVersion: "mediaversion", RelatedID: "personid",
	}
	MediaPublisher = ArchiveRelationTable{
		Table: "archive.mediapublisher", EntityID: "mediaid", EntityVersion: "mediaversion", RelatedID: "organizationid",
	}
	MediaSubject = ArchiveRelationTable{
		Table: "archive.mediasubject", EntityID: "mediaid", EntityVersion: "mediaversion", RelatedID: "subjectid",
	}
)

// Series relations
var (
	SeriesCreator = ArchiveRelationTable{
		Table: "archive.seriescreator", EntityID: "seriesid", EntityVersion: "seriesversion", RelatedID: "personid",
	}
	SeriesPublisher = ArchiveRelationTable{
		Table: "archive.seriespublisher", EntityID: "seriesid", EntityVersion: "seriesversion", RelatedID: "organizationid",
	}
	SeriesSubject = ArchiveRelationTable{
		Table: "archive.seriessubject", EntityID: "seriesid", EntityVersion: "seriesversion", RelatedID: "subjectid",
	}
	SeriesMedia = ArchiveRelationTable{
		Table: "archive.seriesmedia", EntityID: "seriesid", EntityVersion: "seriesversion", RelatedID: "mediaid",
	}
)
