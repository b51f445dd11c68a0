// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ArchiveAccessRuleTable represents the 'archive.accessrule' table
type ArchiveAccessRuleTable struct {
	Table       string
	ID          string
	MediaID     string
	SeriesID    string
	UserID      string
	GroupID     string
	ReadAccess  string
	WriteAccess string
	CreatedAt   string
}

// ArchiveAccessRule is the schema definition for archive.accessrule
var ArchiveAccessRule = ArchiveAccessRuleTable{
	Table:       "archive.accessrule",
	ID:          "id",
	MediaID:     "mediaid",
	SeriesID:    "seriesid",
	UserID:      "userid",
	GroupID:     "groupid",
	ReadAccess:  "readaccess",
	WriteAccess: "writeaccess",
	CreatedAt:   "createdat",
}

// Columns returns all standard column names
func (t ArchiveAccessRuleTable) Columns() []string {
	return []string{t.ID, t.MediaID, t.SeriesID, t.UserID, t.GroupID, t.ReadAccess, t.WriteAccess, t.CreatedAt}
}
