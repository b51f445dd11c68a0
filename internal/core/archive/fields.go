// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/core/search"
)

// # Searchable Fields

// commonSearchFields are shared by every class.
var commonSearchFields = search.AllowList{
	"id":             {Type: search.TypeUUID, Path: entity.FieldID},
	"version":        {Type: search.TypeInt, Path: entity.FieldVersion},
	"parent_version": {Type: search.TypeInt, Path: entity.FieldParentVersion},
	"owner":          {Type: search.TypeUUID, Path: entity.FieldOwner},
	"editor":         {Type: search.TypeUUID, Path: entity.FieldEditor},
	"language":       {Type: search.TypeLang, Path: entity.FieldLanguage},
	"title":          {Type: search.TypeStr, Path: entity.FieldTitle},
	"description":    {Type: search.TypeStr, Path: entity.FieldDescription},
	"source":         {Type: search.TypeStr, Path: entity.FieldSource},
	"timestamp":      {Type: search.TypeTime, Path: entity.FieldTimestamp},
	"created":        {Type: search.TypeTime, Path: entity.FieldCreatedAt},
}

// mediaSearchFields adds the media payload.
var mediaSearchFields = extend(commonSearchFields, search.AllowList{
	"rights":   {Type: search.TypeStr, Path: entity.FieldRights},
	"type":     {Type: search.TypeStr, Path: entity.FieldType},
	"coverage": {Type: search.TypeStr, Path: entity.FieldCoverage},
	"relation": {Type: search.TypeStr, Path: entity.FieldRelation},
})

// SearchFields returns the public search allow-list of class.
func SearchFields(class entity.Class) search.AllowList {
	if class == entity.ClassMedia {
		return mediaSearchFields
	}
	return commonSearchFields
}

// # Sortable Fields

var commonOrderFields = map[string]string{
	"id":        entity.FieldID,
	"version":   entity.FieldVersion,
	"language":  entity.FieldLanguage,
	"title":     entity.FieldTitle,
	"timestamp": entity.FieldTimestamp,
	"created":   entity.FieldCreatedAt,
}

var mediaOrderFields = extend(commonOrderFields, map[string]string{
	"type": entity.FieldType,
})

// OrderFields maps the public sortable field names of class to field paths.
func OrderFields(class entity.Class) map[string]string {
	if class == entity.ClassMedia {
		return mediaOrderFields
	}
	return commonOrderFields
}

func extend[M ~map[string]V, V any](base, extra M) M {
	merged := make(M, len(base)+len(extra))
	for name, value := range base {
		merged[name] = value
	}
	for name, value := range extra {
		merged[name] = value
	}
	return merged
}
