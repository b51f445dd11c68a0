// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
)

// # View Selection

// ViewSelector chooses which version rows a read operates over.
type ViewSelector int

const (
	// ViewAll reads every stored version.
	ViewAll ViewSelector = iota

	// ViewLatest reads only the highest version of each id.
	ViewLatest

	// ViewPublished reads every published version.
	ViewPublished

	// ViewLatestPublished reads the highest version of each id, and only when it is published.
	ViewLatestPublished
)

// ResolveView maps the two read flags onto a [ViewSelector].
func ResolveView(onlyLatest, onlyPublished bool) ViewSelector {
	switch {
	case onlyLatest && onlyPublished:
		return ViewLatestPublished
	case onlyLatest:
		return ViewLatest
	case onlyPublished:
		return ViewPublished
	}
	return ViewAll
}

// OnlyLatest reports whether the view keeps only the highest version per id.
func (v ViewSelector) OnlyLatest() bool {
	return v == ViewLatest || v == ViewLatestPublished
}

// OnlyPublished reports whether the view keeps only published versions.
func (v ViewSelector) OnlyPublished() bool {
	return v == ViewPublished || v == ViewLatestPublished
}

func (v ViewSelector) String() string {
	switch v {
	case ViewLatest:
		return "latest"
	case ViewPublished:
		return "published"
	case ViewLatestPublished:
		return "latest_published"
	}
	return "all"
}

// Apply filters records down to the view. "Latest" is decided over the full
// chain of each id before the published flag is consulted.
func (v ViewSelector) Apply(records []entity.Entity) []entity.Entity {
	latest := make(map[uuid.UUID]int)
	for _, record := range records {
		head := record.Head()
		if current, ok := latest[head.ID]; !ok || head.Version > current {
			latest[head.ID] = head.Version
		}
	}

	var selected []entity.Entity
	for _, record := range records {
		head := record.Head()
		if v.OnlyLatest() && head.Version != latest[head.ID] {
			continue
		}
		if v.OnlyPublished() && !head.Published {
			continue
		}
		selected = append(selected, record)
	}
	return selected
}
