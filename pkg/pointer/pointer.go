// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer helps build optional fields such as parent versions.
package pointer

// To returns a pointer to a copy of v.
//
// Optional record fields are pointers, so literals need an addressable copy
// (e.g. pointer.To(2) for a parent version).
func To[T any](v T) *T {
	return &v
}
