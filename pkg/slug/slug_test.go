// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/archivum/pkg/slug"
)

/*
TestFrom verifies that spoofed spellings of a name fold to the same slug.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"public", "public"},
		{"Públic", "public"},
		{"  ADMIN  ", "admin"},
		{"Ädmin", "admin"},
		{"Sound Archive / 1970s", "sound-archive-1970s"},
		{"--", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}
