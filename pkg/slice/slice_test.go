// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/archivum/pkg/slice"
)

/*
TestMap covers the nil, empty and populated cases.
*/
func TestMap(t *testing.T) {
	id := uuid.MustParse("6f1c7c1e-0000-4000-8000-000000000001")

	assert.Nil(t, slice.Map[uuid.UUID, string](nil, uuid.UUID.String))
	assert.Equal(t, []string{}, slice.Map([]uuid.UUID{}, uuid.UUID.String))
	assert.Equal(t, []string{"6f1c7c1e-0000-4000-8000-000000000001"}, slice.Map([]uuid.UUID{id}, uuid.UUID.String))
}
