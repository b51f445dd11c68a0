// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/archivum/internal/platform/migration"
)

/*
TestDriverURL verifies the scheme rewrite for the golang-migrate pgx driver.
*/
func TestDriverURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@db:5432/archivum", "pgx5://u:p@db:5432/archivum"},
		{"postgresql://db/archivum?sslmode=disable", "pgx5://db/archivum?sslmode=disable"},
		{"pgx5://db/archivum", "pgx5://db/archivum"},
		{"host=db dbname=archivum", "host=db dbname=archivum"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, migration.DriverURL(tt.dsn))
		})
	}
}
