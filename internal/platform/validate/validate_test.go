// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/platform/apperr"
	"github.com/taibuivan/archivum/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "Field Recordings", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_LanguageTag checks BCP 47 well-formedness.
*/
func TestValidator_LanguageTag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"primary_only", "en", true},
		{"with_region", "en-GB", true},
		{"three_letter", "deu", true},
		{"empty", "", false},
		{"garbage", "not a tag", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.LanguageTag("language", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain verifies that failures from several rules are collected together.
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}
	v.Required("title", "").
		NonNegative("offset", -1).
		UUID("owner", "nope").
		OneOf("class", "book", "media", "series").
		MaxLen("source", "abc", 2)

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 5)
	assert.Equal(t, "offset", ae.Details[1].Field)
}
