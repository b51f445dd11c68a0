// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package search compiles the archive's textual query language into a predicate tree.

# Grammar

	query    = disjunct { ";" disjunct }   // OR
	disjunct = conjunct { "," conjunct }   // AND
	conjunct = operator ":" field ":" value

Values that need to contain "," or ";" are written as "base64:<payload>".

# Output

The compiler returns an OR of ANDs of [predicate.Compare] nodes over internal
field paths. It never produces query text; rendering and escaping belong to
the storage adapter.
*/
package search

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/predicate"
)

const (
	orSeparator   = ";"
	andSeparator  = ","
	partSeparator = ":"
	base64Prefix  = "base64:"

	// TimeLayout is the normalized form of time values.
	TimeLayout = "2006-01-02 15:04:05"
)

// langRegex matches IETF-language-tag-shaped values.
var langRegex = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{1,8})*$`)

// Error describes why a query was rejected.
type Error struct {
	// Conjunct is the offending "op:field:value" term.
	Conjunct string
	Reason   string
}

func (e *Error) Error() string {
	if e.Conjunct == "" {
		return "search: " + e.Reason
	}
	return fmt.Sprintf("search: %s in %q", e.Reason, e.Conjunct)
}

// Compile parses query against fields. An empty query compiles to nil, which
// matches every row.
func Compile(query string, fields AllowList) (predicate.Node, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var disjuncts predicate.Or
	for _, rawDisjunct := range strings.Split(query, orSeparator) {
		var conjuncts predicate.And
		for _, rawConjunct := range strings.Split(rawDisjunct, andSeparator) {
			node, err := compileConjunct(rawConjunct, fields)
			if err != nil {
				return nil, err
			}
			conjuncts = append(conjuncts, node)
		}
		disjuncts = append(disjuncts, conjuncts)
	}

	return disjuncts, nil
}

func compileConjunct(raw string, fields AllowList) (predicate.Compare, error) {
	parts := strings.SplitN(raw, partSeparator, 3)
	if len(parts) < 3 {
		return predicate.Compare{}, &Error{Conjunct: raw, Reason: "expected operator:field:value"}
	}

	op := predicate.Op(strings.TrimSpace(parts[0]))
	name := strings.TrimSpace(parts[1])
	rawValue := parts[2]

	field, ok := fields[name]
	if !ok {
		return predicate.Compare{}, &Error{Conjunct: raw, Reason: fmt.Sprintf("unknown field %q", name)}
	}

	if !op.IsValid() || !field.Type.Supports(op) {
		return predicate.Compare{}, &Error{Conjunct: raw, Reason: fmt.Sprintf("operator %q not allowed for %s field %q", op, field.Type, name)}
	}

	text, err := decodeValue(rawValue)
	if err != nil {
		return predicate.Compare{}, &Error{Conjunct: raw, Reason: err.Error()}
	}

	value, err := coerce(field.Type, text)
	if err != nil {
		return predicate.Compare{}, &Error{Conjunct: raw, Reason: err.Error()}
	}

	return predicate.Compare{Path: field.Path, Op: op, Value: value}, nil
}

// decodeValue unwraps "base64:" values. Standard and URL alphabets are accepted.
func decodeValue(raw string) (string, error) {
	if !strings.HasPrefix(raw, base64Prefix) {
		return raw, nil
	}

	payload := strings.TrimPrefix(raw, base64Prefix)
	for _, encoding := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if decoded, err := encoding.DecodeString(payload); err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("invalid base64 value")
}

func coerce(fieldType Type, text string) (any, error) {
	switch fieldType {
	case TypeUUID:
		id, err := uuid.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q", text)
		}
		return id, nil

	case TypeInt:
		// Stored integers are 32-bit columns.
		number, err := strconv.ParseInt(text, 10, 32)
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("integer %q out of range", text)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", text)
		}
		return int(number), nil

	case TypeStr:
		return text, nil

	case TypeTime:
		return ParseTime(text)

	case TypeLang:
		if !langRegex.MatchString(text) {
			return nil, fmt.Errorf("invalid language tag %q", text)
		}
		return text, nil
	}

	return nil, fmt.Errorf("unsupported field type %q", fieldType)
}

// ParseTime accepts "YYYY-MM-DD HH:MM:SS" or an RFC 2822 timestamp and
// normalizes it to the fixed form in UTC.
func ParseTime(text string) (time.Time, error) {
	if parsed, err := time.Parse(TimeLayout, text); err == nil {
		return parsed, nil
	}

	parsed, err := mail.ParseDate(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", text)
	}

	// Normalize through the fixed form to drop sub-second precision and zone
	normalized := parsed.UTC().Format(TimeLayout)
	return time.Parse(TimeLayout, normalized)
}

// IsLanguageTag reports whether text has the shape of a language tag.
func IsLanguageTag(text string) bool {
	return langRegex.MatchString(text)
}
