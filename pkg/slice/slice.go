// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with generic mapping,
used mostly to turn id lists into driver-friendly values.
*/
package slice

// Map returns transform applied to every element of input.
//
// A nil input yields nil, which pgx binds as SQL NULL.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}
