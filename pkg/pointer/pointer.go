// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer helps with the optional fields of partial updates, where a nil
// pointer means "leave unchanged".
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Fallback dereferences p, or returns current when p is nil.
func Fallback[T any](p *T, current T) T {
	if p == nil {
		return current
	}
	return *p
}
