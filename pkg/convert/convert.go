// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert parses query parameters leniently.

Viewport sizes, page numbers and flags arrive as optional query strings; a missing or
malformed value falls back to a default instead of failing the request.
*/
package convert

import "strconv"

// ToPositiveIntD parses a strictly positive integer, returning def when the value is
// empty, malformed, zero or negative.
func ToPositiveIntD(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// ToBoolD parses "true", "1", "false", "0" and the other [strconv.ParseBool] forms,
// returning def when the value is empty or malformed.
func ToBoolD(s string, def bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
