// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns book titles into ASCII URL slugs ("El Búho Sabio" → "el-buho-sabio").
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds a slug; longer titles are cut at the last hyphen that fits.
const MaxLen = 80

// stripMarks decomposes accented letters and drops the combining marks (ñ → n, é → e).
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// From converts a title into a lowercase slug of ASCII letters, digits and single
// hyphens. Titles without any letter or digit give "".
func From(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}

	result := builder.String()
	if len(result) <= MaxLen {
		return result
	}
	result = result[:MaxLen]
	if cut := strings.LastIndexByte(result, '-'); cut > 0 {
		result = result[:cut]
	}
	return strings.TrimRight(result, "-")
}
