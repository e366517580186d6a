// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package theme holds the named visual tokens a page may reference.

The token tables (background palette, font families, border radii and entrance
animations) are embedded as YAML and parsed exactly once at package initialisation.
They are read-only afterwards; every exported accessor returns a copy.

Usage:

	bg := theme.ResolveBackground(p.Background)
	style := bg.CSS()
*/
package theme

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed theme.yaml
var rawTheme []byte

// DefaultBackgroundKey is the palette entry used when nothing else resolves.
const DefaultBackgroundKey = "blanco"

// DefaultBorderKey renders square corners.
const DefaultBorderKey = "square"

// urlPattern matches backgrounds that must be rendered as cover images.
var urlPattern = regexp.MustCompile(`^(https?://|localhost|blob:)`)

// tokens mirrors the layout of theme.yaml.
type tokens struct {
	Palette    map[string]string `yaml:"palette"`
	Fonts      map[string]string `yaml:"fonts"`
	Borders    map[string]string `yaml:"borders"`
	Animations map[string]string `yaml:"animations"`
}

var active = mustLoad(rawTheme)

// mustLoad parses the embedded theme. A broken embedded file is a build defect.
func mustLoad(data []byte) tokens {
	var t tokens
	if err := yaml.Unmarshal(data, &t); err != nil {
		panic(fmt.Sprintf("theme: invalid embedded theme: %v", err))
	}
	if _, ok := t.Palette[DefaultBackgroundKey]; !ok {
		panic("theme: palette must define " + DefaultBackgroundKey)
	}
	if _, ok := t.Borders[DefaultBorderKey]; !ok {
		panic("theme: borders must define " + DefaultBorderKey)
	}
	return t
}

// # Backgrounds

// Background is the resolved form of a page background token.
type Background struct {
	// Key is the palette key that resolved, or empty for image backgrounds.
	Key string `json:"key,omitempty"`
	// Value is the palette CSS value or the image URL.
	Value string `json:"value"`
	// IsImage is true when Value is a URL rendered with cover sizing.
	IsImage bool `json:"isImage"`
	// Custom is false only for the default white background.
	Custom bool `json:"custom"`
}

// ResolveBackground applies the background precedence rule:
// palette key, then URL pattern, then the default "blanco" entry.
//
// Arbitrary strings (e.g. "red" or "#ff0000") are not palette keys and not URLs,
// so they resolve to the default. They are never emitted as literal CSS colours.
func ResolveBackground(value string) Background {
	token := strings.TrimSpace(value)

	if css, ok := active.Palette[token]; ok {
		return Background{Key: token, Value: css, Custom: token != DefaultBackgroundKey}
	}

	if urlPattern.MatchString(token) {
		return Background{Value: token, IsImage: true, Custom: true}
	}

	return Background{Key: DefaultBackgroundKey, Value: active.Palette[DefaultBackgroundKey]}
}

// CSS renders the background as inline style declarations.
func (b Background) CSS() string {
	if b.IsImage {
		return fmt.Sprintf(`background-image: url("%s"); background-size: cover; background-position: center; background-repeat: no-repeat`, escapeCSSURL(b.Value))
	}
	return "background: " + b.Value
}

// escapeCSSURL keeps a URL from breaking out of a quoted CSS url() token.
func escapeCSSURL(raw string) string {
	replacer := strings.NewReplacer(`"`, "%22", `\`, "%5C", "\n", "", "\r", "", "<", "%3C", ">", "%3E")
	return replacer.Replace(raw)
}

// IsURL reports whether a background value is rendered as an image.
func IsURL(value string) bool {
	return urlPattern.MatchString(strings.TrimSpace(value))
}

// CSSURL returns a quoted CSS url() token for value, or false when value is not an
// accepted image URL.
func CSSURL(value string) (string, bool) {
	token := strings.TrimSpace(value)
	if !urlPattern.MatchString(token) {
		return "", false
	}
	return `url("` + escapeCSSURL(token) + `")`, true
}

// # Borders, Fonts & Animations

// ResolveBorder returns the CSS radius for a border token, defaulting to square.
func ResolveBorder(token string) string {
	if radius, ok := active.Borders[strings.TrimSpace(token)]; ok {
		return radius
	}
	return active.Borders[DefaultBorderKey]
}

// ResolveFont returns the CSS font-family of a font token.
func ResolveFont(token string) (string, bool) {
	family, ok := active.Fonts[strings.TrimSpace(token)]
	return family, ok
}

// ResolveAnimation returns the CSS class of an entrance animation token.
func ResolveAnimation(token string) (string, bool) {
	class, ok := active.Animations[strings.TrimSpace(token)]
	return class, ok
}

// # Catalogue

// Catalogue lists every token name, sorted, for picker UIs.
type Catalogue struct {
	Palette    []string `json:"palette"`
	Fonts      []string `json:"fonts"`
	Borders    []string `json:"borders"`
	Animations []string `json:"animations"`
}

// Keys returns the sorted token names of every table.
func Keys() Catalogue {
	return Catalogue{
		Palette:    sortedKeys(active.Palette),
		Fonts:      sortedKeys(active.Fonts),
		Borders:    sortedKeys(active.Borders),
		Animations: sortedKeys(active.Animations),
	}
}

// IsPaletteKey reports whether token names a palette entry.
func IsPaletteKey(token string) bool {
	_, ok := active.Palette[token]
	return ok
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
