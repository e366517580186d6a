// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dast-sv/lectoflip/pkg/slice"
)

func TestMapFilter(t *testing.T) {
	items := []string{" rojo ", "", " azul"}

	trimmed := slice.Map(items, strings.TrimSpace)
	assert.Equal(t, []string{"rojo", "", "azul"}, trimmed)

	kept := slice.Filter(trimmed, func(item string) bool { return item != "" })
	assert.Equal(t, []string{"rojo", "azul"}, kept)

	assert.Nil(t, slice.Map[string, string](nil, strings.TrimSpace))
	assert.Nil(t, slice.Filter([]string{""}, func(item string) bool { return item != "" }))
}
