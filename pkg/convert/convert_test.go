// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dast-sv/lectoflip/pkg/convert"
)

func TestToPositiveIntD(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 800},
		{"1280", 1280},
		{"0", 800},
		{"-4", 800},
		{"12px", 800},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convert.ToPositiveIntD(tt.input, 800))
		})
	}
}

func TestToBoolD(t *testing.T) {
	assert.True(t, convert.ToBoolD("", true))
	assert.False(t, convert.ToBoolD("false", true))
	assert.True(t, convert.ToBoolD("1", false))
	assert.False(t, convert.ToBoolD("maybe", false))
}
