// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dast-sv/lectoflip/pkg/uuid"
)

func TestNew(t *testing.T) {
	first, second := uuid.New(), uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14], "version nibble")
	assert.LessOrEqual(t, first[:13], second[:13], "time ordered")
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid("0190a5b2-7c1e-7f3a-9d2b-3c4d5e6f7a8b"))
	assert.False(t, uuid.Valid("missing"))
	assert.False(t, uuid.Valid("{0190a5b2-7c1e-7f3a-9d2b-3c4d5e6f7a8b}"))
	assert.False(t, uuid.Valid("urn:uuid:0190a5b2-7c1e-7f3a-9d2b-3c4d5e6f7a8b"))
}
