// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/platform/config"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://lectoflip@localhost/lectoflip")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_BASE_URL", "https://api.lectoflip.app/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "https://api.lectoflip.app", cfg.PublicBaseURL)
	assert.Equal(t, int64(constants.MaxPDFBytes), cfg.PDFMaxBytes)
	assert.Equal(t, 720*time.Hour, cfg.TrashRetention)
	assert.Empty(t, cfg.RedisURL)
}

/*
TestLoad_Rejects covers missing required variables and inconsistent values.
*/
func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database", env: map[string]string{"JWT_PUBLIC_KEY_PATH": "k.pem", "DATABASE_URL": ""}},
		{name: "non-positive dpi", env: map[string]string{"RASTER_DPI": "0"}},
		{name: "blobs expire before jobs", env: map[string]string{"BLOB_TTL": "10m", "IMPORT_TTL": "1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
