// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command devtoken mints an RS256 access token for local development.
//
// It reads the same key paths as the API server:
//
//	JWT_PRIVATE_KEY_PATH=./keys/private.pem JWT_PUBLIC_KEY_PATH=./keys/public.pem \
//	    go run ./cmd/devtoken -owner 0190f7a6-0000-7000-8000-000000000001
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/internal/platform/sec"
	"github.com/dast-sv/lectoflip/pkg/uuid"
)

// keys is the subset of the server configuration needed to sign tokens.
type keys struct {
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
}

var (
	owner = flag.String("owner", "", "owner id to embed in the token (a new id when empty)")
	name  = flag.String("name", "dev", "display name claim")
	ttl   = flag.Duration("ttl", 24*time.Hour, "token lifetime")
)

func main() {
	flag.Parse()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg keys
	if err := env.Parse(&cfg); err != nil {
		log.Error("devtoken_config_invalid", slog.Any("error", err))
		os.Exit(1)
	}

	tokens, err := sec.NewTokenService(cfg.PrivateKeyPath, cfg.PublicKeyPath, constants.AuthIssuer)
	if err != nil {
		log.Error("devtoken_keys_invalid", slog.Any("error", err))
		os.Exit(1)
	}

	ownerID := *owner
	if ownerID == "" {
		ownerID = uuid.New()
	}

	token, err := tokens.IssueOwnerToken(ownerID, *name, *ttl)
	if err != nil {
		log.Error("devtoken_sign_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("devtoken_issued", slog.String("owner", ownerID), slog.Duration("ttl", *ttl))
	fmt.Println(token)
}
