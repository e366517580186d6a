// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/platform/sec"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

/*
TestTokenService_RoundTrip signs a token and verifies it with the public key.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	key := newKey(t)
	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "test.issuer")

	token, err := service.IssueOwnerToken("owner-1", "ana", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID)
	assert.Equal(t, "ana", claims.Name)
}

func TestTokenService_Rejects(t *testing.T) {
	key := newKey(t)
	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "test.issuer")

	expired, err := service.IssueOwnerToken("owner-1", "ana", -time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(expired)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	other := newKey(t)
	foreign, err := sec.NewTokenServiceFromKeys(other, &other.PublicKey, "test.issuer").IssueOwnerToken("x", "y", time.Hour)
	require.NoError(t, err)
	_, err = service.VerifyToken(foreign)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	wrongIssuer, err := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "elsewhere").IssueOwnerToken("x", "y", time.Hour)
	require.NoError(t, err)
	_, err = service.VerifyToken(wrongIssuer)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	_, err = service.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

func TestTokenService_VerifyOnly(t *testing.T) {
	key := newKey(t)
	service := sec.NewTokenServiceFromKeys(nil, &key.PublicKey, "test.issuer")

	_, err := service.IssueOwnerToken("owner-1", "ana", time.Hour)
	assert.ErrorIs(t, err, sec.ErrSigningDisabled)
}

func TestNewTokenService_FromFiles(t *testing.T) {
	key := newKey(t)
	dir := t.TempDir()

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}), 0o600))

	privatePath := filepath.Join(dir, "private.pem")
	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))

	verifier, err := sec.NewTokenService("", publicPath, "test.issuer")
	require.NoError(t, err)
	signer, err := sec.NewTokenService(privatePath, publicPath, "test.issuer")
	require.NoError(t, err)

	token, err := signer.IssueOwnerToken("owner-1", "", time.Hour)
	require.NoError(t, err)
	claims, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)

	_, err = sec.NewTokenService("", filepath.Join(dir, "missing.pem"), "test.issuer")
	assert.Error(t, err)
}
