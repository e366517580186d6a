// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec verifies the RS256 owner tokens that scope books to their owner.
//
// The service never stores credentials. Identity comes from whoever holds the private
// key; the API only needs the public half. cmd/devtoken mints tokens for local use.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningDisabled is returned when a token is requested from a verify-only service.
	ErrSigningDisabled = errors.New("sec: signing key not configured")

	// ErrInvalidToken wraps every verification failure.
	ErrInvalidToken = errors.New("sec: invalid token")
)

// OwnerClaims is the payload of an owner token. Short JSON names keep it compact
// enough for a websocket query parameter.
type OwnerClaims struct {
	jwt.RegisteredClaims

	OwnerID string `json:"oid"`
	Name    string `json:"nam,omitempty"`
}

// TokenService signs and verifies owner tokens.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

/*
NewTokenService reads PEM encoded RSA keys from disk.

Parameters:
  - privateKeyPath: may be empty; the service then verifies only
  - publicKeyPath: required
  - issuer: expected 'iss' claim

Returns:
  - *TokenService
  - error: unreadable or malformed key
*/
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	publicKey, err := readKey(publicKeyPath, jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}

	var privateKey *rsa.PrivateKey
	if privateKeyPath != "" {
		if privateKey, err = readKey(privateKeyPath, jwt.ParseRSAPrivateKeyFromPEM); err != nil {
			return nil, err
		}
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, issuer), nil
}

func readKey[K any](path string, parse func([]byte) (K, error)) (K, error) {
	var zero K
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("sec: read key %s: %w", path, err)
	}
	key, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("sec: parse key %s: %w", path, err)
	}
	return key, nil
}

// NewTokenServiceFromKeys builds a service from already parsed keys.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}
}

// IssueOwnerToken signs a token for ownerID that expires after timeToLive.
func (service *TokenService) IssueOwnerToken(ownerID, name string, timeToLive time.Duration) (string, error) {
	if service.privateKey == nil {
		return "", ErrSigningDisabled
	}

	now := time.Now()
	claims := OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
		},
		OwnerID: ownerID,
		Name:    name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer and expiry, and requires a non-empty owner.
func (service *TokenService) VerifyToken(tokenString string) (*OwnerClaims, error) {
	claims := &OwnerClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.OwnerID == "" {
		return nil, fmt.Errorf("%w: missing owner", ErrInvalidToken)
	}
	return claims, nil
}
