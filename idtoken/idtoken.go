// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// Package idtoken turns the identity attributes of a completed
// authentication into a signed bearer token the relying party's own
// clients can present. Token issuance is deliberately outside the protocol
// core: the core emits a plain attribute mapping and this package is one
// way of conveying it.
package idtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the token lifetime used when the Issuer does not set one.
const DefaultTTL = time.Hour

// Issuer signs identity-attribute mappings as HS256 JWTs.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

// Sign issues a token over the supplied identity attributes. The
// certificate SERIALNUMBER, when present, becomes the subject claim; all
// attributes are carried verbatim under their own claim names alongside
// the usual iat/exp pair.
func (o *Issuer) Sign(identity map[string]string) (string, error) {
	if len(o.Secret) == 0 {
		return "", errors.New("no signing secret configured")
	}

	now := time.Now()

	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(o.ttl()).Unix(),
	}
	for k, v := range identity {
		claims[k] = v
	}
	if serial, ok := identity["SERIALNUMBER"]; ok {
		claims["sub"] = serial
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(o.Secret)
	if err != nil {
		return "", fmt.Errorf("signing identity token: %w", err)
	}

	return signed, nil
}

// Parse validates a token previously produced by Sign and returns its
// claims. Tokens signed with any method other than HS256 are rejected.
func (o *Issuer) Parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (interface{}, error) { return o.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing identity token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type in identity token")
	}

	return claims, nil
}

func (o *Issuer) ttl() time.Duration {
	if o.TTL != 0 {
		return o.TTL
	}
	return DefaultTTL
}
