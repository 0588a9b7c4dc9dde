// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// Package relyingparty models the identity a relying party presents to the
// MID provider on every request: the UUID it was registered under and its
// display name.
package relyingparty

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// DemoCredentials identify the shared relying party of the public MID demo
// environment. They must never be pointed at a production endpoint.
var DemoCredentials = Credentials{
	UUID: uuid.MustParse("00000000-0000-0000-0000-000000000000"),
	Name: "DEMO",
}

// Credentials identify the relying party to the provider. Both fields are
// sent in the body of every session-creation request; the provider answers
// 401 when they do not match a registered party.
type Credentials struct {
	UUID uuid.UUID
	Name string
}

// Configure populates the Credentials from a loose configuration map.
func (o *Credentials) Configure(cfg map[string]interface{}) error {
	decoded := struct {
		UUID string                 `mapstructure:"relying_party_uuid"`
		Name string                 `mapstructure:"relying_party_name"`
		Rest map[string]interface{} `mapstructure:",remain"`
	}{}

	if err := mapstructure.Decode(cfg, &decoded); err != nil {
		return err
	}

	parsed, err := uuid.Parse(decoded.UUID)
	if err != nil {
		return fmt.Errorf("bad relying_party_uuid: %w", err)
	}

	o.UUID = parsed
	o.Name = decoded.Name

	if err := o.Validate(); err != nil {
		return err
	}

	if len(decoded.Rest) > 0 {
		var unexpected []string
		for k := range decoded.Rest {
			unexpected = append(unexpected, k)
		}
		return fmt.Errorf("unexpected fields in config: %s",
			strings.Join(unexpected, ", "))
	}

	return nil
}

// Validate checks that the Credentials are complete.
func (o *Credentials) Validate() error {
	if o.Name == "" {
		return errors.New("missing relying party name")
	}

	return nil
}
