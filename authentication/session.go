// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package authentication

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hopae/midclient/common"
	"github.com/hopae/midclient/midhash"
	"github.com/hopae/midclient/relyingparty"
	"github.com/hopae/midclient/truststore"
)

const (
	// DefaultBaseURI points at the public MID demo environment.
	DefaultBaseURI = "https://tsp.demo.sk.ee/mid-api"

	mediaTypeJSON = "application/json"

	defaultLanguage          = "ENG"
	defaultDisplayText       = "Hopae authentication request"
	defaultDisplayTextFormat = "GSM-7"
)

// Config holds the configuration for one or more authentication exchanges
// against a MID provider.
type Config struct {
	RelyingParty relyingparty.Credentials // identity presented to the provider
	BaseURI      string                   // provider API root, DefaultBaseURI when empty
	Client       *common.Client           // HTTP(s) client connection configuration
	Trust        *truststore.Store        // certificates of the trusted issuing authorities
	HashType     midhash.HashType         // digest algorithm for fresh challenges, SHA256 when empty

	Language          string // user-interaction language, "ENG" when empty
	DisplayText       string // text shown on the phone alongside the confirmation prompt
	DisplayTextFormat string // "GSM-7" or "UCS-2", "GSM-7" when empty
}

// SetRelyingParty sets the relying-party Credentials supplied by the user
func (cfg *Config) SetRelyingParty(creds relyingparty.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	cfg.RelyingParty = creds
	return nil
}

// SetBaseURI sets the provider API root supplied by the user
func (cfg *Config) SetBaseURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("malformed base URI: %w", err)
	}
	if !u.IsAbs() {
		return errors.New("the supplied base URI is not in absolute form")
	}
	cfg.BaseURI = uri
	return nil
}

// SetClient sets the HTTP(s) client connection configuration
func (cfg *Config) SetClient(client *common.Client) error {
	if client == nil {
		return errors.New("no client supplied")
	}
	cfg.Client = client
	return nil
}

// SetTrustStore sets the trusted-issuer certificate set
func (cfg *Config) SetTrustStore(store *truststore.Store) error {
	if store == nil {
		return errors.New("no trust store supplied")
	}
	cfg.Trust = store
	return nil
}

// startRequest is the JSON body of a session-creation request.
type startRequest struct {
	RelyingPartyUUID       string `json:"relyingPartyUUID"`
	RelyingPartyName       string `json:"relyingPartyName"`
	PhoneNumber            string `json:"phoneNumber"`
	NationalIdentityNumber string `json:"nationalIdentityNumber"`
	Hash                   string `json:"hash"`
	HashType               string `json:"hashType"`
	Language               string `json:"language"`
	DisplayText            string `json:"displayText"`
	DisplayTextFormat      string `json:"displayTextFormat"`
}

// startResponse is the JSON body of a successful session-creation response.
type startResponse struct {
	SessionID string `json:"sessionID"`
}

// StartSession submits the challenge digest for signing by the device
// behind the supplied phone number. On success the provider-assigned
// session identifier is returned; the caller must retain it together with
// the challenge for the rest of the round trip. Failures surface as a
// *StartError.
func (cfg Config) StartSession(
	phoneNumber string,
	nationalIdentityNumber string,
	challenge *midhash.Challenge,
) (string, error) {
	if err := cfg.check(); err != nil {
		return "", err
	}

	if cfg.Client == nil {
		cfg.Client = common.NewClient()
	}

	payload, err := json.Marshal(startRequest{
		RelyingPartyUUID:       cfg.RelyingParty.UUID.String(),
		RelyingPartyName:       cfg.RelyingParty.Name,
		PhoneNumber:            phoneNumber,
		NationalIdentityNumber: nationalIdentityNumber,
		Hash:                   challenge.DigestBase64(),
		HashType:               challenge.HashType().Name(),
		Language:               cfg.language(),
		DisplayText:            cfg.displayText(),
		DisplayTextFormat:      cfg.displayTextFormat(),
	})
	if err != nil {
		return "", fmt.Errorf("encoding session request: %w", err)
	}

	res, err := cfg.Client.PostResource(payload, mediaTypeJSON, mediaTypeJSON, cfg.baseURI()+"/authentication")
	if err != nil {
		return "", fmt.Errorf("session request failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", startErrorFromResponse(res)
	}

	j := startResponse{}

	if err = common.DecodeJSONBody(res, &j); err != nil {
		return "", fmt.Errorf("failure decoding session response body: %w", err)
	}

	if j.SessionID == "" {
		return "", errors.New("malformed session response: missing sessionID")
	}

	return j.SessionID, nil
}

// PollStatus issues one status request for the session, carrying timeout
// as the long-poll hint: the provider answers as soon as the session
// leaves RUNNING, or after the timeout with whatever state it is in. It
// never loops; repeating the call is well-defined and idempotent, and the
// retry policy belongs to the caller. Failures surface as a *StatusError.
func (cfg Config) PollStatus(sessionID string, timeout time.Duration) (*SessionStatus, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		cfg.Client = common.NewClient()
	}

	q := url.Values{}
	q.Set("timeoutMs", fmt.Sprint(timeout.Milliseconds()))

	uri := fmt.Sprintf(
		"%s/authentication/session/%s?%s",
		cfg.baseURI(), url.PathEscape(sessionID), q.Encode(),
	)

	res, err := cfg.Client.GetResource(mediaTypeJSON, uri)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, statusErrorFromResponse(res)
	}

	j := SessionStatus{}

	if err = common.DecodeJSONBody(res, &j); err != nil {
		return nil, fmt.Errorf("failure decoding status response body: %w", err)
	}

	return &j, nil
}

// check makes sure that the config object is in good shape
func (cfg Config) check() error {
	if err := cfg.RelyingParty.Validate(); err != nil {
		return fmt.Errorf("bad configuration: %w", err)
	}

	if cfg.BaseURI != "" {
		u, err := url.Parse(cfg.BaseURI)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("bad configuration: base URI %q is not absolute", cfg.BaseURI)
		}
	}

	// It's OK if we don't have a client at this point in time; if needed we
	// will instantiate the default one later.

	return nil
}

func (cfg Config) baseURI() string {
	if cfg.BaseURI != "" {
		return cfg.BaseURI
	}
	return DefaultBaseURI
}

func (cfg Config) hashType() midhash.HashType {
	if cfg.HashType != "" {
		return cfg.HashType
	}
	return midhash.SHA256
}

func (cfg Config) language() string {
	if cfg.Language != "" {
		return cfg.Language
	}
	return defaultLanguage
}

func (cfg Config) displayText() string {
	if cfg.DisplayText != "" {
		return cfg.DisplayText
	}
	return defaultDisplayText
}

func (cfg Config) displayTextFormat() string {
	if cfg.DisplayTextFormat != "" {
		return cfg.DisplayTextFormat
	}
	return defaultDisplayTextFormat
}
