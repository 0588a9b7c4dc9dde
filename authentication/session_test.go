// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package authentication

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopae/midclient/common"
	"github.com/hopae/midclient/midhash"
	"github.com/hopae/midclient/relyingparty"
)

var (
	testBaseURI   = "http://tsp.example/mid-api"
	testSessionID = "de305d54-75b4-431b-adb2-eb6b9e546014"

	testPhoneNumber = "+37200000766"
	testNationalID  = "60001019906"
)

func testConfig(client *common.Client) Config {
	return Config{
		RelyingParty: relyingparty.DemoCredentials,
		BaseURI:      testBaseURI,
		Client:       client,
	}
}

func TestConfig_StartSession_ok(t *testing.T) {
	challenge, err := midhash.New(midhash.SHA256)
	require.NoError(t, err)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mid-api/authentication", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "00000000-0000-0000-0000-000000000000", req["relyingPartyUUID"])
		assert.Equal(t, "DEMO", req["relyingPartyName"])
		assert.Equal(t, testPhoneNumber, req["phoneNumber"])
		assert.Equal(t, testNationalID, req["nationalIdentityNumber"])
		assert.Equal(t, challenge.DigestBase64(), req["hash"])
		assert.Equal(t, "sha256", req["hashType"])
		assert.Equal(t, "ENG", req["language"])
		assert.Equal(t, "Hopae authentication request", req["displayText"])
		assert.Equal(t, "GSM-7", req["displayTextFormat"])

		w.Header().Set("Content-Type", "application/json")
		_, e := w.Write([]byte(`{"sessionID": "` + testSessionID + `"}`))
		require.Nil(t, e)
	})

	client, teardown := common.NewTestingHTTPClient(h)
	defer teardown()

	sessionID, err := testConfig(client).StartSession(testPhoneNumber, testNationalID, challenge)

	require.NoError(t, err)
	assert.Equal(t, testSessionID, sessionID)
}

func TestConfig_StartSession_error_mapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedKind StartErrorKind
	}{
		{
			name:         "400 base64",
			status:       400,
			body:         `{"error": "hash must be a valid Base64 encoded string", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartHashNotBase64,
		},
		{
			name:         "400 length",
			status:       400,
			body:         `{"error": "hash length does not match hash type", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartMismatchedHashLength,
		},
		{
			name:         "400 missing param",
			status:       400,
			body:         `{"error": "phoneNumber must be set", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartMissingRequiredParam,
		},
		{
			name:         "401",
			status:       401,
			body:         `{"error": "Failed to authorize user", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartFailedToAuthorizeUser,
		},
		{
			name:         "405",
			status:       405,
			body:         `{"error": "Method not allowed", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartMethodNotAllowed,
		},
		{
			name:         "500",
			status:       500,
			body:         `{"error": "Internal server error", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartInternalServerError,
		},
		{
			name:         "unexpected status with body",
			status:       418,
			body:         `{"error": "I'm a teapot", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`,
			expectedKind: StartUnknownError,
		},
		{
			name:         "bad gateway without body",
			status:       502,
			body:         `<html>bad gateway</html>`,
			expectedKind: StartUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, e := w.Write([]byte(tt.body))
				require.Nil(t, e)
			})

			client, teardown := common.NewTestingHTTPClient(h)
			defer teardown()

			challenge, err := midhash.New(midhash.SHA256)
			require.NoError(t, err)

			_, err = testConfig(client).StartSession(testPhoneNumber, testNationalID, challenge)
			require.Error(t, err)

			var startErr *StartError
			require.ErrorAs(t, err, &startErr)
			assert.Equal(t, tt.expectedKind, startErr.Kind)
			assert.Equal(t, tt.status, startErr.HTTPStatus)
		})
	}
}

func TestConfig_StartSession_missing_session_id(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, e := w.Write([]byte(`{}`))
		require.Nil(t, e)
	})

	client, teardown := common.NewTestingHTTPClient(h)
	defer teardown()

	challenge, err := midhash.New(midhash.SHA256)
	require.NoError(t, err)

	_, err = testConfig(client).StartSession(testPhoneNumber, testNationalID, challenge)
	assert.ErrorContains(t, err, "missing sessionID")
}

func TestConfig_PollStatus_running(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/mid-api/authentication/session/"+testSessionID, r.URL.Path)
		assert.Equal(t, "30000", r.URL.Query().Get("timeoutMs"))

		_, e := w.Write([]byte(`{"state": "RUNNING", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`))
		require.Nil(t, e)
	})

	client, teardown := common.NewTestingHTTPClient(h)
	defer teardown()

	status, err := testConfig(client).PollStatus(testSessionID, 30*time.Second)

	require.NoError(t, err)
	assert.True(t, status.IsRunning())
	assert.False(t, status.IsSuccess())
	assert.False(t, status.IsFailure())
}

func TestConfig_PollStatus_error_mapping(t *testing.T) {
	tests := []struct {
		status       int
		expectedKind StatusErrorKind
	}{
		{400, StatusRequiredSessionIDMissing},
		{401, StatusFailedToAuthorizeUser},
		{404, StatusSessionIDNotFound},
		{405, StatusMethodNotAllowed},
		{500, StatusInternalServerError},
		{502, StatusUnknownError},
	}

	for _, tt := range tests {
		calls := 0

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(tt.status)
			_, e := w.Write([]byte(`{"error": "provider error", "time": "2026-09-01T10:00:00", "traceId": "aa3bf2bb"}`))
			require.Nil(t, e)
		})

		client, teardown := common.NewTestingHTTPClient(h)

		_, err := testConfig(client).PollStatus(testSessionID, 30*time.Second)
		teardown()

		require.Error(t, err)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, tt.expectedKind, statusErr.Kind)

		// mapping only, never a retry
		assert.Equal(t, 1, calls)
	}
}

func TestConfig_check_bad_base_uri(t *testing.T) {
	cfg := Config{RelyingParty: relyingparty.DemoCredentials}
	require.NoError(t, cfg.SetBaseURI(testBaseURI))

	cfg.BaseURI = "tsp.example/mid-api"
	_, err := cfg.PollStatus(testSessionID, time.Second)
	assert.ErrorContains(t, err, "not absolute")
}

func TestConfig_check_missing_relying_party(t *testing.T) {
	cfg := Config{BaseURI: testBaseURI}

	challenge, err := midhash.New(midhash.SHA256)
	require.NoError(t, err)

	_, err = cfg.StartSession(testPhoneNumber, testNationalID, challenge)
	assert.ErrorContains(t, err, "missing relying party name")
}

func TestConfig_setters(t *testing.T) {
	cfg := Config{}

	assert.EqualError(t, cfg.SetClient(nil), "no client supplied")
	assert.EqualError(t, cfg.SetTrustStore(nil), "no trust store supplied")
	assert.ErrorContains(t, cfg.SetBaseURI("tsp.example/mid-api"), "not in absolute form")
	assert.Error(t, cfg.SetRelyingParty(relyingparty.Credentials{}))

	require.NoError(t, cfg.SetClient(common.NewClient()))
	require.NoError(t, cfg.SetBaseURI(testBaseURI))
	require.NoError(t, cfg.SetRelyingParty(relyingparty.DemoCredentials))
}
