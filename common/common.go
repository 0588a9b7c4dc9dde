// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// Package common holds the pieces shared by the MID API packages: the
// configured HTTP client wrapper, JSON decoding helpers and the polling
// defaults used by the atomic authentication flow.
package common

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// PollTimeout is the long-poll hint passed to the provider on each
	// status request. The provider holds the request open server-side for
	// at most this long before answering RUNNING.
	PollTimeout = 30 * time.Second

	// MaxPollAttempts bounds the atomic flow's poll loop. Callers driving
	// the polling themselves choose their own overall deadline.
	MaxPollAttempts = 10
)

func DecodeJSONBody(res *http.Response, j interface{}) error {
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(&j)
}
