// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// Client holds configuration data associated with the HTTP(s) connection
// to the MID provider. The transport timeout must stay above the largest
// timeoutMs long-poll hint a caller may pass on a status request.
type Client struct {
	HTTPClient http.Client
}

// NewClient instantiates a new Client
func NewClient() *Client {
	return &Client{
		HTTPClient: http.Client{
			Timeout: 150 * time.Second,
		},
	}
}

// PostResource POSTs body to uri with the supplied Content-Type and Accept
// headers and returns the raw response. Non-2xx statuses are returned
// undecoded; mapping them to typed errors is the caller's job.
func (c *Client) PostResource(body []byte, ct, accept, uri string) (*http.Response, error) {
	req, err := http.NewRequest("POST", uri, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("POST %q, request creation failed: %w", uri, err)
	}

	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", accept)

	hc := &c.HTTPClient

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// GetResource GETs uri with the supplied Accept header and returns the raw
// response.
func (c *Client) GetResource(accept, uri string) (*http.Response, error) {
	req, err := http.NewRequest("GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("GET %q, request creation failed: %w", uri, err)
	}

	req.Header.Set("Accept", accept)

	hc := &c.HTTPClient

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}

	return res, nil
}
