// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package authentication

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hopae/midclient/common"
)

// StartErrorKind enumerates the ways a session-creation request can fail
// against the provider.
type StartErrorKind string

const (
	StartMissingRequiredParam  StartErrorKind = "MissingRequiredParam"
	StartMismatchedHashLength  StartErrorKind = "MismatchedHashLength"
	StartHashNotBase64         StartErrorKind = "HashNotBase64"
	StartFailedToAuthorizeUser StartErrorKind = "FailedToAuthorizeUser"
	StartMethodNotAllowed      StartErrorKind = "MethodNotAllowed"
	StartInternalServerError   StartErrorKind = "InternalServerError"
	StartUnknownError          StartErrorKind = "UnknownError"
)

// StatusErrorKind enumerates the ways a status request can fail against
// the provider.
type StatusErrorKind string

const (
	StatusRequiredSessionIDMissing StatusErrorKind = "RequiredSessionIdMissing"
	StatusFailedToAuthorizeUser    StatusErrorKind = "FailedToAuthorizeUser"
	StatusSessionIDNotFound        StatusErrorKind = "SessionIdNotFound"
	StatusMethodNotAllowed         StatusErrorKind = "MethodNotAllowed"
	StatusInternalServerError      StatusErrorKind = "InternalServerError"
	StatusUnknownError             StatusErrorKind = "UnknownError"
)

// errorBody is the JSON error envelope the provider attaches to non-2xx
// responses.
type errorBody struct {
	Error   string `json:"error"`
	Time    string `json:"time"`
	TraceID string `json:"traceId"`
}

// StartError is the typed outcome of a failed session-creation request.
type StartError struct {
	Kind       StartErrorKind
	Message    string
	Time       string
	TraceID    string
	HTTPStatus int
}

func (o *StartError) Error() string {
	return fmt.Sprintf("starting authentication session: %s: %s", o.Kind, o.Message)
}

// StatusError is the typed outcome of a failed status request.
type StatusError struct {
	Kind       StatusErrorKind
	Message    string
	Time       string
	TraceID    string
	HTTPStatus int
}

func (o *StatusError) Error() string {
	return fmt.Sprintf("fetching authentication status: %s: %s", o.Kind, o.Message)
}

// startErrorFromResponse maps a non-2xx session-creation response to a
// StartError. Status 400 carries free-text only, so it is disambiguated by
// substring: the provider words hash-encoding errors around "Base64" and
// hash-size errors around "length", while a missing required parameter is
// named per field and therefore matches neither.
func startErrorFromResponse(res *http.Response) *StartError {
	body, ok := decodeErrorBody(res)

	e := &StartError{
		Kind:       StartUnknownError,
		Message:    body.Error,
		Time:       body.Time,
		TraceID:    body.TraceID,
		HTTPStatus: res.StatusCode,
	}

	if !ok {
		return e
	}

	switch res.StatusCode {
	case http.StatusBadRequest:
		switch {
		case strings.Contains(body.Error, "Base64"):
			e.Kind = StartHashNotBase64
		case strings.Contains(body.Error, "length"):
			e.Kind = StartMismatchedHashLength
		default:
			e.Kind = StartMissingRequiredParam
		}
	case http.StatusUnauthorized:
		e.Kind = StartFailedToAuthorizeUser
	case http.StatusMethodNotAllowed:
		e.Kind = StartMethodNotAllowed
	case http.StatusInternalServerError:
		e.Kind = StartInternalServerError
	}

	return e
}

// statusErrorFromResponse maps a non-2xx status response to a StatusError.
func statusErrorFromResponse(res *http.Response) *StatusError {
	body, ok := decodeErrorBody(res)

	e := &StatusError{
		Kind:       StatusUnknownError,
		Message:    body.Error,
		Time:       body.Time,
		TraceID:    body.TraceID,
		HTTPStatus: res.StatusCode,
	}

	if !ok {
		return e
	}

	switch res.StatusCode {
	case http.StatusBadRequest:
		e.Kind = StatusRequiredSessionIDMissing
	case http.StatusUnauthorized:
		e.Kind = StatusFailedToAuthorizeUser
	case http.StatusNotFound:
		e.Kind = StatusSessionIDNotFound
	case http.StatusMethodNotAllowed:
		e.Kind = StatusMethodNotAllowed
	case http.StatusInternalServerError:
		e.Kind = StatusInternalServerError
	}

	return e
}

// decodeErrorBody reads the provider's error envelope; a response without
// a usable envelope yields a synthetic one and ok == false, which pins the
// error kind to unknown.
func decodeErrorBody(res *http.Response) (errorBody, bool) {
	var body errorBody

	if err := common.DecodeJSONBody(res, &body); err != nil || body.Error == "" {
		return errorBody{
			Error:   "unknown error",
			Time:    time.Now().UTC().Format(time.RFC3339),
			TraceID: "unknown",
		}, false
	}

	return body, true
}
