// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// Package router exposes the authentication flow over HTTP for browser
// clients: one endpoint to start an attempt, one to poll it, one to read
// back the issued identity token. The protocol core stays transport-free;
// everything HTTP-specific lives here.
package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/moogar0880/problems"

	"github.com/hopae/midclient/authentication"
	"github.com/hopae/midclient/idtoken"
	"github.com/hopae/midclient/midhash"
)

// allowedPhonePrefixes restricts authentication to Estonian and Lithuanian
// numbers, the only countries the MID scheme serves.
var allowedPhonePrefixes = []string{"+372", "+370"}

// statusPollTimeout is the long-poll hint forwarded to the provider on
// each status request, the provider-side maximum.
const statusPollTimeout = 120 * time.Second

// Router wires the authentication flow and the token issuer into echo
// handlers. Attempt state lives entirely in the responses: the serialized
// challenge is handed to the client on start and comes back on every
// status call, so the server keeps nothing between requests.
type Router struct {
	auth   authentication.Config
	tokens *idtoken.Issuer
}

func New(auth authentication.Config, tokens *idtoken.Issuer) *Router {
	return &Router{auth: auth, tokens: tokens}
}

// RegisterRoutes attaches the handlers to e.
func (rt *Router) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/start", rt.startAuth)
	e.GET("/auth/status", rt.getAuthStatus)
	e.GET("/auth/whoami", rt.whoami, echojwt.WithConfig(echojwt.Config{
		SigningKey: rt.tokens.Secret,
	}))
}

type startAuthRequest struct {
	PhoneNumber            string `json:"phoneNumber"`
	NationalIdentityNumber string `json:"nationalIdentityNumber"`
}

type startAuthResponse struct {
	Code       string `json:"code"`
	SessionID  string `json:"sessionId"`
	RandomHash string `json:"randomHash"`
}

func (rt *Router) startAuth(c echo.Context) error {
	var req startAuthRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "invalid body")
	}

	if !phoneNumberAllowed(req.PhoneNumber) {
		return problem(c, http.StatusBadRequest,
			"phone number must start with "+strings.Join(allowedPhonePrefixes, " or "))
	}

	if len(req.NationalIdentityNumber) != 11 {
		return problem(c, http.StatusBadRequest, "national identity number must be 11 digits")
	}

	attempt, err := rt.auth.Start(req.PhoneNumber, req.NationalIdentityNumber)
	if err != nil {
		var startErr *authentication.StartError
		if errors.As(err, &startErr) {
			return problem(c, http.StatusBadRequest, string(startErr.Kind))
		}
		return problem(c, http.StatusBadGateway, "authentication provider unreachable")
	}

	return c.JSON(http.StatusOK, startAuthResponse{
		Code:       attempt.VerificationCode(),
		SessionID:  attempt.SessionID,
		RandomHash: attempt.Challenge.Encode(),
	})
}

type statusResponse struct {
	Status   string            `json:"status"`
	Error    string            `json:"error,omitempty"`
	Identity map[string]string `json:"identity,omitempty"`
	Token    string            `json:"token,omitempty"`
}

func (rt *Router) getAuthStatus(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	if _, err := uuid.Parse(sessionID); err != nil {
		return problem(c, http.StatusBadRequest, "missing or malformed sessionId")
	}

	challenge, err := midhash.Parse(c.QueryParam("randomHash"))
	if err != nil {
		return problem(c, http.StatusBadRequest, "missing or malformed randomHash")
	}

	attempt := &authentication.Attempt{Challenge: challenge, SessionID: sessionID}

	outcome, err := rt.auth.CheckStatus(attempt, statusPollTimeout)
	if err != nil {
		return statusProblem(c, err)
	}

	switch outcome.Verdict {
	case authentication.VerdictRunning:
		return c.JSON(http.StatusOK, statusResponse{Status: "running"})

	case authentication.VerdictFailure:
		// a legitimate protocol completion, not an HTTP error
		return c.JSON(http.StatusOK, statusResponse{
			Status: "failure",
			Error:  string(outcome.FailureCode),
		})
	}

	token, err := rt.tokens.Sign(outcome.Identity)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "could not sign identity token")
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:   "success",
		Identity: outcome.Identity,
		Token:    token,
	})
}

func (rt *Router) whoami(c echo.Context) error {
	user := c.Get("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	return c.JSON(http.StatusOK, claims)
}

func phoneNumberAllowed(phoneNumber string) bool {
	for _, prefix := range allowedPhonePrefixes {
		if strings.HasPrefix(phoneNumber, prefix) {
			return true
		}
	}
	return false
}

// statusProblem maps errors out of CheckStatus to problem responses.
// Verification failures are deliberately opaque to the client.
func statusProblem(c echo.Context, err error) error {
	var statusErr *authentication.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Kind == authentication.StatusSessionIDNotFound {
			return problem(c, http.StatusNotFound, string(statusErr.Kind))
		}
		return problem(c, http.StatusBadRequest, string(statusErr.Kind))
	}

	var flowErr *authentication.FlowError
	if errors.As(err, &flowErr) {
		return problem(c, http.StatusBadRequest, "authentication could not be verified: "+string(flowErr.Kind))
	}

	return problem(c, http.StatusBadGateway, "authentication provider unreachable")
}

func problem(c echo.Context, status int, detail string) error {
	p := problems.NewDetailedProblem(status, detail)
	c.Response().Header().Set(echo.HeaderContentType, problems.ProblemMediaType)
	return c.JSON(status, p)
}
