// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package authentication

import (
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/hopae/midclient/common"
	"github.com/hopae/midclient/midhash"
	"github.com/hopae/midclient/truststore"
)

// Attempt is the caller-owned state of one authentication round trip: the
// challenge the device is asked to sign and the session identifier the
// provider assigned to the request. Attempts are independent of each
// other; any number may be in flight concurrently.
type Attempt struct {
	Challenge *midhash.Challenge
	SessionID string
}

// VerificationCode returns the 4-digit code to display to the user while
// the attempt is pending. The phone shows the same code, derived from the
// same digest.
func (o *Attempt) VerificationCode() string {
	return o.Challenge.VerificationCode()
}

// Verdict tags the outcome of a status check.
type Verdict string

const (
	// VerdictRunning: the user has not acted yet, poll again.
	VerdictRunning Verdict = "running"
	// VerdictFailure: the session completed without a signature. This is
	// a legitimate protocol completion (user cancelled, device timeout,
	// phone absent, ...), not an error.
	VerdictFailure Verdict = "failure"
	// VerdictSuccess: the signature was returned, the certificate chains
	// to a trusted authority and the signature verifies over the
	// challenge.
	VerdictSuccess Verdict = "success"
)

// Outcome is the tagged result of a status check.
type Outcome struct {
	Verdict Verdict

	// FailureCode carries the provider result code when Verdict is
	// VerdictFailure.
	FailureCode ResultCode

	// Identity and Certificate are populated when Verdict is
	// VerdictSuccess. Identity holds the signed subject attributes of the
	// signer's certificate; the SERIALNUMBER entry is the authenticated
	// national identity number.
	Identity    map[string]string
	Certificate *x509.Certificate
}

// FlowErrorKind enumerates the verification errors that terminate an
// attempt. None of them is retriable: repeating the attempt cannot change
// trust in a certificate or make a signature match.
type FlowErrorKind string

const (
	FlowMissingCertificate   FlowErrorKind = "MissingCertificate"
	FlowUntrustedCertificate FlowErrorKind = "UntrustedCertificate"
	FlowSignatureMismatch    FlowErrorKind = "SignatureMismatch"
)

// FlowError is a terminal verification error. Malformed material fails
// closed: a certificate that cannot be parsed surfaces as
// FlowUntrustedCertificate and a signature that cannot be decoded or
// checked as FlowSignatureMismatch, never as success.
type FlowError struct {
	Kind FlowErrorKind
	Err  error
}

func (o *FlowError) Error() string {
	if o.Err != nil {
		return fmt.Sprintf("authentication flow: %s: %v", o.Kind, o.Err)
	}
	return fmt.Sprintf("authentication flow: %s", o.Kind)
}

func (o *FlowError) Unwrap() error {
	return o.Err
}

// Start opens an authentication attempt for the given phone number and
// national identity number: it generates a fresh random challenge with the
// configured digest algorithm and creates the provider session. The
// returned Attempt must be retained by the caller until the attempt is
// terminal.
func (cfg Config) Start(phoneNumber, nationalIdentityNumber string) (*Attempt, error) {
	challenge, err := midhash.New(cfg.hashType())
	if err != nil {
		return nil, err
	}

	sessionID, err := cfg.StartSession(phoneNumber, nationalIdentityNumber, challenge)
	if err != nil {
		return nil, err
	}

	return &Attempt{Challenge: challenge, SessionID: sessionID}, nil
}

// CheckStatus performs one poll of the attempt's session and, when the
// session has completed successfully, the full verification of the
// returned material: certificate trust, then signature over the original
// challenge. It returns a tagged Outcome on every well-formed provider
// answer; transport and provider errors surface as a *StatusError,
// verification errors as a *FlowError.
func (cfg Config) CheckStatus(attempt *Attempt, timeout time.Duration) (*Outcome, error) {
	status, err := cfg.PollStatus(attempt.SessionID, timeout)
	if err != nil {
		return nil, err
	}

	switch {
	case status.IsRunning():
		return &Outcome{Verdict: VerdictRunning}, nil
	case status.IsFailure():
		return &Outcome{Verdict: VerdictFailure, FailureCode: status.Result}, nil
	}

	return cfg.verifyCompleted(attempt, status)
}

// verifyCompleted runs the success-path checks on a COMPLETED/OK status.
func (cfg Config) verifyCompleted(attempt *Attempt, status *SessionStatus) (*Outcome, error) {
	if status.Cert == "" {
		return nil, &FlowError{Kind: FlowMissingCertificate}
	}

	cert, err := status.Certificate()
	if err != nil {
		return nil, &FlowError{Kind: FlowUntrustedCertificate, Err: err}
	}

	if cfg.Trust == nil || !cfg.Trust.IsTrusted(cert) {
		return nil, &FlowError{
			Kind: FlowUntrustedCertificate,
			Err:  errors.New("certificate not signed by a trusted authority"),
		}
	}

	signature, err := status.SignatureBytes()
	if err != nil {
		return nil, &FlowError{Kind: FlowSignatureMismatch, Err: err}
	}

	ok, err := attempt.Challenge.VerifySignature(truststore.PublicKey(cert), signature)
	if err != nil {
		return nil, &FlowError{Kind: FlowSignatureMismatch, Err: err}
	}
	if !ok {
		return nil, &FlowError{Kind: FlowSignatureMismatch}
	}

	return &Outcome{
		Verdict:     VerdictSuccess,
		Identity:    truststore.SignedSubjectData(cert),
		Certificate: cert,
	}, nil
}

// Run implements the whole authentication protocol FSM atomically: it
// starts an attempt and polls until the session is terminal or the
// configured number of polls is exhausted. The per-call long-poll hint is
// common.PollTimeout, so the worst-case blocking time is
// common.MaxPollAttempts times that.
func (cfg Config) Run(phoneNumber, nationalIdentityNumber string) (*Outcome, error) {
	attempt, err := cfg.Start(phoneNumber, nationalIdentityNumber)
	if err != nil {
		return nil, err
	}

	for i := 0; i < common.MaxPollAttempts; i++ {
		outcome, err := cfg.CheckStatus(attempt, common.PollTimeout)
		if err != nil {
			return nil, err
		}

		if outcome.Verdict != VerdictRunning {
			return outcome, nil
		}
	}

	return nil, fmt.Errorf("polling attempts exhausted, session %s still running", attempt.SessionID)
}
