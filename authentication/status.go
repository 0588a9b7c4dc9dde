// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package authentication

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/hopae/midclient/truststore"
)

// State is the provider-side lifecycle state of an authentication session.
type State string

const (
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
)

// ResultCode is the terminal result of a COMPLETED session. Every value
// other than ResultOK is a legitimate negative outcome of the protocol,
// not a transport error.
type ResultCode string

const (
	ResultOK                    ResultCode = "OK"
	ResultTimeout               ResultCode = "TIMEOUT"
	ResultNotMIDClient          ResultCode = "NOT_MID_CLIENT"
	ResultUserCancelled         ResultCode = "USER_CANCELLED"
	ResultSignatureHashMismatch ResultCode = "SIGNATURE_HASH_MISMATCH"
	ResultPhoneAbsent           ResultCode = "PHONE_ABSENT"
	ResultDeliveryError         ResultCode = "DELIVERY_ERROR"
	ResultSIMError              ResultCode = "SIM_ERROR"
)

// Signature is the signature material attached to a successful session:
// the base64 signature value and the provider's algorithm tag (e.g.
// "SHA256WithECEncryption").
type Signature struct {
	Value     string `json:"value"`
	Algorithm string `json:"algorithm"`
}

// SessionStatus models the provider's session status resource.
type SessionStatus struct {
	State     State      `json:"state"`
	Time      string     `json:"time"`
	TraceID   string     `json:"traceId"`
	Result    ResultCode `json:"result,omitempty"`
	Signature *Signature `json:"signature,omitempty"`
	Cert      string     `json:"cert,omitempty"`
}

// IsRunning reports whether the user has not yet acted on the request.
func (o *SessionStatus) IsRunning() bool {
	return o.State == StateRunning
}

// IsSuccess reports whether the session completed with the OK result.
func (o *SessionStatus) IsSuccess() bool {
	return o.State == StateCompleted && o.Result == ResultOK
}

// IsFailure reports whether the session completed with any result other
// than OK (user cancelled, device timeout, phone absent, ...).
func (o *SessionStatus) IsFailure() bool {
	return o.State == StateCompleted && o.Result != ResultOK
}

// SignatureBytes decodes the signature value of a successful session.
func (o *SessionStatus) SignatureBytes() ([]byte, error) {
	if o.Signature == nil {
		return nil, errors.New("no signature in session status")
	}

	raw, err := base64.StdEncoding.DecodeString(o.Signature.Value)
	if err != nil {
		return nil, fmt.Errorf("decoding signature base64: %w", err)
	}

	return raw, nil
}

// Certificate parses the signer certificate of a successful session.
func (o *SessionStatus) Certificate() (*x509.Certificate, error) {
	if o.Cert == "" {
		return nil, errors.New("no certificate in session status")
	}

	return truststore.ParseAuthCertificate(o.Cert)
}
