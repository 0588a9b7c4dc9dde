// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package midhash

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedKeyType is returned by VerifySignature when the signer
// certificate carries a public key family other than RSA or EC.
var ErrUnsupportedKeyType = errors.New("unsupported public key type")

// Challenge is the random message/digest pair authenticated by the user's
// device. The digest is always computed from the message at construction
// time, so the two can never disagree. A Challenge is immutable and must be
// retained by the caller for the lifetime of one authentication session: it
// is needed again when the provider returns the signature.
type Challenge struct {
	hashType HashType
	message  []byte
	digest   []byte
}

// New creates a Challenge with a cryptographically random message whose
// length equals the digest length of the supplied algorithm.
func New(hashType HashType) (*Challenge, error) {
	message := make([]byte, hashType.LengthInBytes())
	if _, err := rand.Read(message); err != nil {
		return nil, fmt.Errorf("drawing random challenge message: %w", err)
	}

	return NewFromMessage(hashType, message), nil
}

// NewFromMessage creates a Challenge over an explicitly supplied message.
func NewFromMessage(hashType HashType, message []byte) *Challenge {
	m := make([]byte, len(message))
	copy(m, message)

	h := hashType.New()
	h.Write(m)

	return &Challenge{
		hashType: hashType,
		message:  m,
		digest:   h.Sum(nil),
	}
}

// Parse reconstructs a Challenge from its canonical wire form
// "<name>:<base64(message)>", as produced by Encode.
func Parse(s string) (*Challenge, error) {
	name, messageB64, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("malformed challenge %q: no %q separator", s, ":")
	}

	hashType, err := FromName(name)
	if err != nil {
		return nil, err
	}

	message, err := base64.StdEncoding.DecodeString(messageB64)
	if err != nil {
		return nil, fmt.Errorf("malformed challenge message: %w", err)
	}

	return NewFromMessage(hashType, message), nil
}

// Encode serializes the Challenge to its canonical wire form
// "<name>:<base64(message)>".
func (c Challenge) Encode() string {
	return c.hashType.Name() + ":" + base64.StdEncoding.EncodeToString(c.message)
}

// HashType returns the digest algorithm of the Challenge.
func (c Challenge) HashType() HashType {
	return c.hashType
}

// Message returns a copy of the random message.
func (c Challenge) Message() []byte {
	out := make([]byte, len(c.message))
	copy(out, c.message)
	return out
}

// Digest returns a copy of the message digest.
func (c Challenge) Digest() []byte {
	out := make([]byte, len(c.digest))
	copy(out, c.digest)
	return out
}

// DigestBase64 returns the digest in the base64 form submitted to the
// provider's session-creation endpoint.
func (c Challenge) DigestBase64() string {
	return base64.StdEncoding.EncodeToString(c.digest)
}

// VerificationCode derives the 4-digit code displayed to the user on both
// the relying party's screen and the phone. 13 bits are taken from the
// digest: the top 6 bits of the first byte and the bottom 7 bits of the
// last byte, concatenated as (first6 << 7) | last7 and zero-padded to
// width 4. The value therefore ranges 0000..8191.
func (c Challenge) VerificationCode() string {
	first6 := c.digest[0] >> 2
	last7 := c.digest[len(c.digest)-1] & 0x7f
	code := int(first6)<<7 | int(last7)
	return fmt.Sprintf("%04d", code)
}

// VerifySignature checks a signature returned by the provider against the
// Challenge, using the public key taken from the signer's certificate. The
// verification procedure is selected by the key family: RSA signatures are
// PKCS#1 v1.5 over DigestInfoPrefix||digest, EC signatures arrive in the
// compact CVC form and are converted to DER first. A cryptographic mismatch
// yields (false, nil); a non-nil error is returned only for malformed
// input or an unsupported key family.
func (c Challenge) VerifySignature(publicKey crypto.PublicKey, signature []byte) (bool, error) {
	switch key := publicKey.(type) {
	case *rsa.PublicKey:
		return c.verifyRSA(key, signature), nil
	case *ecdsa.PublicKey:
		return c.verifyECDSA(key, signature)
	default:
		return false, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, publicKey)
	}
}

func (c Challenge) verifyRSA(publicKey *rsa.PublicKey, signature []byte) bool {
	signedDigest := append(c.hashType.DigestInfoPrefix(), c.digest...)

	// Passing hash zero makes VerifyPKCS1v15 compare the padded plaintext
	// against signedDigest byte for byte, the DigestInfo prefix included.
	return rsa.VerifyPKCS1v15(publicKey, 0, signedDigest, signature) == nil
}

func (c Challenge) verifyECDSA(publicKey *ecdsa.PublicKey, signature []byte) (bool, error) {
	der, err := signatureFromCVC(signature)
	if err != nil {
		return false, err
	}

	// The EC primitive authenticates the original message, so hash it
	// afresh rather than reusing the stored digest.
	h := c.hashType.New()
	h.Write(c.message)

	return ecdsa.VerifyASN1(publicKey, h.Sum(nil), der), nil
}

// signatureFromCVC converts an ECDSA signature from the provider's compact
// CVC encoding (the fixed-width big-endian concatenation r||s, no ASN.1
// framing) to the standard DER SEQUENCE of two INTEGERs.
func signatureFromCVC(signature []byte) ([]byte, error) {
	if len(signature) == 0 || len(signature)%2 != 0 {
		return nil, fmt.Errorf("CVC signature length must be even, got %d", len(signature))
	}

	mid := len(signature) / 2
	r := derInteger(signature[:mid])
	s := derInteger(signature[mid:])

	body := append(r, s...)

	out := append([]byte{0x30}, derLength(len(body))...)
	return append(out, body...), nil
}

// derInteger encodes a big-endian unsigned integer as a DER INTEGER:
// leading zero bytes are dropped to keep the encoding minimal, then a
// single zero byte is restored if the high bit is set, so the value stays
// non-negative under DER's signed-integer rule.
func derInteger(value []byte) []byte {
	value = bytes.TrimLeft(value, "\x00")
	if len(value) == 0 {
		value = []byte{0x00}
	}
	if value[0]&0x80 != 0 {
		value = append([]byte{0x00}, value...)
	}

	return append(append([]byte{0x02}, derLength(len(value))...), value...)
}

func derLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x100:
		return []byte{0x81, byte(n)}
	default:
		return []byte{0x82, byte(n >> 8), byte(n)}
	}
}
