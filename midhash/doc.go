// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

/*
Package midhash implements the challenge half of the Mobile-ID
challenge-response protocol: the closed registry of digest algorithms the
provider accepts, generation of the random challenge the user's device
signs, derivation of the 4-digit verification code shown to the user, and
verification of the returned RSA or ECDSA signature.

A fresh challenge is created per authentication attempt:

	challenge, err := midhash.New(midhash.SHA256)
	if err != nil { ... }

	code := challenge.VerificationCode()

The challenge must be kept for the whole session, since the provider's
signature is made over it. When the attempt crosses a request boundary, the
canonical wire form round-trips it:

	wire := challenge.Encode()
	...
	challenge, err = midhash.Parse(wire)

On session completion the signature is checked with the public key of the
signer's certificate:

	ok, err := challenge.VerifySignature(cert.PublicKey, signature)
*/
package midhash
