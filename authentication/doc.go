// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

/*
Package authentication implements the relying-party side of the Mobile-ID
challenge-response protocol: session creation, status polling and the
verification of the signature material the provider returns.

The user creates a Config naming the relying party and the trusted issuing
authorities:

	store, err := truststore.Load("certificates")
	if err != nil { ... }

	cfg := authentication.Config{
		RelyingParty: relyingparty.DemoCredentials,
		Trust:        store,
	}

Atomic operation: the whole exchange is handled through a single
invocation of the Run method, which blocks until the session is terminal:

	outcome, err := cfg.Run("+37200000766", "60001019906")

Split operation, for flows that cross a request boundary (e.g. a browser
polling its backend): Start opens the session, then CheckStatus is invoked
as often as needed until the verdict is no longer running:

	attempt, err := cfg.Start("+37200000766", "60001019906")
	if err != nil { ... }

	// display attempt.VerificationCode() to the user
	...
	outcome, err := cfg.CheckStatus(attempt, 30*time.Second)

A terminal outcome is either VerdictSuccess, carrying the identity
attributes signed into the user's certificate, or VerdictFailure, carrying
the provider result code (user cancelled, device timeout, ...). Transport
and provider failures are *StartError / *StatusError, verification
failures *FlowError; all are terminal for the attempt except that
CheckStatus may be retried on transient transport errors.
*/
package authentication
