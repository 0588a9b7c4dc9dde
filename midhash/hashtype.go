// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

package midhash

import (
	"crypto"
	"errors"
	"fmt"
	"hash"

	_ "crypto/sha256"
	_ "crypto/sha512"
)

// HashType is the enumeration of digest algorithms accepted by the MID
// provider. It implements the pflag.Value interface.
type HashType string

const (
	SHA256 HashType = "SHA256"
	SHA384 HashType = "SHA384"
	SHA512 HashType = "SHA512"
)

var (
	ErrUnknownHashName   = errors.New("unknown hash type name")
	ErrUnknownHashLength = errors.New("unknown hash length")
)

type hashInfo struct {
	lengthInBytes int
	// digestInfoPrefix is the DER encoding of the DigestInfo
	// AlgorithmIdentifier for this digest, as prepended to the raw digest
	// in a PKCS#1 v1.5 signature.
	digestInfoPrefix []byte
	name             string
	native           crypto.Hash
}

// registry holds one immutable row per supported HashType. The prefixes
// match the values used by the SK MID Java client.
var registry = map[HashType]hashInfo{
	SHA256: {
		lengthInBytes: 32,
		digestInfoPrefix: []byte{
			0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
		},
		name:   "sha256",
		native: crypto.SHA256,
	},
	SHA384: {
		lengthInBytes: 48,
		digestInfoPrefix: []byte{
			0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30,
		},
		name:   "sha384",
		native: crypto.SHA384,
	},
	SHA512: {
		lengthInBytes: 64,
		digestInfoPrefix: []byte{
			0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40,
		},
		name:   "sha512",
		native: crypto.SHA512,
	},
}

// FromName maps a lowercase algorithm name (e.g. "sha256") back to its
// HashType.
func FromName(name string) (HashType, error) {
	for t, info := range registry {
		if info.name == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHashName, name)
}

// FromLength maps a digest length in bytes back to its HashType.
func FromLength(lengthInBytes int) (HashType, error) {
	for t, info := range registry {
		if info.lengthInBytes == lengthInBytes {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownHashLength, lengthInBytes)
}

func (t HashType) info() hashInfo {
	info, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("unknown hash type: %q", string(t)))
	}
	return info
}

// LengthInBytes returns the digest length of the algorithm.
func (t HashType) LengthInBytes() int {
	return t.info().lengthInBytes
}

// DigestInfoPrefix returns a copy of the fixed DigestInfo bytes for the
// algorithm.
func (t HashType) DigestInfoPrefix() []byte {
	prefix := t.info().digestInfoPrefix
	out := make([]byte, len(prefix))
	copy(out, prefix)
	return out
}

// Name returns the lowercase algorithm name used on the wire and for
// native digest computation.
func (t HashType) Name() string {
	return t.info().name
}

// New returns a fresh native hasher for the algorithm.
func (t HashType) New() hash.Hash {
	return t.info().native.New()
}

// String representation of the HashType
func (t *HashType) String() string {
	return string(*t)
}

// Set the value of the HashType
func (t *HashType) Set(v string) error {
	switch v {
	case "SHA256", "sha256":
		*t = SHA256
	case "SHA384", "sha384":
		*t = SHA384
	case "SHA512", "sha512":
		*t = SHA512
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHashName, v)
	}

	return nil
}

// Type returns the string representing the type name (used by pflag).
func (t *HashType) Type() string {
	return "HashType"
}
