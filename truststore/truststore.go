// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// Package truststore decides whether the authentication certificate
// returned by the Mobile-ID provider was issued by a trusted authority,
// and extracts the signed identity attributes from its subject field.
package truststore

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store is the read-only set of certificates treated as authoritative
// issuers. It is safe for concurrent readers; a reload is done by building
// a whole new Store with Load and swapping the reference.
type Store struct {
	trusted []*x509.Certificate
}

// NewStore builds a Store over an explicit certificate set.
func NewStore(trusted []*x509.Certificate) *Store {
	return &Store{trusted: trusted}
}

// Load reads every regular file in dir and parses it as a certificate, in
// PEM or raw DER form. Files that fail to parse are logged and skipped: an
// empty or partially loadable trust folder is not itself an error, it just
// trusts less.
func Load(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading trust folder %q: %w", dir, err)
	}

	var trusted []*x509.Certificate

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping trusted certificate %s: %v", path, err)
			continue
		}

		cert, err := parseCertificate(raw)
		if err != nil {
			log.Printf("skipping trusted certificate %s: %v", path, err)
			continue
		}

		trusted = append(trusted, cert)
	}

	return &Store{trusted: trusted}, nil
}

// Len returns the number of certificates in the trust set.
func (s *Store) Len() int {
	return len(s.trusted)
}

// IsTrusted reports whether the subject certificate's signature verifies
// under the public key of at least one certificate in the trust set. An
// empty trust set trusts nothing.
func (s *Store) IsTrusted(subject *x509.Certificate) bool {
	for _, candidate := range s.trusted {
		err := candidate.CheckSignature(
			subject.SignatureAlgorithm,
			subject.RawTBSCertificate,
			subject.Signature,
		)
		if err == nil {
			log.Printf("certificate signature verified by %q", candidate.Subject.CommonName)
			return true
		}
	}

	return false
}

// ParseAuthCertificate decodes the base64 DER certificate carried in the
// provider's session status response.
func ParseAuthCertificate(certB64 string) (*x509.Certificate, error) {
	der, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, fmt.Errorf("decoding certificate base64: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}

	return cert, nil
}

// PublicKey returns the certificate's public key. No validation is
// performed here; trust is established separately via IsTrusted.
func PublicKey(cert *x509.Certificate) crypto.PublicKey {
	return cert.PublicKey
}

// subjectAttributeNames maps the subject DN attribute types found on MID
// authentication certificates to their conventional short names.
var subjectAttributeNames = map[string]string{
	"2.5.4.3":  "CN",
	"2.5.4.4":  "SN",
	"2.5.4.5":  "SERIALNUMBER",
	"2.5.4.6":  "C",
	"2.5.4.10": "O",
	"2.5.4.11": "OU",
	"2.5.4.42": "GN",
}

// SignedSubjectData extracts the signed identity attributes from the
// certificate's subject distinguished name as a flat name/value mapping.
// The SERIALNUMBER attribute carries the national identity number the
// authentication asserted. Attribute types without a conventional short
// name keep their dotted OID form; non-string values are skipped.
func SignedSubjectData(cert *x509.Certificate) map[string]string {
	data := make(map[string]string)

	for _, attr := range cert.Subject.Names {
		value, ok := attr.Value.(string)
		if !ok {
			continue
		}

		data[attributeName(attr)] = strings.TrimSpace(value)
	}

	return data
}

func attributeName(attr pkix.AttributeTypeAndValue) string {
	oid := attr.Type.String()
	if name, ok := subjectAttributeNames[oid]; ok {
		return name
	}
	return oid
}

func parseCertificate(raw []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(raw); block != nil {
		return x509.ParseCertificate(block.Bytes)
	}

	return x509.ParseCertificate(raw)
}
