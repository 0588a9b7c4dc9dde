// Copyright 2025 Contributors to the midclient project.
// SPDX-License-Identifier: Apache-2.0

// midserver fronts the Mobile-ID authentication flow for browser clients.
// It keeps no per-attempt state: the serialized challenge travels to the
// client on start and back on every status call.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hopae/midclient/authentication"
	"github.com/hopae/midclient/cmd/midserver/router"
	"github.com/hopae/midclient/idtoken"
	"github.com/hopae/midclient/midhash"
	"github.com/hopae/midclient/relyingparty"
	"github.com/hopae/midclient/truststore"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		baseURI    = flag.String("base-uri", authentication.DefaultBaseURI, "MID provider API root")
		trustDir   = flag.String("trust-dir", "certificates", "folder with trusted issuer certificates")
		configPath = flag.String("config", "", "relying-party config file (JSON)")
		jwtSecret  = flag.String("jwt-secret", "", "identity token signing secret")
		jwtTTL     = flag.Duration("jwt-ttl", idtoken.DefaultTTL, "identity token lifetime")
		hashType   = midhash.SHA256
	)
	flag.Var(&hashType, "hash-type", "challenge digest algorithm (SHA256, SHA384 or SHA512)")
	flag.Parse()

	creds, err := loadCredentials(*configPath)
	if err != nil {
		log.Fatalf("loading relying-party config: %v", err)
	}

	store, err := truststore.Load(*trustDir)
	if err != nil {
		log.Fatalf("loading trust store: %v", err)
	}
	if store.Len() == 0 {
		log.Printf("warning: trust folder %s holds no usable certificates, all authentications will fail", *trustDir)
	}

	if *jwtSecret == "" {
		log.Fatal("missing -jwt-secret")
	}

	auth := authentication.Config{
		RelyingParty: creds,
		BaseURI:      *baseURI,
		Trust:        store,
		HashType:     hashType,
	}

	issuer := &idtoken.Issuer{Secret: []byte(*jwtSecret), TTL: *jwtTTL}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	router.New(auth, issuer).RegisterRoutes(e)

	e.Logger.Fatal(e.Start(*addr))
}

// loadCredentials reads the relying-party identity from a JSON config
// file; without one the public demo credentials are used.
func loadCredentials(path string) (relyingparty.Credentials, error) {
	if path == "" {
		return relyingparty.DemoCredentials, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return relyingparty.Credentials{}, err
	}

	var cfg map[string]interface{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return relyingparty.Credentials{}, err
	}

	var creds relyingparty.Credentials
	if err := creds.Configure(cfg); err != nil {
		return relyingparty.Credentials{}, err
	}

	return creds, nil
}
