// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This binary queries a variant comparison server, with support for Google
// authentication.
//
// Usage:
//
//	varcompare-client -server https://host -reference NG_012337.1 -reference_type id \
//	    -lhs_type variant -rhs_type variant 274G>T 274del
package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const scope = "https://www.googleapis.com/auth/userinfo.email"

var (
	server        = flag.String("server", "http://localhost:8080", "comparison server base URL")
	reference     = flag.String("reference", "", "reference sequence or identifier")
	referenceType = flag.String("reference_type", "", "reference type (sequence or id)")
	lhsType       = flag.String("lhs_type", "hgvs", "left operand type (sequence, variant or hgvs)")
	rhsType       = flag.String("rhs_type", "hgvs", "right operand type (sequence, variant or hgvs)")
	anonymous     = flag.Bool("anonymous", false, "do not send Google credentials")
)

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		log.Fatalf("Expected exactly two operands, got %d", flag.NArg())
	}

	ctx := context.Background()

	// For compatibility with other tools, read the standard cURL certificate
	// authority override from the environment.
	if bundle := os.Getenv("CURL_CA_BUNDLE"); bundle != "" {
		pem, err := os.ReadFile(bundle)
		if err != nil {
			log.Fatalf("Failed to read CA override file %q: %v", bundle, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			log.Fatalf("Failed to initialize system certificate pool: %v", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			log.Fatalf("Failed to add certificates from bundle %q", bundle)
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: pool,
				}},
		})
		log.Printf("Using CA override bundle from %q", bundle)
	}

	client := http.DefaultClient
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		client = c
	}
	if !*anonymous {
		var err error
		if client, err = google.DefaultClient(ctx, scope); err != nil {
			log.Fatalf("Failed to create client: %v", err)
		}
	}

	target, err := compareURL(*server, flag.Arg(0), flag.Arg(1))
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}

	resp, err := client.Get(target)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unexpected response: %v", errorFromResponse(resp))
	}

	if err := writeResult(os.Stdout, resp.Body); err != nil {
		log.Fatalf("Failed to print result: %v", err)
	}
}

// writeResult copies the JSON result read from r to w, indented.
func writeResult(w io.Writer, r io.Reader) error {
	var result json.RawMessage
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return fmt.Errorf("indenting response: %v", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// compareURL builds the comparison request for lhs and rhs from the flags.
func compareURL(base, lhs, rhs string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/compare/")
	if err != nil {
		return "", err
	}
	values := url.Values{}
	if *reference != "" {
		values.Set("reference", *reference)
	}
	if *referenceType != "" {
		values.Set("reference_type", *referenceType)
	}
	values.Set("lhs", lhs)
	values.Set("lhs_type", *lhsType)
	values.Set("rhs", rhs)
	values.Set("rhs_type", *rhsType)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func errorFromResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %v", err)
	}
	var v map[string]string
	if err := json.Unmarshal(body, &v); err == nil {
		if message, ok := v["message"]; ok {
			return fmt.Errorf("%s: %v", v["error"], message)
		}
	}
	return fmt.Errorf("unexpected response status: %q", resp.Status)
}
