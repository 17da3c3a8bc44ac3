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

// Package remote provides HTTP clients for the services that parse and
// normalize variant descriptions, serve reference models and classify
// sequence relations.
//
// The description service follows the Mutalyzer API layout:
//
//	GET {base}/description_to_model/{description}[?start_rule=variants]
//	GET {base}/normalize/{description}
//	GET {base}/reference_model/{id}
//
// The algebra service answers POST {base}/relation.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an unexpected response is quoted in errors.
const maxErrorBody = 512

var errNotFound = errors.New("not found")

// StatusError is returned when a service answers with an unexpected status.
type StatusError struct {
	Code    int
	Message string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d: %s", err.Code, err.Message)
}

type service struct {
	base   *url.URL
	client *http.Client
}

func newService(base string, client *http.Client) (service, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return service{}, fmt.Errorf("parsing service URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return service{}, fmt.Errorf("service URL %q must use http or https", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return service{u, client}, nil
}

// HTTPClientFromTokenSource returns an HTTP client authenticating requests
// with tokens from ts.
func HTTPClientFromTokenSource(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	return oauth2.NewClient(ctx, ts)
}

// endpoint returns the URL of the given path segments below the base URL.
// Each segment is escaped, so descriptions may contain any character.
func (s service) endpoint(query url.Values, segments ...string) string {
	u := *s.base
	raw, plain := u.EscapedPath(), u.Path
	for _, segment := range segments {
		raw += "/" + url.PathEscape(segment)
		plain += "/" + segment
	}
	u.Path, u.RawPath = plain, raw
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a request and decodes a JSON response into v.  Responses with
// status 200 and 422 carry a JSON body; 404 maps to errNotFound.
func (s service) do(ctx context.Context, method, target string, body interface{}, v interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %v", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decoding response: %v", err)
		}
		return nil
	case http.StatusNotFound:
		return errNotFound
	}
	message, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{resp.StatusCode, strings.TrimSpace(string(message))}
}
