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

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/googlegenomics/varcompare/internal/operand"
	"github.com/googlegenomics/varcompare/internal/reference"
	"github.com/googlegenomics/varcompare/internal/report"
	"github.com/googlegenomics/varcompare/internal/variant"
)

// Client talks to a description service.  It implements operand.Parser,
// operand.Normalizer and reference.Retriever.
type Client struct {
	service
}

// NewClient returns a Client for the description service at base.  A nil
// httpClient selects http.DefaultClient.
func NewClient(base string, httpClient *http.Client) (*Client, error) {
	s, err := newService(base, httpClient)
	if err != nil {
		return nil, err
	}
	return &Client{s}, nil
}

// recordError carries a record reported by the service.
type recordError struct {
	record report.Record
}

func (err *recordError) Error() string {
	return fmt.Sprintf("%s: %s", err.record.Code, err.record.Details)
}

func (err *recordError) Record() report.Record {
	return err.record
}

// syntaxError converts the first record reported by the parser into the
// matching variant parser error.
func syntaxError(records []report.Record) error {
	r := records[0]
	var position int
	if r.Position != nil {
		position = *r.Position
	}
	switch r.Code {
	case report.CodeUnexpectedCharacter:
		return &variant.UnexpectedCharacterError{Position: position, Character: r.Character, Expecting: r.Expecting}
	case report.CodeUnexpectedEnd:
		return &variant.UnexpectedEndError{Position: position, Expecting: r.Expecting}
	}
	return &recordError{r}
}

type modelResponse struct {
	Variants []variant.Variant `json:"variants"`
	Errors   []report.Record   `json:"errors"`
}

// ParseVariants implements operand.Parser.
func (c *Client) ParseVariants(ctx context.Context, text string) ([]variant.Variant, error) {
	var response modelResponse
	query := url.Values{"start_rule": []string{"variants"}}
	if err := c.do(ctx, http.MethodGet, c.endpoint(query, "description_to_model", text), nil, &response); err != nil {
		return nil, fmt.Errorf("parsing variants: %w", err)
	}
	if len(response.Errors) > 0 {
		return nil, syntaxError(response.Errors)
	}
	return response.Variants, nil
}

// CheckSyntax parses a complete description and returns the syntax errors
// found, if any.
func (c *Client) CheckSyntax(ctx context.Context, description string) ([]report.Record, error) {
	var response modelResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "description_to_model", description), nil, &response); err != nil {
		return nil, fmt.Errorf("checking syntax: %w", err)
	}
	return response.Errors, nil
}

type normalizeResponse struct {
	NormalizedDescription string          `json:"normalized_description"`
	ReferenceSequence     string          `json:"reference_sequence"`
	ObservedSequence      string          `json:"observed_sequence"`
	Errors                []report.Record `json:"errors"`
	Infos                 []report.Record `json:"infos"`
}

// Normalize implements operand.Normalizer.
func (c *Client) Normalize(ctx context.Context, description string) (*operand.Normalized, error) {
	var response normalizeResponse
	query := url.Values{"sequences": []string{"true"}}
	if err := c.do(ctx, http.MethodGet, c.endpoint(query, "normalize", description), nil, &response); err != nil {
		return nil, fmt.Errorf("normalizing description: %w", err)
	}
	return &operand.Normalized{
		Description:       response.NormalizedDescription,
		ReferenceSequence: response.ReferenceSequence,
		ObservedSequence:  response.ObservedSequence,
		Errors:            response.Errors,
		Infos:             response.Infos,
	}, nil
}

type referenceModelResponse struct {
	Sequence *struct {
		Seq string `json:"seq"`
	} `json:"sequence"`
}

// Retrieve implements reference.Retriever using the reference model of id.
func (c *Client) Retrieve(ctx context.Context, id string) (string, error) {
	var response referenceModelResponse
	err := c.do(ctx, http.MethodGet, c.endpoint(nil, "reference_model", id), nil, &response)
	if err == errNotFound || err == nil && response.Sequence == nil {
		return "", fmt.Errorf("reference model %s: %w", id, reference.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("retrieving reference model %s: %w", id, err)
	}
	return response.Sequence.Seq, nil
}
