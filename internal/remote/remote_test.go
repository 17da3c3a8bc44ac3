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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/varcompare/internal/compare"
	"github.com/googlegenomics/varcompare/internal/reference"
	"github.com/googlegenomics/varcompare/internal/report"
	"github.com/googlegenomics/varcompare/internal/variant"
)

const testSequence = "AAAATTTCCCCCGGGG"

func fakeDescriptionService(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/description_to_model/", func(w http.ResponseWriter, req *http.Request) {
		text := req.URL.Path[len("/api/description_to_model/"):]
		switch text {
		case "5T>A":
			assert.Equal(t, "variants", req.URL.Query().Get("start_rule"))
			writeJSON(w, http.StatusOK, map[string]interface{}{"variants": []map[string]interface{}{{
				"type":     "substitution",
				"location": map[string]interface{}{"type": "point", "position": 5},
				"deleted":  []map[string]string{{"sequence": "T"}},
				"inserted": []map[string]string{{"sequence": "A"}},
			}}})
		case "[5T>A":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": []map[string]interface{}{
				{"code": "ESYNTAXUEOF", "pos_in_stream": 5, "expecting": []string{"]"}},
			}})
		case "5T>A]":
			writeJSON(w, http.StatusOK, map[string]interface{}{"errors": []map[string]interface{}{
				{"code": "ESYNTAXUC", "pos_in_stream": 4, "unexpected_character": "]"},
			}})
		case "NG_1/2:g.5del":
			writeJSON(w, http.StatusOK, map[string]interface{}{"variants": []interface{}{}})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/api/normalize/", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path[len("/api/normalize/"):] {
		case "NG_TEST.1:g.5T>A":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"normalized_description": "NG_TEST.1:g.5T>A",
				"reference_sequence":     testSequence,
				"observed_sequence":      "AAAAATTCCCCCGGGG",
				"infos":                  []map[string]string{{"code": "IWHITESPACE"}},
			})
		case "NG_TEST.1(NM_1.1):c.5T>A":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": []map[string]interface{}{{
					"code":        "ENOSELECTORFOUND",
					"details":     "Selector NM_1.1 not found.",
					"selector_id": "NM_1.1",
					"paths":       []interface{}{[]interface{}{"variants", 0}},
				}},
			})
		default:
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": []map[string]string{{"code": "ERETR", "details": "Reference could not be retrieved."}},
			})
		}
	})
	mux.HandleFunc("/api/reference_model/", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path[len("/api/reference_model/"):] {
		case "NG_TEST.1":
			writeJSON(w, http.StatusOK, map[string]interface{}{"sequence": map[string]string{"seq": testSequence}})
		case "NG_NULL.1":
			writeJSON(w, http.StatusOK, nil)
		default:
			http.NotFound(w, req)
		}
	})
	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Add("Content-type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) *Client {
	server := fakeDescriptionService(t)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL+"/api/", server.Client())
	require.NoError(t, err)
	return client
}

func TestClient_ParseVariants(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	variants, err := client.ParseVariants(ctx, "5T>A")
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, variant.Substitution, variants[0].Type)
	assert.Equal(t, 5, variants[0].Location.Position)
	assert.Equal(t, "A", variants[0].Inserted[0].Sequence)

	_, err = client.ParseVariants(ctx, "[5T>A")
	var ueof *variant.UnexpectedEndError
	require.True(t, errors.As(err, &ueof), "got %v", err)
	assert.Equal(t, 5, ueof.Position)
	assert.Equal(t, []string{"]"}, ueof.Expecting)

	_, err = client.ParseVariants(ctx, "5T>A]")
	var uc *variant.UnexpectedCharacterError
	require.True(t, errors.As(err, &uc), "got %v", err)
	assert.Equal(t, "]", uc.Character)
	assert.Equal(t, 4, uc.Position)

	_, err = client.ParseVariants(ctx, "unknown")
	require.Error(t, err)
	assert.Equal(t, report.CodeInternal, report.FromError(err).Code)
}

func TestClient_EscapesDescriptions(t *testing.T) {
	client := newTestClient(t)
	variants, err := client.ParseVariants(context.Background(), "NG_1/2:g.5del")
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestClient_Normalize(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	normalized, err := client.Normalize(ctx, "NG_TEST.1:g.5T>A")
	require.NoError(t, err)
	assert.Equal(t, testSequence, normalized.ReferenceSequence)
	assert.Equal(t, "AAAAATTCCCCCGGGG", normalized.ObservedSequence)
	assert.Equal(t, "NG_TEST.1:g.5T>A", normalized.Description)
	assert.Empty(t, normalized.Errors)
	assert.Equal(t, []report.Record{{Code: "IWHITESPACE"}}, normalized.Infos)

	normalized, err = client.Normalize(ctx, "NG_MISSING.1:g.5T>A")
	require.NoError(t, err)
	require.Len(t, normalized.Errors, 1)
	assert.Equal(t, report.CodeRetrieval, normalized.Errors[0].Code)
}

func TestClient_NormalizeKeepsErrorContext(t *testing.T) {
	client := newTestClient(t)

	normalized, err := client.Normalize(context.Background(), "NG_TEST.1(NM_1.1):c.5T>A")
	require.NoError(t, err)
	require.Len(t, normalized.Errors, 1)

	encoded, err := json.Marshal(normalized.Errors[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"code": "ENOSELECTORFOUND",
		"details": "Selector NM_1.1 not found.",
		"selector_id": "NM_1.1",
		"paths": [["variants", 0]]
	}`, string(encoded))
}

func TestClient_Retrieve(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	sequence, err := client.Retrieve(ctx, "NG_TEST.1")
	require.NoError(t, err)
	assert.Equal(t, testSequence, sequence)

	for _, id := range []string{"NG_MISSING.1", "NG_NULL.1"} {
		_, err = client.Retrieve(ctx, id)
		assert.True(t, errors.Is(err, reference.ErrNotFound), "%s: got %v", id, err)
	}
}

func TestClient_CheckSyntax(t *testing.T) {
	client := newTestClient(t)

	records, err := client.CheckSyntax(context.Background(), "5T>A]")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, report.CodeUnexpectedCharacter, records[0].Code)

	_, err = client.CheckSyntax(context.Background(), "unknown")
	var status *StatusError
	require.True(t, errors.As(err, &status), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, status.Code)
	assert.Equal(t, "boom", status.Message)
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, base := range []string{"ftp://example.com", "::", "example.com"} {
		_, err := NewClient(base, nil)
		assert.Error(t, err, base)
	}
}

func TestAlgebra_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || req.URL.Path != "/relation" {
			http.NotFound(w, req)
			return
		}
		var body relationRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch {
		case body.Reference == "":
			http.Error(w, "missing reference", http.StatusBadRequest)
		case body.LHS == body.RHS:
			writeJSON(w, http.StatusOK, map[string]interface{}{"relation": "equivalent", "lhs_edits": []string{}})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"relation": "disjoint"})
		}
	}))
	defer server.Close()

	algebra, err := NewAlgebra(server.URL, server.Client())
	require.NoError(t, err)
	ctx := context.Background()

	relation, err := algebra.Classify(ctx, testSequence, "ACGT", "ACGT")
	require.NoError(t, err)
	assert.Equal(t, compare.Equivalent, relation)

	relation, err = algebra.Classify(ctx, testSequence, "ACGT", "TTTT")
	require.NoError(t, err)
	assert.Equal(t, compare.Disjoint, relation)

	_, err = algebra.Classify(ctx, "", "A", "C")
	assert.Error(t, err)
}
