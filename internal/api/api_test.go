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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/varcompare/internal/compare"
	"github.com/googlegenomics/varcompare/internal/metrics"
	"github.com/googlegenomics/varcompare/internal/operand"
	"github.com/googlegenomics/varcompare/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeComparer struct {
	mu     sync.Mutex
	got    []compare.Request
	result compare.Result
	err    error
}

func (f *fakeComparer) Compare(ctx context.Context, req compare.Request) (compare.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.result, f.err
}

type fakeChecker map[string][]report.Record

func (f fakeChecker) CheckSyntax(ctx context.Context, description string) ([]report.Record, error) {
	if description == "unreachable" {
		return nil, errors.New("connection refused")
	}
	return f[description], nil
}

type fakeNormalizer map[string]*operand.Normalized

func (f fakeNormalizer) Normalize(ctx context.Context, description string) (*operand.Normalized, error) {
	n, ok := f[description]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return n, nil
}

func serve(t *testing.T, handler http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, name string, code int) {
	t.Helper()
	assert.Equal(t, code, w.Code)
	var body struct{ Error, Message string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, name, body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestCompare_Query(t *testing.T) {
	comparer := &fakeComparer{result: compare.Result{Relation: compare.Equivalent}}
	handler := NewServer(comparer, fakeChecker{}, fakeNormalizer{}).Handler()

	w := serve(t, handler, "/compare/?reference=AAAATTTCCCCCGGGG&reference_type=sequence&lhs=3del&lhs_type=variant&rhs=3delA&rhs_type=variant", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"relation":"equivalent"}`, w.Body.String())

	require.Len(t, comparer.got, 1)
	got := comparer.got[0]
	require.NotNil(t, got.Reference)
	require.NotNil(t, got.ReferenceType)
	assert.Equal(t, "AAAATTTCCCCCGGGG", *got.Reference)
	assert.Equal(t, "sequence", *got.ReferenceType)
	assert.Equal(t, "3del", got.LHS)
	assert.Equal(t, "variant", got.LHSType)
	assert.Equal(t, "3delA", got.RHS)
	assert.Equal(t, "variant", got.RHSType)
}

func TestCompare_AbsentAndEmpty(t *testing.T) {
	comparer := &fakeComparer{}
	handler := NewServer(comparer, fakeChecker{}, fakeNormalizer{}).Handler()

	serve(t, handler, "/compare/?lhs=A&lhs_type=sequence&rhs=A&rhs_type=sequence", nil)
	serve(t, handler, "/compare/?reference=&reference_type=&lhs=A&lhs_type=sequence&rhs=A&rhs_type=sequence", nil)

	require.Len(t, comparer.got, 2)
	assert.Nil(t, comparer.got[0].Reference)
	assert.Nil(t, comparer.got[0].ReferenceType)
	require.NotNil(t, comparer.got[1].Reference)
	require.NotNil(t, comparer.got[1].ReferenceType)
	assert.Equal(t, "", *comparer.got[1].Reference)
	assert.Equal(t, "", *comparer.got[1].ReferenceType)
}

func TestCompare_Errors(t *testing.T) {
	errs := report.Bundle{}
	errs.Add(report.RoleLHSType, report.InvalidInput("protein", []string{"sequence", "variant", "hgvs"}))
	comparer := &fakeComparer{result: compare.Result{Errors: errs}}
	handler := NewServer(comparer, fakeChecker{}, fakeNormalizer{}).Handler()

	w := serve(t, handler, "/compare/?lhs=A&lhs_type=protein&rhs=A&rhs_type=sequence", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "errors")
	require.Len(t, body["errors"]["lhs_type"], 1)
	assert.Equal(t, "EINVALIDINPUT", body["errors"]["lhs_type"][0]["code"])
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestCompare_ClassifierFailure(t *testing.T) {
	comparer := &fakeComparer{err: errors.New("classifying relation: connection refused")}
	handler := NewServer(comparer, fakeChecker{}, fakeNormalizer{}).Handler()

	w := serve(t, handler, "/compare/?reference=AC&reference_type=sequence&lhs=A&lhs_type=sequence&rhs=C&rhs_type=sequence", nil)
	expectError(t, w, "UpstreamUnavailable", http.StatusBadGateway)
}

func TestSyntaxCheck(t *testing.T) {
	checker := fakeChecker{
		"NG_012337.1:g.7125G>": {report.UnexpectedEnd(20, []string{"nucleotide"})},
	}
	handler := NewServer(&fakeComparer{}, checker, fakeNormalizer{}).Handler()

	w := serve(t, handler, "/syntax_check/NG_012337.1:g.7125G%3ET", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Correct syntax."`, w.Body.String())

	w = serve(t, handler, "/syntax_check/NG_012337.1:g.7125G%3E", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ESYNTAXUEOF")

	expectError(t, serve(t, handler, "/syntax_check/unreachable", nil), "UpstreamUnavailable", http.StatusBadGateway)
	expectError(t, serve(t, handler, "/syntax_check/", nil), "InvalidInput", http.StatusBadRequest)
}

func TestNameCheck(t *testing.T) {
	normalizer := fakeNormalizer{
		"NG_012337.1:g.7125_7126insA": {
			Description:       "NG_012337.1:g.7126dup",
			ReferenceSequence: "ACGT",
			ObservedSequence:  "ACGGT",
			Infos:             []report.Record{{Code: "ICORRECTEDINSERTION"}},
		},
		"NG_012337.1:g.0del": {
			Description: "ignored",
			Errors:      []report.Record{{Code: report.CodeOutOfBoundary}},
		},
	}
	handler := NewServer(&fakeComparer{}, fakeChecker{}, normalizer).Handler()

	w := serve(t, handler, "/name_check/NG_012337.1:g.7125_7126insA", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var body nameCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NG_012337.1:g.7126dup", body.NormalizedDescription)
	assert.Equal(t, "ACGGT", body.ObservedSequence)
	require.Len(t, body.Infos, 1)

	w = serve(t, handler, "/name_check/NG_012337.1:g.0del", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ignored")
	assert.Contains(t, w.Body.String(), string(report.CodeOutOfBoundary))

	expectError(t, serve(t, handler, "/name_check/unknown", nil), "UpstreamUnavailable", http.StatusBadGateway)
}

func TestMiddleware(t *testing.T) {
	handler := NewServer(&fakeComparer{}, fakeChecker{}, fakeNormalizer{}).Handler()

	w := serve(t, handler, "/syntax_check/A", http.Header{"Origin": {"https://example.org"}})
	assert.Equal(t, "https://example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = serve(t, handler, "/syntax_check/A", http.Header{requestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type fixedClassifier compare.Relation

func (f fixedClassifier) Classify(ctx context.Context, reference, lhs, rhs string) (compare.Relation, error) {
	return compare.Relation(f), nil
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	service := compare.NewService(operand.NewResolver(nil, nil, nil), fixedClassifier(compare.Disjoint),
		compare.WithMetrics(metrics.New(reg)))
	handler := NewServer(service, fakeChecker{}, fakeNormalizer{}, WithGatherer(reg)).Handler()

	w := serve(t, handler, "/compare/?reference=AAAATTTCCCCCGGGG&reference_type=sequence&lhs=AAAA&lhs_type=sequence&rhs=GGGG&rhs_type=sequence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"relation":"disjoint"}`, w.Body.String())

	w = serve(t, handler, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `varcompare_comparisons_total{outcome="disjoint"} 1`), w.Body.String())
}

func TestMetrics_Disabled(t *testing.T) {
	handler := NewServer(&fakeComparer{}, fakeChecker{}, fakeNormalizer{}).Handler()
	assert.Equal(t, http.StatusNotFound, serve(t, handler, "/metrics", nil).Code)
}
