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

// Package api implements the variant comparison HTTP API.
//
// The following endpoints are exported:
//
//	GET /compare/?reference=&reference_type=&lhs=&lhs_type=&rhs=&rhs_type=
//	GET /syntax_check/{description}
//	GET /name_check/{description}
//	GET /metrics
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/googlegenomics/varcompare/internal/compare"
	"github.com/googlegenomics/varcompare/internal/operand"
	"github.com/googlegenomics/varcompare/internal/report"
)

const (
	comparePath     = "/compare/"
	syntaxCheckPath = "/syntax_check/"
	nameCheckPath   = "/name_check/"
	metricsPath     = "/metrics"

	correctSyntax = "Correct syntax."
)

var errMissingDescription = errors.New("no description specified")

// Comparer computes the relation between two operands.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (compare.Result, error)
}

// SyntaxChecker reports the syntax errors of a complete description.
type SyntaxChecker interface {
	CheckSyntax(ctx context.Context, description string) ([]report.Record, error)
}

// Server provides the comparison API.  Must be created with NewServer.
type Server struct {
	comparer   Comparer
	checker    SyntaxChecker
	normalizer operand.Normalizer
	logger     *zap.Logger
	gatherer   prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access logs and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer exports the metrics collected by gatherer on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = gatherer }
}

// NewServer returns a Server comparing with comparer.  The checker and
// normalizer back the syntax check and name check endpoints.
func NewServer(comparer Comparer, checker SyntaxChecker, normalizer operand.Normalizer, opts ...Option) *Server {
	s := &Server{
		comparer:   comparer,
		checker:    checker,
		normalizer: normalizer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export registers the API endpoints and middleware with router.
func (s *Server) Export(router gin.IRouter) {
	router.Use(requestID(), accessLog(s.logger), forwardOrigin())
	router.GET(comparePath, s.serveCompare)
	router.GET(syntaxCheckPath+"*description", s.serveSyntaxCheck)
	router.GET(nameCheckPath+"*description", s.serveNameCheck)
	if s.gatherer != nil {
		router.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns a gin engine serving the API.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	s.Export(router)
	return router
}

func (s *Server) serveCompare(c *gin.Context) {
	req := compare.Request{
		Reference:     optionalQuery(c, "reference"),
		ReferenceType: optionalQuery(c, "reference_type"),
		LHS:           c.Query("lhs"),
		LHSType:       c.Query("lhs_type"),
		RHS:           c.Query("rhs"),
		RHSType:       c.Query("rhs_type"),
	}

	result, err := s.comparer.Compare(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, newUpstreamError("comparing operands", err))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) serveSyntaxCheck(c *gin.Context) {
	description, err := parseDescription(c)
	if err != nil {
		s.writeError(c, newInvalidInputError("parsing description", err))
		return
	}

	records, err := s.checker.CheckSyntax(c.Request.Context(), description)
	if err != nil {
		s.writeError(c, newUpstreamError("checking syntax", err))
		return
	}
	if len(records) > 0 {
		c.JSON(http.StatusOK, gin.H{"errors": records})
		return
	}
	c.JSON(http.StatusOK, correctSyntax)
}

type nameCheckResponse struct {
	NormalizedDescription string          `json:"normalized_description,omitempty"`
	ReferenceSequence     string          `json:"reference_sequence,omitempty"`
	ObservedSequence      string          `json:"observed_sequence,omitempty"`
	Errors                []report.Record `json:"errors,omitempty"`
	Infos                 []report.Record `json:"infos,omitempty"`
}

func (s *Server) serveNameCheck(c *gin.Context) {
	description, err := parseDescription(c)
	if err != nil {
		s.writeError(c, newInvalidInputError("parsing description", err))
		return
	}

	normalized, err := s.normalizer.Normalize(c.Request.Context(), description)
	if err != nil {
		s.writeError(c, newUpstreamError("normalizing description", err))
		return
	}

	response := nameCheckResponse{Errors: normalized.Errors, Infos: normalized.Infos}
	if len(normalized.Errors) == 0 {
		response.NormalizedDescription = normalized.Description
		response.ReferenceSequence = normalized.ReferenceSequence
		response.ObservedSequence = normalized.ObservedSequence
	}
	c.JSON(http.StatusOK, response)
}

// optionalQuery returns nil if key is not present in the query string.
func optionalQuery(c *gin.Context, key string) *string {
	if value, ok := c.GetQuery(key); ok {
		return &value
	}
	return nil
}

func parseDescription(c *gin.Context) (string, error) {
	description := strings.TrimPrefix(c.Param("description"), "/")
	if description == "" {
		return "", errMissingDescription
	}
	return description, nil
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newUpstreamError(context string, err error) error {
	return newAPIError("UpstreamUnavailable", http.StatusBadGateway, context, err)
}

// writeError writes a JSON object describing err.  Errors not defined by the
// API are reported as internal errors.
func (s *Server) writeError(c *gin.Context, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = &apiError{"InternalError", http.StatusInternalServerError, err}
	}
	if apiErr.code >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(apiErr.cause))
	}
	c.AbortWithStatusJSON(apiErr.code, gin.H{
		"error":   apiErr.name,
		"message": fmt.Sprintf("%s: %v", http.StatusText(apiErr.code), apiErr.cause),
	})
}
