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

// Package compare classifies the relation between two operands that are
// resolved against a shared reference sequence.
package compare

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/googlegenomics/varcompare/internal/metrics"
	"github.com/googlegenomics/varcompare/internal/operand"
	"github.com/googlegenomics/varcompare/internal/report"
)

// Relation is the classification produced by a Classifier.  Its values are
// passed through without interpretation.
type Relation string

// Relations produced by the sequence algebra service.
const (
	Equivalent  Relation = "equivalent"
	Contains    Relation = "contains"
	IsContained Relation = "is_contained"
	Overlap     Relation = "overlap"
	Disjoint    Relation = "disjoint"
)

// Classifier computes the relation between two observed sequences derived
// from the same reference.
type Classifier interface {
	Classify(ctx context.Context, reference, lhs, rhs string) (Relation, error)
}

var (
	referenceKinds = []operand.Kind{operand.KindSequence, operand.KindID}
	operatorKinds  = []operand.Kind{operand.KindSequence, operand.KindVariant, operand.KindHGVS}
)

// Request holds the raw inputs of a comparison.  Reference and ReferenceType
// are nil when absent; an empty ReferenceType is treated as absent too.
type Request struct {
	Reference     *string
	ReferenceType *string
	LHS           string
	LHSType       string
	RHS           string
	RHSType       string
}

// Result holds either a relation or the errors that prevented computing one.
type Result struct {
	Relation Relation      `json:"relation,omitempty"`
	Errors   report.Bundle `json:"errors,omitempty"`
}

// Failed reports whether the comparison produced errors.
func (r Result) Failed() bool {
	return !r.Errors.Empty()
}

func failure(role report.Role, records ...report.Record) Result {
	b := report.Bundle{}
	b.Add(role, records...)
	return Result{Errors: b}
}

// Service compares operands.  Must be created with NewService.
type Service struct {
	resolver   *operand.Resolver
	classifier Classifier
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics enables instrumentation of comparisons.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService returns a Service resolving operands with resolver and
// classifying them with classifier.
func NewService(resolver *operand.Resolver, classifier Classifier, opts ...Option) *Service {
	s := &Service{resolver: resolver, classifier: classifier, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare resolves the reference and both operands of req and classifies
// their relation.  Problems with the inputs are reported in the Result, which
// then holds either a relation or errors, never both.
//
// The returned error is only set when the classifier itself could not be
// used.  That is an infrastructure failure rather than a comparison outcome:
// the Result is empty, with neither a relation nor errors, and callers report
// it separately (the API answers 502).
func (s *Service) Compare(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	result, err := s.compare(ctx, req)
	if err != nil {
		s.logger.Warn("Comparison failed", zap.Error(err))
		return Result{}, err
	}

	if result.Failed() {
		s.logger.Debug("Comparison rejected", zap.Any("errors", result.Errors))
		if s.metrics != nil {
			s.metrics.ObserveErrors(result.Errors, start)
		}
	} else {
		s.logger.Debug("Comparison classified", zap.String("relation", string(result.Relation)))
		if s.metrics != nil {
			s.metrics.ObserveRelation(string(result.Relation), start)
		}
	}
	return result, nil
}

// referenceMode selects where the shared reference sequence comes from.
type referenceMode int

const (
	referenceGiven referenceMode = iota
	referenceRetrieved
	referenceFromLHS
	referenceUnresolved
)

func selectMode(referenceKind *operand.Kind, lhsKind operand.Kind) referenceMode {
	if referenceKind != nil {
		switch *referenceKind {
		case operand.KindSequence:
			return referenceGiven
		case operand.KindID:
			return referenceRetrieved
		}
	}
	switch lhsKind {
	case operand.KindHGVS:
		return referenceFromLHS
	case operand.KindSequence, operand.KindVariant, operand.KindID:
		return referenceUnresolved
	}
	return referenceUnresolved
}

func (s *Service) compare(ctx context.Context, req Request) (Result, error) {
	var referenceKind *operand.Kind
	errs := report.Bundle{}
	if req.ReferenceType != nil && *req.ReferenceType != "" {
		if kind, ok := parseKind(*req.ReferenceType, referenceKinds); ok {
			referenceKind = &kind
		} else {
			errs.Add(report.RoleReferenceType, report.InvalidInput(*req.ReferenceType, kindNames(referenceKinds)))
		}
	}
	lhsKind, ok := parseKind(req.LHSType, operatorKinds)
	if !ok {
		errs.Add(report.RoleLHSType, report.InvalidInput(req.LHSType, kindNames(operatorKinds)))
	}
	rhsKind, ok := parseKind(req.RHSType, operatorKinds)
	if !ok {
		errs.Add(report.RoleRHSType, report.InvalidInput(req.RHSType, kindNames(operatorKinds)))
	}
	if !errs.Empty() {
		return Result{Errors: errs}, nil
	}

	if referenceKind != nil && req.Reference == nil {
		return failure(report.RoleReference, report.MissingParameter("reference")), nil
	}

	var reference, lhs, rhs *operand.Resolved
	var sequence string
	switch selectMode(referenceKind, lhsKind) {
	case referenceGiven:
		r := s.resolver.ResolveSequence(*req.Reference)
		reference, sequence = &r, r.Sequence
	case referenceRetrieved:
		r := s.resolver.ResolveID(ctx, *req.Reference)
		if r.Failed() {
			return failure(report.RoleReference, r.Errors...), nil
		}
		reference, sequence = &r, r.ReferenceSequence
	case referenceFromLHS:
		r := s.resolver.ResolveHGVS(ctx, req.LHS)
		if r.Failed() {
			return failure(report.RoleLHS, r.Errors...), nil
		}
		lhs, sequence = &r, r.ReferenceSequence
	case referenceUnresolved:
		return failure(report.RoleReference, report.NoReference(string(lhsKind))), nil
	}

	// The operands are independent once the reference is known.  The bundle
	// sorts its records, so completion order does not matter.
	var g errgroup.Group
	if lhs == nil {
		g.Go(func() error {
			r := s.resolve(ctx, lhsKind, req.LHS, sequence)
			lhs = &r
			return nil
		})
	}
	g.Go(func() error {
		r := s.resolve(ctx, rhsKind, req.RHS, sequence)
		rhs = &r
		return nil
	})
	_ = g.Wait()

	if reference != nil {
		errs.Add(report.RoleReference, reference.Errors...)
	}
	errs.Add(report.RoleLHS, lhs.Errors...)
	errs.Add(report.RoleRHS, rhs.Errors...)
	if !errs.Empty() {
		return Result{Errors: errs}, nil
	}

	relation, err := s.classifier.Classify(ctx, sequence, lhs.Sequence, rhs.Sequence)
	if err != nil {
		return Result{}, fmt.Errorf("classifying relation: %v", err)
	}
	return Result{Relation: relation}, nil
}

func (s *Service) resolve(ctx context.Context, kind operand.Kind, input, reference string) operand.Resolved {
	op, err := operand.New(kind, input)
	if err != nil {
		return operand.Resolved{Input: input, Kind: kind, Errors: []report.Record{report.Internal(err)}}
	}
	return s.resolver.Resolve(ctx, op, reference)
}

func parseKind(value string, allowed []operand.Kind) (operand.Kind, bool) {
	for _, kind := range allowed {
		if string(kind) == value {
			return kind, true
		}
	}
	return "", false
}

func kindNames(kinds []operand.Kind) []string {
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return names
}
