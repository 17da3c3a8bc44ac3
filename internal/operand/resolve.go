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

package operand

import (
	"context"
	"errors"
	"fmt"

	"github.com/googlegenomics/varcompare/internal/report"
	"github.com/googlegenomics/varcompare/internal/variant"
)

// Parser parses variant shorthand into the variant model.  Syntax errors are
// reported as *variant.UnexpectedCharacterError or *variant.UnexpectedEndError.
type Parser interface {
	ParseVariants(ctx context.Context, text string) ([]variant.Variant, error)
}

// Normalized is the outcome of normalizing a complete description.  When
// Errors is non-empty the other sequence fields are meaningless.
type Normalized struct {
	Description       string
	ReferenceSequence string
	ObservedSequence  string
	Errors            []report.Record
	Infos             []report.Record
}

// Normalizer parses, resolves the reference of and normalizes a complete
// description.  A returned error means the normalizer could not be reached;
// problems with the description itself are reported in Normalized.Errors.
type Normalizer interface {
	Normalize(ctx context.Context, description string) (*Normalized, error)
}

// Canonicalizer turns a description into ordered deletion-insertion edits on
// ref.
type Canonicalizer interface {
	Canonicalize(d variant.Description, ref string) ([]variant.DelIns, error)
}

// Mutator applies edits to ref.
type Mutator interface {
	Mutate(ref string, edits []variant.DelIns) (string, error)
}

// Retriever fetches a reference sequence by id.
type Retriever interface {
	Retrieve(ctx context.Context, id string) (string, error)
}

// Resolver resolves operands using its collaborators.  Resolvers hold no
// per-request state and may be shared between goroutines.
type Resolver struct {
	Parser        Parser
	Normalizer    Normalizer
	Canonicalizer Canonicalizer
	Mutator       Mutator
	References    Retriever
}

// NewResolver returns a Resolver using the given collaborators and the
// genomic pipeline and mutator from the variant package.
func NewResolver(parser Parser, normalizer Normalizer, references Retriever) *Resolver {
	return &Resolver{
		Parser:        parser,
		Normalizer:    normalizer,
		Canonicalizer: variant.Pipeline{},
		Mutator:       variant.Mutator{},
		References:    references,
	}
}

// Resolve resolves op.  The reference sequence ref is only used by Variant
// operands.
func (r *Resolver) Resolve(ctx context.Context, op Operand, ref string) Resolved {
	switch op := op.(type) {
	case Sequence:
		return r.ResolveSequence(string(op))
	case ID:
		return r.ResolveID(ctx, string(op))
	case Variant:
		return r.ResolveVariant(ctx, string(op), ref)
	case HGVS:
		return r.ResolveHGVS(ctx, string(op))
	}
	return Resolved{Errors: []report.Record{report.Internal(fmt.Errorf("unsupported operand %T", op))}}
}

// ResolveSequence returns text as the observed sequence.  The alphabet is not
// checked.
func (r *Resolver) ResolveSequence(text string) Resolved {
	return Resolved{Input: text, Kind: KindSequence, Sequence: text}
}

// ResolveID fetches the reference identified by id, which becomes both the
// observed and the reference sequence.
func (r *Resolver) ResolveID(ctx context.Context, id string) Resolved {
	sequence, err := r.References.Retrieve(ctx, id)
	if err != nil {
		return failed(ID(id), report.ReferenceNotRetrieved(id))
	}
	return Resolved{Input: id, Kind: KindID, Sequence: sequence, ReferenceSequence: sequence}
}

// ResolveVariant applies the variants described by text to ref.
func (r *Resolver) ResolveVariant(ctx context.Context, text, ref string) Resolved {
	op := Variant(text)

	variants, err := r.Parser.ParseVariants(ctx, text)
	if err != nil {
		var uc *variant.UnexpectedCharacterError
		var ueof *variant.UnexpectedEndError
		switch {
		case errors.As(err, &uc):
			return failed(op, uc.Record())
		case errors.As(err, &ueof):
			return failed(op, ueof.Record())
		}
		return failed(op, report.FromError(err))
	}

	description := variant.Description{
		CoordinateSystem: variant.GenomicCoordinates,
		Variants:         variants,
	}
	edits, err := r.Canonicalizer.Canonicalize(description, ref)
	if err != nil {
		return failed(op, report.FromError(err))
	}
	observed, err := r.Mutator.Mutate(ref, edits)
	if err != nil {
		return failed(op, report.FromError(err))
	}
	return Resolved{Input: text, Kind: KindVariant, Sequence: observed}
}

// ResolveHGVS normalizes a complete description.  It is the only kind of
// operand that supplies its own reference sequence.
func (r *Resolver) ResolveHGVS(ctx context.Context, description string) Resolved {
	op := HGVS(description)

	normalized, err := r.Normalizer.Normalize(ctx, description)
	if err != nil {
		return failed(op, report.FromError(err))
	}
	if len(normalized.Errors) > 0 {
		return failed(op, normalized.Errors...)
	}
	return Resolved{
		Input:             description,
		Kind:              KindHGVS,
		Sequence:          normalized.ObservedSequence,
		ReferenceSequence: normalized.ReferenceSequence,
		Infos:             normalized.Infos,
	}
}
