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

// Package operand resolves the inputs of a comparison into observed
// sequences.
//
// An Operand is one of four kinds: a literal sequence, a reference id, a
// variant shorthand applied to a given reference, or a full HGVS description
// that carries its own reference.  Resolution never fails with a Go error;
// every problem is reported as records on the Resolved value.
package operand

import (
	"fmt"

	"github.com/googlegenomics/varcompare/internal/report"
)

// Kind names the kind of an Operand.
type Kind string

const (
	KindSequence Kind = "sequence"
	KindID       Kind = "id"
	KindVariant  Kind = "variant"
	KindHGVS     Kind = "hgvs"
)

// Operand is implemented by Sequence, ID, Variant and HGVS only.
type Operand interface {
	Kind() Kind
	Input() string
	isOperand()
}

// Sequence is a literal nucleotide sequence.
type Sequence string

// ID is a reference sequence identifier.
type ID string

// Variant is a shorthand list of edits, such as "[5T>A;8_12del]", that is
// interpreted against a reference supplied by the caller.
type Variant string

// HGVS is a complete variant description, such as "NG_012337.1:g.7125G>T".
type HGVS string

func (Sequence) Kind() Kind { return KindSequence }
func (ID) Kind() Kind       { return KindID }
func (Variant) Kind() Kind  { return KindVariant }
func (HGVS) Kind() Kind     { return KindHGVS }

func (o Sequence) Input() string { return string(o) }
func (o ID) Input() string       { return string(o) }
func (o Variant) Input() string  { return string(o) }
func (o HGVS) Input() string     { return string(o) }

func (Sequence) isOperand() {}
func (ID) isOperand()       {}
func (Variant) isOperand()  {}
func (HGVS) isOperand()     {}

// New returns the operand of the given kind holding input.
func New(kind Kind, input string) (Operand, error) {
	switch kind {
	case KindSequence:
		return Sequence(input), nil
	case KindID:
		return ID(input), nil
	case KindVariant:
		return Variant(input), nil
	case KindHGVS:
		return HGVS(input), nil
	}
	return nil, fmt.Errorf("unknown operand kind %q", kind)
}

// Resolved is the outcome of resolving an Operand.  When Errors is empty the
// resolution succeeded and Sequence holds the observed sequence; otherwise
// Sequence is empty.  ReferenceSequence is set when the operand determines a
// reference by itself (reference ids and HGVS descriptions).
type Resolved struct {
	Input             string          `json:"input"`
	Kind              Kind            `json:"type"`
	Sequence          string          `json:"sequence,omitempty"`
	ReferenceSequence string          `json:"reference_sequence,omitempty"`
	Errors            []report.Record `json:"errors,omitempty"`
	Infos             []report.Record `json:"infos,omitempty"`
}

// Failed reports whether resolution produced errors.
func (r Resolved) Failed() bool {
	return len(r.Errors) > 0
}

func failed(op Operand, records ...report.Record) Resolved {
	return Resolved{Input: op.Input(), Kind: op.Kind(), Errors: records}
}
