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

// Package variant models parsed variant descriptions and turns them into
// canonical deletion-insertion edits that can be applied to a reference.
//
// The model mirrors the JSON produced by Mutalyzer-compatible description
// parsers, restricted to the genomic coordinate system.
package variant

import "github.com/googlegenomics/varcompare/internal/genomics"

// Variant types understood by the pipeline.
const (
	Substitution       = "substitution"
	Deletion           = "deletion"
	Duplication        = "duplication"
	InsertionVariant   = "insertion"
	Inversion          = "inversion"
	DeletionInsertion  = "deletion_insertion"
	Equal              = "equal"
	GenomicCoordinates = "g"
)

// Description is a list of variants interpreted in a coordinate system.
type Description struct {
	CoordinateSystem string    `json:"coordinate_system"`
	Variants         []Variant `json:"variants"`
}

// Variant is a single edit as produced by the parser.
type Variant struct {
	Type     string      `json:"type"`
	Location Location    `json:"location"`
	Deleted  []Insertion `json:"deleted,omitempty"`
	Inserted []Insertion `json:"inserted,omitempty"`
}

// Location is either a point or a range of two points.
type Location struct {
	Type       string    `json:"type"`
	Position   int       `json:"position,omitempty"`
	Start      *Location `json:"start,omitempty"`
	End        *Location `json:"end,omitempty"`
	Uncertain  bool      `json:"uncertain,omitempty"`
	Offset     *Number   `json:"offset,omitempty"`
	OutsideCDS string    `json:"outside_cds,omitempty"`
}

// Location types.
const (
	Point = "point"
	Range = "range"
)

// Number wraps an integer value in the parser's model.
type Number struct {
	Value int `json:"value"`
}

// Insertion is a piece of inserted (or deleted) sequence.  It is either a
// literal sequence or a location on the reference, optionally inverted and
// repeated.
type Insertion struct {
	Sequence     string    `json:"sequence,omitempty"`
	Location     *Location `json:"location,omitempty"`
	Inverted     bool      `json:"inverted,omitempty"`
	RepeatNumber *Number   `json:"repeat_number,omitempty"`
}

// DelIns replaces the reference positions in Location with Inserted.
type DelIns struct {
	Location genomics.Range
	Inserted string
}

func point(position int) *Location {
	return &Location{Type: Point, Position: position}
}

func span(start, end int) Location {
	return Location{Type: Range, Start: point(start), End: point(end)}
}
