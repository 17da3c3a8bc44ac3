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

package variant

import (
	"strings"

	"github.com/googlegenomics/varcompare/internal/genomics"
	"github.com/googlegenomics/varcompare/internal/report"
)

// Pipeline canonicalizes genomic descriptions into ordered deletion-insertion
// edits.  The zero value is ready to use.
type Pipeline struct{}

// Canonicalize runs the three stages (internal coordinates, internal indexing
// and delins conversion) over d, against the reference sequence ref.
func (Pipeline) Canonicalize(d Description, ref string) ([]DelIns, error) {
	internal, err := ToInternalCoordinates(d, ref)
	if err != nil {
		return nil, err
	}
	indexed, err := ToInternalIndexing(internal)
	if err != nil {
		return nil, err
	}
	return ToDelIns(indexed, ref)
}

// ToInternalCoordinates converts the one-based genomic positions of d into
// zero-based positions, checking them against the length of ref.
func ToInternalCoordinates(d Description, ref string) (Description, error) {
	if d.CoordinateSystem != GenomicCoordinates {
		return Description{}, newError(report.CodeUnsupported, "coordinate system %q is not supported", d.CoordinateSystem)
	}

	convert := func(l *Location) (*Location, error) {
		if l.Uncertain || l.Offset != nil || l.OutsideCDS != "" {
			return nil, newError(report.CodeUnsupported, "uncertain or offset positions are not supported in genomic descriptions")
		}
		if l.Position < 1 || l.Position > len(ref) {
			return nil, newError(report.CodeOutOfBoundary, "position %d is outside the reference (length %d)", l.Position, len(ref))
		}
		return point(l.Position - 1), nil
	}

	out := Description{CoordinateSystem: d.CoordinateSystem}
	for _, v := range d.Variants {
		location, err := mapLocation(v.Location, convert)
		if err != nil {
			return Description{}, err
		}
		inserted, err := mapInsertions(v.Inserted, convert)
		if err != nil {
			return Description{}, err
		}
		deleted, err := mapInsertions(v.Deleted, convert)
		if err != nil {
			return Description{}, err
		}
		out.Variants = append(out.Variants, Variant{v.Type, location, deleted, inserted})
	}
	return out, nil
}

// ToInternalIndexing turns every location of d into a half-open range.  A
// point p becomes [p, p+1), a range [s, e] becomes [s, e+1) and the location
// of an insertion, which names the two positions flanking it, becomes the
// empty range between them.
func ToInternalIndexing(d Description) (Description, error) {
	out := Description{CoordinateSystem: d.CoordinateSystem}
	for _, v := range d.Variants {
		start, end, err := bounds(v.Location)
		if err != nil {
			return Description{}, err
		}
		var location Location
		if v.Type == InsertionVariant {
			if end != start+1 {
				return Description{}, newError(report.CodeInsertionRange, "insertion location must name two adjacent positions")
			}
			location = span(end, end)
		} else {
			location = span(start, end+1)
		}

		inserted := make([]Insertion, len(v.Inserted))
		for i, ins := range v.Inserted {
			inserted[i] = ins
			if ins.Location != nil {
				s, e, err := bounds(*ins.Location)
				if err != nil {
					return Description{}, err
				}
				l := span(s, e+1)
				inserted[i].Location = &l
			}
		}
		out.Variants = append(out.Variants, Variant{v.Type, location, v.Deleted, inserted})
	}
	return out, nil
}

// ToDelIns converts an internally indexed description into edits ordered by
// start position.
func ToDelIns(d Description, ref string) ([]DelIns, error) {
	var edits []DelIns
	for _, v := range d.Variants {
		location, err := toRange(v.Location, ref)
		if err != nil {
			return nil, err
		}
		deleted := ref[location.Start:location.End]

		var inserted string
		switch v.Type {
		case Substitution, DeletionInsertion, Deletion, InsertionVariant:
			if err := checkDeleted(v.Deleted, deleted); err != nil {
				return nil, err
			}
			if inserted, err = insertedSequence(v.Inserted, ref); err != nil {
				return nil, err
			}
		case Duplication:
			location = genomics.Range{Start: location.End, End: location.End}
			inserted = deleted
		case Inversion:
			inserted = genomics.ReverseComplement(deleted)
		case Equal:
			inserted = deleted
		default:
			return nil, newError(report.CodeUnsupported, "variant type %q is not supported", v.Type)
		}
		edits = append(edits, DelIns{location, inserted})
	}
	sortEdits(edits)
	return edits, nil
}

func mapLocation(l Location, f func(*Location) (*Location, error)) (Location, error) {
	switch l.Type {
	case Point:
		p, err := f(&l)
		if err != nil {
			return Location{}, err
		}
		return *p, nil
	case Range:
		if l.Start == nil || l.End == nil {
			return Location{}, newError(report.CodeUnsupported, "range without start or end")
		}
		start, err := f(l.Start)
		if err != nil {
			return Location{}, err
		}
		end, err := f(l.End)
		if err != nil {
			return Location{}, err
		}
		return Location{Type: Range, Start: start, End: end}, nil
	}
	return Location{}, newError(report.CodeUnsupported, "location type %q is not supported", l.Type)
}

func mapInsertions(insertions []Insertion, f func(*Location) (*Location, error)) ([]Insertion, error) {
	if insertions == nil {
		return nil, nil
	}
	out := make([]Insertion, len(insertions))
	for i, ins := range insertions {
		out[i] = ins
		if ins.Location != nil {
			l, err := mapLocation(*ins.Location, f)
			if err != nil {
				return nil, err
			}
			out[i].Location = &l
		}
	}
	return out, nil
}

// bounds returns the inclusive start and end positions of a location.
func bounds(l Location) (int, int, error) {
	switch l.Type {
	case Point:
		return l.Position, l.Position, nil
	case Range:
		if l.Start == nil || l.End == nil {
			return 0, 0, newError(report.CodeUnsupported, "range without start or end")
		}
		if l.Start.Position > l.End.Position {
			return 0, 0, newError(report.CodeRangeReversed, "range start %d is after its end %d", l.Start.Position, l.End.Position)
		}
		return l.Start.Position, l.End.Position, nil
	}
	return 0, 0, newError(report.CodeUnsupported, "location type %q is not supported", l.Type)
}

func toRange(l Location, ref string) (genomics.Range, error) {
	if l.Type != Range || l.Start == nil || l.End == nil {
		return genomics.Range{}, newError(report.CodeUnsupported, "location is not internally indexed")
	}
	r := genomics.Range{Start: l.Start.Position, End: l.End.Position}
	if !r.Within(len(ref)) {
		return genomics.Range{}, newError(report.CodeOutOfBoundary, "range %s is outside the reference (length %d)", r, len(ref))
	}
	return r, nil
}

func checkDeleted(deleted []Insertion, want string) error {
	var literal strings.Builder
	for _, d := range deleted {
		if d.Location != nil || d.Sequence == "" {
			return nil
		}
		literal.WriteString(d.Sequence)
	}
	if got := literal.String(); got != "" && !strings.EqualFold(got, want) {
		return newError(report.CodeSequenceMismatch, "deleted sequence %s does not match reference %s", got, want)
	}
	return nil
}

func insertedSequence(insertions []Insertion, ref string) (string, error) {
	var out strings.Builder
	for _, ins := range insertions {
		sequence := ins.Sequence
		if ins.Location != nil {
			r, err := toRange(*ins.Location, ref)
			if err != nil {
				return "", err
			}
			sequence = ref[r.Start:r.End]
		}
		if ins.Inverted {
			sequence = genomics.ReverseComplement(sequence)
		}
		if ins.RepeatNumber != nil {
			if ins.RepeatNumber.Value < 0 {
				return "", newError(report.CodeUnsupported, "negative repeat number %d", ins.RepeatNumber.Value)
			}
			sequence = strings.Repeat(sequence, ins.RepeatNumber.Value)
		}
		out.WriteString(sequence)
	}
	return out.String(), nil
}
