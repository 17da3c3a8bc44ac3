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
	"sort"
	"strings"

	"github.com/googlegenomics/varcompare/internal/report"
)

// Mutator applies deletion-insertion edits to a reference sequence.  The zero
// value is ready to use.
type Mutator struct{}

// Mutate returns the observed sequence obtained by applying edits to ref.
// Edits must lie within ref and must not overlap each other.
func (Mutator) Mutate(ref string, edits []DelIns) (string, error) {
	ordered := append([]DelIns(nil), edits...)
	sortEdits(ordered)

	var observed strings.Builder
	last := 0
	for i, edit := range ordered {
		if !edit.Location.Within(len(ref)) {
			return "", newError(report.CodeOutOfBoundary, "edit %s is outside the reference (length %d)", edit.Location, len(ref))
		}
		if i > 0 && (edit.Location.Start < last || edit.Location.Overlaps(ordered[i-1].Location)) {
			return "", newError(report.CodeOverlap, "edit %s overlaps edit %s", edit.Location, ordered[i-1].Location)
		}
		observed.WriteString(ref[last:edit.Location.Start])
		observed.WriteString(edit.Inserted)
		last = edit.Location.End
	}
	observed.WriteString(ref[last:])
	return observed.String(), nil
}

// sortEdits orders edits by start, placing an empty range before a non-empty
// one with the same start.
func sortEdits(edits []DelIns) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i].Location, edits[j].Location
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}
