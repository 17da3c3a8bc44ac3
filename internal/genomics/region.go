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

// Package genomics contains definitions related to Genomic data.
package genomics

import "fmt"

// Range defines a half-open interval [Start, End) of zero-based positions on
// a sequence.  An empty range (Start == End) denotes the point between two
// positions, as used by insertions.
type Range struct {
	Start, End int
}

// Len returns the number of positions covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Within reports whether the range lies inside a sequence of length n.
func (r Range) Within(n int) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= n
}

// Overlaps reports whether the two ranges share a position.  Empty ranges are
// considered to overlap a range that strictly contains their point.
func (r Range) Overlaps(other Range) bool {
	if r.Len() == 0 || other.Len() == 0 {
		return r.Start > other.Start && r.Start < other.End ||
			other.Start > r.Start && other.Start < r.End ||
			r == other
	}
	return r.Start < other.End && other.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[start:%d, end:%d]", r.Start, r.End)
}

var complement = map[byte]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A', 'N': 'N',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'u': 'a', 'n': 'n',
	'R': 'Y', 'Y': 'R', 'K': 'M', 'M': 'K', 'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D',
	'S': 'S', 'W': 'W',
}

// ReverseComplement returns the reverse complement of a nucleotide sequence.
// Characters without a known complement are kept as they are.
func ReverseComplement(sequence string) string {
	out := make([]byte, len(sequence))
	for i := 0; i < len(sequence); i++ {
		c := sequence[len(sequence)-1-i]
		if v, ok := complement[c]; ok {
			c = v
		}
		out[i] = c
	}
	return string(out)
}
