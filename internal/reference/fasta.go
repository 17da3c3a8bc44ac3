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

package reference

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^>\s*(\S+)`)

// ReadFASTA returns the sequence of the record named id from a FASTA stream.
// A stream holding a single record is returned whatever its name.
func ReadFASTA(r io.Reader, id string) (string, error) {
	var (
		names     []string
		sequences []*strings.Builder
		current   *strings.Builder
	)

	// >NG_012337.1 Homo sapiens succinate dehydrogenase ...
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
		case strings.HasPrefix(line, ">"):
			var name string
			if m := headerRe.FindStringSubmatch(line); m != nil {
				name = m[1]
			}
			current = &strings.Builder{}
			names = append(names, name)
			sequences = append(sequences, current)
		default:
			if current == nil {
				return "", fmt.Errorf("sequence data before the first header")
			}
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading FASTA: %v", err)
	}

	if len(sequences) == 1 {
		return sequences[0].String(), nil
	}
	for i, name := range names {
		if name == id {
			return sequences[i].String(), nil
		}
	}
	return "", fmt.Errorf("record %q: %w", id, ErrNotFound)
}
