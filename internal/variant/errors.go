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
	"fmt"

	"github.com/googlegenomics/varcompare/internal/report"
)

// UnexpectedCharacterError is returned by parsers when the input contains a
// character that cannot continue the current production.
type UnexpectedCharacterError struct {
	Position  int
	Character string
	Expecting []string
}

func (err *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf("unexpected character %q at position %d", err.Character, err.Position)
}

// Record implements report.Recorder.
func (err *UnexpectedCharacterError) Record() report.Record {
	return report.UnexpectedCharacter(err.Character, err.Position, err.Expecting)
}

// UnexpectedEndError is returned by parsers when the input ends before the
// production is complete.
type UnexpectedEndError struct {
	Position  int
	Expecting []string
}

func (err *UnexpectedEndError) Error() string {
	return fmt.Sprintf("unexpected end of input at position %d", err.Position)
}

// Record implements report.Recorder.
func (err *UnexpectedEndError) Record() report.Record {
	return report.UnexpectedEnd(err.Position, err.Expecting)
}

// Error is a failure to canonicalize or apply a variant.
type Error struct {
	Code    report.Code
	Details string
}

func newError(code report.Code, format string, args ...interface{}) error {
	return &Error{code, fmt.Sprintf(format, args...)}
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.Code, err.Details)
}

// Record implements report.Recorder.
func (err *Error) Record() report.Record {
	return report.Record{Code: err.Code, Details: err.Details}
}
