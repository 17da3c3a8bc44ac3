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

// Package report defines the error and info records attached to resolved
// operands and comparison results.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Code identifies the kind of a Record.
type Code string

const (
	CodeInvalidInput        Code = "EINVALIDINPUT"
	CodeMissingParameter    Code = "EMISSINGPARAMETER"
	CodeUnexpectedCharacter Code = "ESYNTAXUC"
	CodeUnexpectedEnd       Code = "ESYNTAXUEOF"
	CodeRetrieval           Code = "ERETR"
	CodeNoReference         Code = "ENOREFERENCE"
	CodeOutOfBoundary       Code = "EOUTOFBOUNDARY"
	CodeSequenceMismatch    Code = "ESEQUENCEMISMATCH"
	CodeOverlap             Code = "EOVERLAP"
	CodeRangeReversed       Code = "ERANGEREVERSED"
	CodeInsertionRange      Code = "EINSERTIONRANGE"
	CodeUnsupported         Code = "EUNSUPPORTED"
	CodeInternal            Code = "EINTERNAL"
)

// Record describes a single error or informational notice.  Records are
// values; the constructors below are the only intended way to build the
// well-known kinds, while records reported by the description normalizer are
// decoded as-is.
type Record struct {
	Code    Code   `json:"code"`
	Details string `json:"details,omitempty"`

	// Context, populated depending on Code.
	Value     string   `json:"value,omitempty"`
	Options   []string `json:"options,omitempty"`
	Parameter string   `json:"parameter,omitempty"`
	ID        string   `json:"id,omitempty"`
	Character string   `json:"unexpected_character,omitempty"`
	Position  *int     `json:"pos_in_stream,omitempty"`
	Expecting []string `json:"expecting,omitempty"`

	// Extra holds the fields of a decoded record that have no field above.
	// They are encoded again unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// recordFields are the JSON names of the fields of Record.
var recordFields = []string{
	"code", "details", "value", "options", "parameter", "id",
	"unexpected_character", "pos_in_stream", "expecting",
}

// plainRecord has the fields of Record without its JSON methods.
type plainRecord Record

// UnmarshalJSON implements json.Unmarshaler, keeping unknown fields in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var plain plainRecord
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, name := range recordFields {
		delete(fields, name)
	}
	plain.Extra = nil
	if len(fields) > 0 {
		plain.Extra = fields
	}
	*r = Record(plain)
	return nil
}

// MarshalJSON implements json.Marshaler.  Extra fields never replace a known
// field of the same name.
func (r Record) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(plainRecord(r))
	if err != nil || len(r.Extra) == 0 {
		return encoded, err
	}
	fields := make(map[string]json.RawMessage, len(r.Extra)+len(recordFields))
	for name, value := range r.Extra {
		fields[name] = value
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &known); err != nil {
		return nil, err
	}
	for name, value := range known {
		fields[name] = value
	}
	return json.Marshal(fields)
}

// Recorder is implemented by errors that know which Record describes them.
type Recorder interface {
	Record() Record
}

// InvalidInput reports that value is not one of options.
func InvalidInput(value string, options []string) Record {
	return Record{
		Code:    CodeInvalidInput,
		Details: fmt.Sprintf("Invalid input %q, expected one of: %s.", value, strings.Join(options, ", ")),
		Value:   value,
		Options: append([]string(nil), options...),
	}
}

// MissingParameter reports that the named parameter was required but absent.
func MissingParameter(name string) Record {
	return Record{
		Code:      CodeMissingParameter,
		Details:   fmt.Sprintf("Missing parameter %s.", name),
		Parameter: name,
	}
}

// UnexpectedCharacter reports a syntax error at a malformed character.
func UnexpectedCharacter(character string, position int, expecting []string) Record {
	return Record{
		Code:      CodeUnexpectedCharacter,
		Details:   fmt.Sprintf("Unexpected character %q at position %d.", character, position),
		Character: character,
		Position:  &position,
		Expecting: append([]string(nil), expecting...),
	}
}

// UnexpectedEnd reports a syntax error caused by premature end of input.
func UnexpectedEnd(position int, expecting []string) Record {
	return Record{
		Code:      CodeUnexpectedEnd,
		Details:   "Unexpected end of input.",
		Position:  &position,
		Expecting: append([]string(nil), expecting...),
	}
}

// ReferenceNotRetrieved reports that the reference id could not be fetched.
func ReferenceNotRetrieved(id string) Record {
	return Record{
		Code:    CodeRetrieval,
		Details: fmt.Sprintf("Reference %s could not be retrieved.", id),
		ID:      id,
	}
}

// NoReference reports that no shared reference sequence can be established
// for an operand of type lhsType when the reference is not supplied.
func NoReference(lhsType string) Record {
	return Record{
		Code:    CodeNoReference,
		Details: fmt.Sprintf("No reference could be resolved for a %s left-hand operand; provide a reference and reference_type.", lhsType),
		Value:   lhsType,
	}
}

// Internal reports an unexpected collaborator failure.
func Internal(err error) Record {
	return Record{
		Code:    CodeInternal,
		Details: err.Error(),
	}
}

// FromError converts err into a Record, using the record carried by the
// first error in its chain that implements Recorder.
func FromError(err error) Record {
	var r Recorder
	if errors.As(err, &r) {
		return r.Record()
	}
	return Internal(err)
}
