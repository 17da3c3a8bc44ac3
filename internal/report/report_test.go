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

package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBundle_AddSorts(t *testing.T) {
	first := MissingParameter("reference")
	second := InvalidInput("bogus", []string{"sequence", "id"})
	third := InvalidInput("alpha", []string{"sequence", "id"})

	forward, backward := Bundle{}, Bundle{}
	forward.Add(RoleReference, first, second, third)
	backward.Add(RoleReference, third)
	backward.Add(RoleReference, second)
	backward.Add(RoleReference, first)

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Fatalf("Bundles differ by insertion order (-forward +backward):\n%s", diff)
	}

	got := forward[RoleReference]
	want := []Code{CodeInvalidInput, CodeInvalidInput, CodeMissingParameter}
	for i := range want {
		if got[i].Code != want[i] {
			t.Errorf("Wrong code at %d: got %v, want %v", i, got[i].Code, want[i])
		}
	}
	if got, want := got[0].Value, "alpha"; got != want {
		t.Errorf("Wrong first value: got %q, want %q", got, want)
	}
}

func TestBundle_Empty(t *testing.T) {
	b := Bundle{}
	if !b.Empty() {
		t.Errorf("New bundle is not empty")
	}
	b.Add(RoleLHS)
	if !b.Empty() {
		t.Errorf("Adding no records made the bundle non-empty")
	}
	if _, ok := b[RoleLHS]; ok {
		t.Errorf("Adding no records created a role entry")
	}
	b.Add(RoleLHS, Internal(errors.New("boom")))
	if b.Empty() {
		t.Errorf("Bundle with a record reports empty")
	}
}

func TestBundle_DeterministicJSON(t *testing.T) {
	build := func(order []Role) []byte {
		b := Bundle{}
		for _, role := range order {
			b.Add(role, UnexpectedEnd(4, []string{"]"}), UnexpectedCharacter("(", 2, nil))
		}
		encoded, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode bundle: %v", err)
		}
		return encoded
	}

	a := build([]Role{RoleLHS, RoleRHS})
	b := build([]Role{RoleRHS, RoleLHS})
	if string(a) != string(b) {
		t.Errorf("Encodings differ:\n%s\n%s", a, b)
	}
}

func TestFromError(t *testing.T) {
	if got, want := FromError(errors.New("boom")).Code, CodeInternal; got != want {
		t.Errorf("Wrong code for plain error: got %v, want %v", got, want)
	}
	if got, want := FromError(recordError{ReferenceNotRetrieved("NG_1")}).Code, CodeRetrieval; got != want {
		t.Errorf("Wrong code for recorder: got %v, want %v", got, want)
	}
}

func TestUnexpectedCharacter_PositionZero(t *testing.T) {
	encoded, err := json.Marshal(UnexpectedCharacter("[", 0, nil))
	if err != nil {
		t.Fatalf("Failed to encode record: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if got, want := decoded["pos_in_stream"], float64(0); got != want {
		t.Errorf("Wrong position: got %v, want %v", got, want)
	}
}

func TestRecord_KeepsUnknownFields(t *testing.T) {
	const input = `{"code":"ENOSELECTORFOUND","details":"x","selector_id":"NM_1.1","paths":[["variants",0]]}`

	var r Record
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if got, want := r.Code, Code("ENOSELECTORFOUND"); got != want {
		t.Errorf("Wrong code: got %v, want %v", got, want)
	}
	if got, want := len(r.Extra), 2; got != want {
		t.Errorf("Wrong number of extra fields: got %d, want %d", got, want)
	}

	encoded, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Failed to encode record: %v", err)
	}
	var got, want map[string]interface{}
	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("Failed to decode %s: %v", encoded, err)
	}
	if err := json.Unmarshal([]byte(input), &want); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Wrong encoding (-want +got):\n%s", diff)
	}
}

func TestRecord_KnownFieldsOnly(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"code":"ERETR","id":"NG_1"}`), &r); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if r.Extra != nil {
		t.Errorf("Unexpected extra fields: %v", r.Extra)
	}
	if diff := cmp.Diff(Record{Code: CodeRetrieval, ID: "NG_1"}, r); diff != "" {
		t.Errorf("Wrong record (-want +got):\n%s", diff)
	}

	r.Extra = map[string]json.RawMessage{"code": json.RawMessage(`"EOTHER"`)}
	encoded, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Failed to encode record: %v", err)
	}
	var decoded Record
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Failed to decode %s: %v", encoded, err)
	}
	if got, want := decoded.Code, CodeRetrieval; got != want {
		t.Errorf("Extra field replaced code: got %v, want %v", got, want)
	}
}

type recordError struct{ r Record }

func (e recordError) Error() string  { return e.r.Details }
func (e recordError) Record() Record { return e.r }
