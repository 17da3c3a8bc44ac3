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
	"sort"
)

// Role names the request field an error is attributed to.
type Role string

const (
	RoleReferenceType Role = "reference_type"
	RoleLHSType       Role = "lhs_type"
	RoleRHSType       Role = "rhs_type"
	RoleReference     Role = "reference"
	RoleLHS           Role = "lhs"
	RoleRHS           Role = "rhs"
)

// Roles lists every role in reporting order.
var Roles = []Role{RoleReferenceType, RoleLHSType, RoleRHSType, RoleReference, RoleLHS, RoleRHS}

// Bundle maps roles to their errors.  A role without an entry has no errors.
// The records of each role are kept sorted by sortKey so that equal inputs
// always produce identical bundles, regardless of the order in which the
// records were added.
type Bundle map[Role][]Record

// Add appends records to role and re-sorts the role's list.  Adding no
// records leaves the bundle unchanged.
func (b Bundle) Add(role Role, records ...Record) {
	if len(records) == 0 {
		return
	}
	list := append(b[role], records...)
	sort.SliceStable(list, func(i, j int) bool {
		return sortKey(list[i]) < sortKey(list[j])
	})
	b[role] = list
}

// Empty reports whether the bundle holds no records.
func (b Bundle) Empty() bool {
	for _, records := range b {
		if len(records) > 0 {
			return false
		}
	}
	return true
}

// sortKey orders records by code first and then by their full JSON encoding,
// which is stable because Record has a fixed field order.
func sortKey(r Record) string {
	encoded, err := json.Marshal(r)
	if err != nil {
		return string(r.Code)
	}
	return string(r.Code) + "\x00" + string(encoded)
}
