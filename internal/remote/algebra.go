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

package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/googlegenomics/varcompare/internal/compare"
)

// Algebra talks to a sequence algebra service.  It implements
// compare.Classifier.
type Algebra struct {
	service
}

// NewAlgebra returns an Algebra client for the service at base.  A nil
// httpClient selects http.DefaultClient.
func NewAlgebra(base string, httpClient *http.Client) (*Algebra, error) {
	s, err := newService(base, httpClient)
	if err != nil {
		return nil, err
	}
	return &Algebra{s}, nil
}

type relationRequest struct {
	Reference string `json:"reference"`
	LHS       string `json:"lhs"`
	RHS       string `json:"rhs"`
}

type relationResponse struct {
	Relation compare.Relation `json:"relation"`
}

// Classify implements compare.Classifier.
func (a *Algebra) Classify(ctx context.Context, reference, lhs, rhs string) (compare.Relation, error) {
	var response relationResponse
	request := relationRequest{reference, lhs, rhs}
	if err := a.do(ctx, http.MethodPost, a.endpoint(nil, "relation"), request, &response); err != nil {
		return "", fmt.Errorf("classifying relation: %w", err)
	}
	if response.Relation == "" {
		return "", fmt.Errorf("classifying relation: empty relation in response")
	}
	return response.Relation, nil
}
