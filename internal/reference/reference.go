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

// Package reference retrieves reference sequences by identifier.
package reference

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no reference exists for an identifier.
var ErrNotFound = errors.New("reference not found")

// Retriever fetches the sequence of the reference identified by id.
type Retriever interface {
	Retrieve(ctx context.Context, id string) (string, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, id string) (string, error)

// Retrieve calls f(ctx, id).
func (f RetrieverFunc) Retrieve(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

// Chain tries each retriever in turn and returns the first sequence found.
type Chain []Retriever

// Retrieve returns ErrNotFound when every retriever reports ErrNotFound, and
// the last other error otherwise.
func (c Chain) Retrieve(ctx context.Context, id string) (string, error) {
	err := ErrNotFound
	for _, r := range c {
		sequence, rerr := r.Retrieve(ctx, id)
		if rerr == nil {
			return sequence, nil
		}
		if !errors.Is(rerr, ErrNotFound) {
			err = rerr
		}
	}
	return "", err
}

type timeoutRetriever struct {
	retriever Retriever
	timeout   time.Duration
}

// WithTimeout bounds every retrieval made through r by timeout.  An expired
// retrieval is reported as an error like any other retrieval failure.
func WithTimeout(r Retriever, timeout time.Duration) Retriever {
	return &timeoutRetriever{r, timeout}
}

func (t *timeoutRetriever) Retrieve(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		sequence string
		err      error
	}
	done := make(chan result, 1)
	go func() {
		sequence, err := t.retriever.Retrieve(ctx, id)
		done <- result{sequence, err}
	}()

	select {
	case r := <-done:
		return r.sequence, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("retrieving %s: %w", id, ctx.Err())
	}
}
