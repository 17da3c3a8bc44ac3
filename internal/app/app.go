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

// Package app assembles a comparison API server from its configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"

	"github.com/googlegenomics/varcompare/internal/api"
	"github.com/googlegenomics/varcompare/internal/compare"
	"github.com/googlegenomics/varcompare/internal/config"
	"github.com/googlegenomics/varcompare/internal/metrics"
	"github.com/googlegenomics/varcompare/internal/operand"
	"github.com/googlegenomics/varcompare/internal/reference"
	"github.com/googlegenomics/varcompare/internal/remote"
)

const scope = "https://www.googleapis.com/auth/cloud-platform"

// New returns an API server configured by cfg.  Metrics are registered with
// reg, which is also exported on /metrics when it is a prometheus.Gatherer.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*api.Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %v", err)
	}

	httpClient := http.DefaultClient
	if cfg.Services.DefaultCredentials {
		ts, err := google.DefaultTokenSource(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("loading default credentials: %v", err)
		}
		httpClient = remote.HTTPClientFromTokenSource(ctx, ts)
	}

	description, err := remote.NewClient(cfg.Services.DescriptionURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating description service client: %v", err)
	}
	algebra, err := remote.NewAlgebra(cfg.Services.AlgebraURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating algebra service client: %v", err)
	}

	references, err := newReferences(ctx, cfg.References, description)
	if err != nil {
		return nil, err
	}

	m := metrics.New(reg)
	resolver := operand.NewResolver(description, description, references)
	service := compare.NewService(resolver, algebra,
		compare.WithLogger(logger.Named("compare")),
		compare.WithMetrics(m))

	opts := []api.Option{api.WithLogger(logger.Named("api"))}
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		opts = append(opts, api.WithGatherer(gatherer))
	}
	logger.Info("Configured comparison service",
		zap.String("description_url", cfg.Services.DescriptionURL),
		zap.String("algebra_url", cfg.Services.AlgebraURL),
		zap.String("reference_bucket", cfg.References.Bucket))
	return api.NewServer(service, description, description, opts...), nil
}

// newReferences returns the reference retriever: the bucket when one is
// configured, then the description service.
func newReferences(ctx context.Context, cfg config.ReferencesConfig, fallback reference.Retriever) (reference.Retriever, error) {
	chain := reference.Chain{}
	if cfg.Bucket != "" {
		var client reference.Client
		var err error
		switch {
		case cfg.AccessToken != "":
			client, err = reference.NewClientFromToken(ctx, cfg.AccessToken)
		case cfg.Public:
			client, err = reference.NewPublicClient(ctx)
		default:
			client, err = reference.NewDefaultClient(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %v", err)
		}
		chain = append(chain, reference.NewBucket(client, cfg.Bucket))
	}
	chain = append(chain, fallback)
	return reference.WithTimeout(chain, cfg.Timeout.Duration), nil
}
