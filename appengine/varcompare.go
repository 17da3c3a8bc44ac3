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

// This binary serves the comparison API on App Engine.  It is configured
// with the VARCOMPARE_* environment variables.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/appengine"

	"github.com/googlegenomics/varcompare/internal/app"
	"github.com/googlegenomics/varcompare/internal/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		logger.Fatal("Failed to read configuration", zap.Error(err))
	}
	cfg.Services.DefaultCredentials = true

	server, err := app.New(context.Background(), cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	http.Handle("/", server.Handler())
	appengine.Main()
}
