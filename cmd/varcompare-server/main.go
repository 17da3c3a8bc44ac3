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

// This binary provides a variant comparison server that backs onto a
// description service, a sequence algebra service and optionally a GCS
// bucket of reference sequences.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/googlegenomics/varcompare/internal/app"
	"github.com/googlegenomics/varcompare/internal/config"
)

var (
	configFile = flag.String("config", "", "TOML configuration file")
	port       = flag.Int("port", 8080, "HTTP service port")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	descriptionURL = flag.String("description_url", "", "base URL of the description service")
	algebraURL     = flag.String("algebra_url", "", "base URL of the sequence algebra service")
	bucket         = flag.String("bucket", "", "GCS bucket holding reference FASTA files")

	development = flag.Bool("development", false, "human readable debug logging")
	cpuProfile  = flag.Bool("profile", false, "write a CPU profile to the working directory")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	newLogger := zap.NewProduction
	if cfg.Logging.Development {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server, err := app.New(context.Background(), cfg, logger, reg)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)
	router := server.Handler()
	logger.Info("Serving", zap.String("address", address), zap.Bool("secure", cfg.Server.Secure))
	if cfg.Server.Secure {
		if err := router.RunTLS(address, cfg.Server.HTTPSCert, cfg.Server.HTTPSKey); err != nil {
			logger.Fatal("HTTPS server returned an error", zap.Error(err))
		}
	} else {
		if err := router.Run(address); err != nil {
			logger.Fatal("HTTP server returned an error", zap.Error(err))
		}
	}
}

// loadConfig layers the environment and then explicitly set flags over the
// configuration file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "secure":
			cfg.Server.Secure = *secure
		case "https_cert":
			cfg.Server.HTTPSCert = *httpsCert
		case "https_key":
			cfg.Server.HTTPSKey = *httpsKey
		case "description_url":
			cfg.Services.DescriptionURL = *descriptionURL
		case "algebra_url":
			cfg.Services.AlgebraURL = *algebraURL
		case "bucket":
			cfg.References.Bucket = *bucket
		case "development":
			cfg.Logging.Development = *development
		}
	})
	return cfg, nil
}
