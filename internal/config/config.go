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

// Package config loads the server configuration from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type ServerConfig struct {
	Port      int    `toml:"port"`
	Secure    bool   `toml:"secure"`
	HTTPSCert string `toml:"https_cert"`
	HTTPSKey  string `toml:"https_key"`
}

type ServicesConfig struct {
	// DescriptionURL is the base URL of the description service used to
	// parse and normalize descriptions and to fetch reference models.
	DescriptionURL string `toml:"description_url"`
	// AlgebraURL is the base URL of the sequence algebra service.
	AlgebraURL string `toml:"algebra_url"`
	// DefaultCredentials authenticates service requests with the
	// application default credentials.
	DefaultCredentials bool `toml:"default_credentials"`
}

type ReferencesConfig struct {
	// Bucket holds reference FASTA objects.  If empty, references are only
	// fetched from the description service.
	Bucket string `toml:"bucket"`
	// Public reads the bucket without credentials.
	Public bool `toml:"public"`
	// AccessToken, if set, is sent as a bearer token instead of the
	// application default credentials.
	AccessToken string   `toml:"access_token"`
	Timeout     Duration `toml:"timeout"`
}

type LoggingConfig struct {
	Development bool `toml:"development"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Services   ServicesConfig   `toml:"services"`
	References ReferencesConfig `toml:"references"`
	Logging    LoggingConfig    `toml:"logging"`
}

// Default returns the configuration used when nothing else is specified.
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		References: ReferencesConfig{Timeout: Duration{30 * time.Second}},
	}
}

// Load returns the default configuration overridden by the TOML file at path,
// when path is not empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables found by lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT: %v", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("VARCOMPARE_DESCRIPTION_URL"); ok {
		cfg.Services.DescriptionURL = v
	}
	if v, ok := lookup("VARCOMPARE_ALGEBRA_URL"); ok {
		cfg.Services.AlgebraURL = v
	}
	if v, ok := lookup("VARCOMPARE_REFERENCE_BUCKET"); ok {
		cfg.References.Bucket = v
	}
	if v, ok := lookup("VARCOMPARE_REFERENCE_TOKEN"); ok {
		cfg.References.AccessToken = v
	}
	if v, ok := lookup("VARCOMPARE_REFERENCE_TIMEOUT"); ok && v != "" {
		if err := cfg.References.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("parsing VARCOMPARE_REFERENCE_TIMEOUT: %v", err)
		}
	}
	return nil
}

// Validate checks that the configuration can be used to start a server.
func (cfg *Config) Validate() error {
	if cfg.Services.DescriptionURL == "" {
		return errors.New("a description service URL is required")
	}
	if cfg.Services.AlgebraURL == "" {
		return errors.New("an algebra service URL is required")
	}
	if cfg.Server.Secure && (cfg.Server.HTTPSCert == "" || cfg.Server.HTTPSKey == "") {
		return errors.New("secure mode requires both an HTTPS certificate and key")
	}
	if cfg.References.Public && cfg.References.AccessToken != "" {
		return errors.New("a public bucket cannot be read with an access token")
	}
	if cfg.References.Timeout.Duration <= 0 {
		return errors.New("the reference timeout must be positive")
	}
	return nil
}
