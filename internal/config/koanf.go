// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// priority order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tastemaker/config.yaml",
	"/etc/tastemaker/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "TASTEMAKER_CONFIG"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "TASTEMAKER_"

// envMappings maps environment variable suffixes (after the TASTEMAKER_
// prefix) to koanf config paths. Multi-word leaf keys need explicit entries
// because a plain underscore-to-dot rewrite would split them.
var envMappings = map[string]string{
	"log_level":                     "logging.level",
	"log_format":                    "logging.format",
	"database_path":                 "database.path",
	"database_max_memory":           "database.max_memory",
	"database_threads":              "database.threads",
	"embeddings_path":               "embeddings.path",
	"embeddings_model_id":           "embeddings.model_id",
	"embeddings_dimensions":         "embeddings.dimensions",
	"recommend_history_size":        "recommend.history_size",
	"recommend_candidate_limit":     "recommend.candidate_limit",
	"recommend_target_count":        "recommend.target_count",
	"recommend_max_target_count":    "recommend.max_target_count",
	"recommend_similarity_weight":   "recommend.similarity_weight",
	"recommend_novelty_weight":      "recommend.novelty_weight",
	"recommend_rating_weight":       "recommend.rating_weight",
	"recommend_diversity_weight":    "recommend.diversity_weight",
	"recommend_evidence_per_item":   "recommend.evidence_per_item",
	"recommend_parental_limit":      "recommend.parental_rating_limit",
	"batch_enabled":                 "batch.enabled",
	"batch_interval":                "batch.interval",
	"batch_concurrency":             "batch.concurrency",
	"batch_runs_per_second":         "batch.runs_per_second",
	"batch_keep_runs":               "batch.keep_runs",
	"metrics_enabled":               "metrics.enabled",
	"metrics_addr":                  "metrics.addr",
}

// Load resolves the configuration from defaults, an optional YAML file and
// environment variables, then validates it.
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile loads configuration with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - TASTEMAKER_DATABASE_PATH -> database.path
//   - TASTEMAKER_RECOMMEND_DIVERSITY_WEIGHT -> recommend.diversity_weight
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unknown variables fall back to a section.key split on the first
	// underscore; unmatched keys are ignored by Unmarshal.
	return strings.Replace(key, "_", ".", 1)
}
