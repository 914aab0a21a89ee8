// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns viper settings and the secrets directory into the
// typed configuration of one invocation.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/propagate/pkg/types"
)

// ErrMissingCredential is returned when a command needs the API key and none
// is configured.
var ErrMissingCredential = errors.New("missing Anthropic API key: set PROPAGATE_ANTHROPIC_API_KEY, anthropic_api_key in the config file, or .secrets/anthropic-api-key")

// Keys read from viper. Each is also available as PROPAGATE_<KEY>.
const (
	KeyModel            = "model"
	KeyPDFDir           = "pdf_dir"
	KeySummariesDir     = "summaries_dir"
	KeyAPIKey           = "anthropic_api_key"
	KeyMaxSummaryLength = "max_summary_length"
	KeyMaxTokens        = "max_tokens"
	KeyBatchResultsDir  = "batch_results_dir"
	KeyRequestLogDir    = "request_log_dir"
	KeyPerPage          = "per_page"
	KeyDownloadDelay    = "download_delay"
	KeyHTTPTimeout      = "http_timeout"
	KeyUserAgent        = "user_agent"
	KeyDocumentsURL     = "documents_url"
)

// Defaults used when neither the environment nor a config file sets a key.
const (
	DefaultModel            = "claude-sonnet-4-20250514"
	DefaultPDFDir           = "pdfs"
	DefaultSummariesDir     = "summaries"
	DefaultMaxSummaryLength = 250
	DefaultMaxTokens        = 16000
	DefaultBatchResultsDir  = "batch_results"
	DefaultRequestLogDir    = "."
	DefaultPerPage          = 1000
	DefaultUserAgent        = "propagate/0.1"
)

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyModel, DefaultModel)
	v.SetDefault(KeyPDFDir, DefaultPDFDir)
	v.SetDefault(KeySummariesDir, DefaultSummariesDir)
	v.SetDefault(KeyMaxSummaryLength, DefaultMaxSummaryLength)
	v.SetDefault(KeyMaxTokens, DefaultMaxTokens)
	v.SetDefault(KeyBatchResultsDir, DefaultBatchResultsDir)
	v.SetDefault(KeyRequestLogDir, DefaultRequestLogDir)
	v.SetDefault(KeyPerPage, DefaultPerPage)
	v.SetDefault(KeyDownloadDelay, 0)
	v.SetDefault(KeyHTTPTimeout, 0)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyDocumentsURL, "")
}

// Load builds the configuration from v. An API key in secrets is used when
// v has none.
func Load(v *viper.Viper, secrets map[string]string) (types.Config, error) {
	maxTokens := v.GetInt(KeyMaxTokens)
	if maxTokens <= 0 {
		return types.Config{}, fmt.Errorf("%s must be positive, got %d", KeyMaxTokens, maxTokens)
	}
	maxSummary := v.GetInt(KeyMaxSummaryLength)
	if maxSummary <= 0 {
		return types.Config{}, fmt.Errorf("%s must be positive, got %d", KeyMaxSummaryLength, maxSummary)
	}

	apiKey := v.GetString(KeyAPIKey)
	if apiKey == "" {
		apiKey = secrets[SecretAPIKey]
	}

	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration(KeyHTTPTimeout),
		UserAgent: v.GetString(KeyUserAgent),
	}

	return types.Config{
		Registry: types.RegistryConfig{
			HTTPConfig:    httpCfg,
			DocumentsURL:  v.GetString(KeyDocumentsURL),
			PDFDir:        v.GetString(KeyPDFDir),
			PerPage:       v.GetInt(KeyPerPage),
			DownloadDelay: v.GetDuration(KeyDownloadDelay),
		},
		Batch: types.BatchConfig{
			AnalysisConfig: types.AnalysisConfig{
				AIConfig: types.AIConfig{
					Model:            v.GetString(KeyModel),
					APIKey:           apiKey,
					MaxTokens:        maxTokens,
					MaxSummaryLength: maxSummary,
				},
				SummariesDir: v.GetString(KeySummariesDir),
			},
			ResultsDir:    v.GetString(KeyBatchResultsDir),
			RequestLogDir: v.GetString(KeyRequestLogDir),
		},
	}, nil
}

// RequireAPIKey returns ErrMissingCredential when cfg has no API key.
func RequireAPIKey(cfg types.Config) error {
	if cfg.Batch.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}
