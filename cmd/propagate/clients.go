// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/viper"

	"github.com/pdiddy/propagate/internal/batch"
	"github.com/pdiddy/propagate/internal/config"
	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

// loadConfig resolves the configuration of this invocation.
func loadConfig() (types.Config, error) {
	return config.Load(viper.GetViper(), loadedSecrets)
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// newClaudeClient builds the API client shared by every collaborator of one
// invocation. A missing API key is fatal.
func newClaudeClient(cfg types.Config, httpClient *http.Client) (*anthropic.Client, error) {
	if err := config.RequireAPIKey(cfg); err != nil {
		return nil, err
	}
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.Batch.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &client, nil
}

// newTracker returns a batch tracker backed by the Message Batches API.
func newTracker(cfg types.Config) (*batch.Tracker, error) {
	httpClient := newHTTPClient(cfg.Registry.HTTPConfig)
	api, err := newClaudeClient(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	return &batch.Tracker{
		Client: &batch.ClaudeClient{API: api, HTTP: httpClient, APIKey: cfg.Batch.APIKey},
		Log:    logger,
	}, nil
}

func newRecorder(cfg types.Config) *normalize.Recorder {
	return &normalize.Recorder{
		Store: store.New(cfg.Batch.SummariesDir),
		Log:   logger,
	}
}
