// Copyright 2025 Easy Patent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vectorize implements vector.Store against the Cloudflare
// Vectorize REST API.
package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/vector"
)

const (
	// DefaultBaseURL is the Cloudflare API root.
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"

	// DefaultTimeout bounds a single upsert round trip.
	DefaultTimeout = 30 * time.Second
)

// ErrUpsertFailed indicates the index rejected an upsert.
var ErrUpsertFailed = errors.New("vectorize: upsert failed")

// Config holds Cloudflare Vectorize connection settings.
type Config struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// AccountID is the Cloudflare account identifier.
	AccountID string

	// IndexName is the Vectorize index to write to.
	IndexName string

	// APIToken is the bearer token for authentication.
	APIToken string

	// Timeout bounds a single request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Validate checks that required settings are present and fills defaults.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return errors.New("vectorize config: AccountID is required")
	}
	if c.IndexName == "" {
		return errors.New("vectorize config: IndexName is required")
	}
	if c.APIToken == "" {
		return errors.New("vectorize config: APIToken is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Store implements vector.Store against a Vectorize index.
type Store struct {
	config Config
	hc     *http.Client
	logger *slog.Logger
}

var _ vector.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) StoreOption {
	return func(s *Store) {
		s.hc = hc
	}
}

// NewStore creates a store writing to the configured Vectorize index.
//
// Returns vector.Store interface to enforce abstraction.
func NewStore(config Config, opts ...StoreOption) (vector.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store := &Store{
		config: config,
		logger: slog.Default().With("component", "vectorize"),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.hc == nil {
		store.hc = &http.Client{Timeout: config.Timeout}
	}
	return store, nil
}

// vectorLine is one NDJSON line of the upsert body.
type vectorLine struct {
	ID     string    `json:"id"`
	Values []float32 `json:"values"`
}

// upsertResponse is the Cloudflare API envelope.
type upsertResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Upsert inserts or replaces the vector stored under the record's patent
// number. Re-upserting the same patent number replaces the previous vector
// in the index.
func (s *Store) Upsert(ctx context.Context, rec core.EmbeddingRecord) error {
	if rec.PatentNumber == "" {
		return fmt.Errorf("%w: empty patent number", ErrUpsertFailed)
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s", ErrUpsertFailed, rec.PatentNumber)
	}

	body, err := json.Marshal(vectorLine{ID: rec.PatentNumber, Values: rec.Vector})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	body = append(body, '\n')

	endpoint := fmt.Sprintf("%s/accounts/%s/vectorize/v2/indexes/%s/upsert",
		s.config.BaseURL, s.config.AccountID, s.config.IndexName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpsertFailed, resp.StatusCode)
	}

	var parsed upsertResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	if !parsed.Success {
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("%w: %s", ErrUpsertFailed, parsed.Errors[0].Message)
		}
		return ErrUpsertFailed
	}

	s.logger.Debug("vector upserted", "patent", rec.PatentNumber, "dimensions", len(rec.Vector))
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	s.hc.CloseIdleConnections()
	return nil
}
