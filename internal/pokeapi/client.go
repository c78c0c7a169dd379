// Package pokeapi verifies pokemon names against the public pokemon registry
package pokeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Cache stores verification results by normalized name
type Cache interface {
	// Method Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Method Set stores a value for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Recorder receives the outcome of every lookup
type Recorder interface {
	ObservePokemonLookup(source, result string)
}

type nopRecorder struct{}

func (nopRecorder) ObservePokemonLookup(string, string) {}

// Lookup sources and results reported to the Recorder
const (
	SourceCache    = "cache"
	SourceRegistry = "registry"

	ResultReal  = "real"
	ResultFake  = "fake"
	ResultError = "error"
)

// Client queries the registry and caches its answers
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	ttl        time.Duration
	recorder   Recorder
	logger     *zap.Logger
}

// NewClient creates a registry client; cache and recorder may be nil
func NewClient(baseURL string, httpClient *http.Client, cache Cache, ttl time.Duration, recorder Recorder, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
		ttl:        ttl,
		recorder:   recorder,
		logger:     logger,
	}
}

// Normalize lowercases and trims a pokemon name the way the registry expects it
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Verify reports whether name is a real pokemon.
// A 2xx answer means real and 404 means fake; any other status is an error.
func (c *Client) Verify(ctx context.Context, name string) (bool, error) {
	name = Normalize(name)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, name)
		if err != nil {
			c.logger.Warn("pokemon cache read failed", zap.String("name", name), zap.Error(err))
		} else if ok {
			if verified, err := strconv.ParseBool(cached); err == nil {
				c.recorder.ObservePokemonLookup(SourceCache, result(verified))
				return verified, nil
			}
		}
	}

	verified, err := c.fetch(ctx, name)
	if err != nil {
		c.recorder.ObservePokemonLookup(SourceRegistry, ResultError)
		return false, err
	}
	c.recorder.ObservePokemonLookup(SourceRegistry, result(verified))

	if c.cache != nil {
		if err := c.cache.Set(ctx, name, strconv.FormatBool(verified), c.ttl); err != nil {
			c.logger.Warn("pokemon cache write failed", zap.String("name", name), zap.Error(err))
		}
	}

	return verified, nil
}

func (c *Client) fetch(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pokemon/"+url.PathEscape(name), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("pokeapi request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected pokeapi response: %s", resp.Status)
	}
}

func result(verified bool) string {
	if verified {
		return ResultReal
	}
	return ResultFake
}
