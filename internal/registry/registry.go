// Package registry fetches the latest published versions of the runtimes
// the updater keeps current: Go, Alpine and Python. Lookups retry with
// exponential backoff and run behind a per-host circuit breaker so one dead
// endpoint does not stall a long multi-module run.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"gopkg.in/yaml.v3"
)

const (
	defaultGolangURL = "https://go.dev/dl/?mode=json"
	defaultAlpineURL = "https://dl-cdn.alpinelinux.org/alpine/latest-stable/releases/x86_64/latest-releases.yaml"
	defaultPythonURL = "https://endoflife.date/api/python.json"
)

// Client looks up latest runtime versions from their upstream endpoints.
type Client struct {
	httpClient *http.Client

	golangURL string
	alpineURL string
	pythonURL string

	maxElapsed time.Duration

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Client) { r.httpClient = c }
}

// WithEndpoints overrides the upstream URLs. Tests point these at httptest
// servers.
func WithEndpoints(golangURL, alpineURL, pythonURL string) Option {
	return func(r *Client) {
		r.golangURL = golangURL
		r.alpineURL = alpineURL
		r.pythonURL = pythonURL
	}
}

// WithMaxElapsed bounds the total retry time per lookup.
func WithMaxElapsed(d time.Duration) Option {
	return func(r *Client) { r.maxElapsed = d }
}

// NewClient creates a registry client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		golangURL:  defaultGolangURL,
		alpineURL:  defaultAlpineURL,
		pythonURL:  defaultPythonURL,
		maxElapsed: 15 * time.Second,
		breakers:   make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// breaker returns or creates the circuit breaker for a host. Trips after 3
// consecutive failures.
func (c *Client) breaker(host string) *circuit.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[host]; ok {
		return b
	}
	b := circuit.NewBreakerWithOptions(&circuit.Options{
		ShouldTrip: circuit.ThresholdTripFunc(3),
	})
	c.breakers[host] = b
	return b
}

// get fetches a URL with retries behind the host's circuit breaker.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	host := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	br := c.breaker(host)
	if !br.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s", host)
	}

	var body []byte
	err := br.Call(func() error {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 200 * time.Millisecond
		bo.MaxElapsedTime = c.maxElapsed

		return backoff.Retry(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("status %d from %s", resp.StatusCode, host)
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("status %d from %s", resp.StatusCode, host))
			}

			body, err = io.ReadAll(resp.Body)
			return err
		}, backoff.WithContext(bo, ctx))
	}, 0)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// LatestGoVersion returns the newest stable Go release, e.g. "1.23.5".
func (c *Client) LatestGoVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.golangURL)
	if err != nil {
		return "", err
	}

	var releases []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parsing go release feed: %w", err)
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("empty go release feed")
	}
	// First entry is the newest stable release.
	return strings.TrimPrefix(releases[0].Version, "go"), nil
}

// LatestAlpineVersion returns the newest stable Alpine minor, e.g. "3.20".
func (c *Client) LatestAlpineVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.alpineURL)
	if err != nil {
		return "", err
	}

	var releases []struct {
		Flavor  string `yaml:"flavor"`
		Version string `yaml:"version"`
	}
	if err := yaml.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parsing alpine release feed: %w", err)
	}

	for _, rel := range releases {
		if rel.Flavor != "alpine-minirootfs" {
			continue
		}
		parts := strings.Split(rel.Version, ".")
		if len(parts) >= 2 {
			return parts[0] + "." + parts[1], nil
		}
	}
	return "", fmt.Errorf("no alpine-minirootfs entry in release feed")
}

// LatestPythonVersion returns the newest Python minor cycle, e.g. "3.13".
func (c *Client) LatestPythonVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.pythonURL)
	if err != nil {
		return "", err
	}

	var cycles []struct {
		Cycle string `json:"cycle"`
	}
	if err := json.Unmarshal(body, &cycles); err != nil {
		return "", fmt.Errorf("parsing python release feed: %w", err)
	}
	if len(cycles) == 0 {
		return "", fmt.Errorf("empty python release feed")
	}
	return cycles[0].Cycle, nil
}
