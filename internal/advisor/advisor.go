// Package advisor asks a language model to classify module changes into a
// version bump, changelog bullets and a commit message. Every module gets a
// fresh, isolated session with a cooldown delay between sessions so one
// module's context never bleeds into the next.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenk/backoff"
	"github.com/google/uuid"

	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/utils"
)

const defaultEndpoint = "https://api.anthropic.com/v1/messages"

// modelIDs maps the --model shorthand to concrete model identifiers.
var modelIDs = map[string]string{
	"sonnet": "claude-3-5-sonnet-latest",
	"opus":   "claude-3-opus-latest",
	"haiku":  "claude-3-5-haiku-latest",
}

// Fallback verdict used when the backend returns something unparseable
// after all internal retries.
var fallbackAnalysis = Analysis{
	VersionBump:   "patch",
	Changelog:     []string{"Update dependencies"},
	CommitMessage: "Update dependencies",
}

// Client talks to an Anthropic-compatible messages API.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	cooldown   time.Duration
	maxElapsed time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the API endpoint (tests point it at httptest).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithCooldown sets the mandatory delay after each session.
func WithCooldown(d time.Duration) ClientOption {
	return func(c *Client) { c.cooldown = d }
}

// WithMaxElapsed bounds the total internal retry time per request.
func WithMaxElapsed(d time.Duration) ClientOption {
	return func(c *Client) { c.maxElapsed = d }
}

// NewClient creates an advisory client for the given model shorthand.
// ANTHROPIC_API_KEY must be set in the environment.
func NewClient(model string, opts ...ClientOption) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable is not set")
	}

	modelID, ok := modelIDs[model]
	if !ok {
		return nil, fmt.Errorf("unknown advisory model %q", model)
	}

	c := &Client{
		apiKey:     apiKey,
		model:      modelID,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		cooldown:   2 * time.Second,
		maxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete runs one isolated session: send the prompt, return the text
// response, then honor the inter-session cooldown. Transient failures are
// retried internally with exponential backoff; this is distinct from the
// operator-facing retry loop, which re-runs whole pipelines.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	sessionID := uuid.New().String()
	utils.LogDebug("advisor session %s started", sessionID)
	defer func() {
		utils.LogDebug("advisor session %s closed", sessionID)
		select {
		case <-time.After(c.cooldown):
		case <-ctx.Done():
		}
	}()

	reqBody, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var text string
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = c.maxElapsed

	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				utils.LogWarning("Failed to close response body: %v", err)
			}
		}()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var parsed messageResponse
		if resp.StatusCode != http.StatusOK {
			if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != nil {
				err = fmt.Errorf("API error: %s", parsed.Error.Message)
			} else {
				err = fmt.Errorf("API returned status %d", resp.StatusCode)
			}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		var sb strings.Builder
		for _, block := range parsed.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return errors.New("empty response from advisor")
		}
		text = sb.String()
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		return "", err
	}
	return text, nil
}

// VerifyAuth sends a trivial prompt to confirm the API key works.
func (c *Client) VerifyAuth(ctx context.Context) error {
	_, err := c.complete(ctx, "Reply with exactly: ok")
	if err != nil {
		return fmt.Errorf("advisor authentication check failed: %w", err)
	}
	return nil
}

// AnalyzeChanges collects the module's diffs and asks for a verdict.
func (c *Client) AnalyzeChanges(ctx context.Context, modulePath string) (*Analysis, error) {
	utils.LogVerbose("Collecting diffs for %s", filepath.Base(modulePath))
	sections, baseInfo := collectDiffs(ctx, modulePath)

	allDiffs := "(no changes detected)"
	if len(sections) > 0 {
		allDiffs = strings.Join(sections, "\n\n")
	}

	prompt := fmt.Sprintf(`Analyze these git changes and determine the appropriate version bump.

Module: %s
%s

Version Bump Decision Rules:
1. DEPENDENCY CHANGES = AT LEAST PATCH
   - If go.mod, go.sum, package.json, pyproject.toml, or Dockerfile have version updates, patch minimum
2. CODE CHANGES:
   - MAJOR: Breaking API changes
   - MINOR: New features (backwards-compatible)
   - PATCH: Bug fixes or small improvements
3. NONE: ONLY when there are ZERO dependency updates AND ZERO code changes
   - Examples: .gitignore, README.md, Makefile, docs/

Here are the diffs (truncated if large, generated files excluded):

%s

Task:
1. Determine version bump based on the diffs above
2. Create 2-5 concise changelog bullet points
3. Suggest a brief commit message (max 50 chars)

Return ONLY this JSON format (no markdown, no code blocks):
{
  "version_bump": "patch|minor|major|none",
  "changelog": ["bullet 1", "bullet 2"],
  "commit_message": "short message"
}`, filepath.Base(modulePath), baseInfo, allDiffs)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(text), nil
}

// AnalyzeRelease classifies accumulated unreleased entries into a bump kind.
func (c *Client) AnalyzeRelease(ctx context.Context, entries []string, moduleName string) (*Analysis, error) {
	prompt := fmt.Sprintf(`These changelog entries are about to be released for module %s:

%s

Classify the overall release:
- MAJOR: any breaking change
- MINOR: any new feature, no breaking changes
- PATCH: only fixes, dependency updates, or small improvements

Return ONLY this JSON format (no markdown, no code blocks):
{
  "version_bump": "patch|minor|major",
  "changelog": [],
  "commit_message": "short message"
}`, moduleName, strings.Join(entries, "\n"))

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	analysis := parseAnalysis(text)
	if analysis.VersionBump == "none" {
		// A release always bumps; "none" is not a valid answer here.
		analysis.VersionBump = "patch"
	}
	return analysis, nil
}

// EntriesFromCommits generates changelog bullets from commit subjects.
func (c *Client) EntriesFromCommits(ctx context.Context, commits []gitops.Commit, moduleName string) ([]string, error) {
	subjects := make([]string, 0, len(commits))
	for _, commit := range commits {
		subjects = append(subjects, fmt.Sprintf("%s %s", commit.Hash, commit.Subject))
	}

	prompt := fmt.Sprintf(`Module %s has these commits since its last release:

%s

Write 2-5 concise changelog bullet points summarizing them for end users.
Skip merge commits and pure chores.

Return ONLY this JSON format (no markdown, no code blocks):
{"entries": ["bullet 1", "bullet 2"]}`, moduleName, strings.Join(subjects, "\n"))

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Entries []string `json:"entries"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing generated entries: %w", err)
	}
	return parsed.Entries, nil
}

// parseAnalysis decodes the advisor's JSON verdict, falling back to the
// documented defaults field by field when the response is malformed.
func parseAnalysis(text string) *Analysis {
	var analysis Analysis
	if err := json.Unmarshal([]byte(extractJSON(text)), &analysis); err != nil {
		utils.LogWarning("Malformed advisor response, using fallback verdict: %v", err)
		fallback := fallbackAnalysis
		return &fallback
	}

	switch analysis.VersionBump {
	case "major", "minor", "patch", "none":
	default:
		analysis.VersionBump = fallbackAnalysis.VersionBump
	}
	if len(analysis.Changelog) == 0 {
		analysis.Changelog = append([]string(nil), fallbackAnalysis.Changelog...)
	}
	if analysis.CommitMessage == "" {
		analysis.CommitMessage = fallbackAnalysis.CommitMessage
	}
	return &analysis
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown code fences or surrounding prose.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return strings.TrimSpace(text[start : end+1])
	}
	return strings.TrimSpace(text)
}
