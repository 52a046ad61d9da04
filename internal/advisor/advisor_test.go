package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnzdotmx/depflow/internal/gitops"
)

// anthropicReply wraps text in the messages API response shape.
func anthropicReply(text string) string {
	resp := `{"content":[{"type":"text","text":` + jsonQuote(text) + `}]}`
	return resp
}

func jsonQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, s[i])
		}
	}
	return string(append(out, '"'))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("sonnet",
		WithEndpoint(srv.URL),
		WithCooldown(0),
		WithMaxElapsed(2*time.Second),
	)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewClient("sonnet")
	assert.Error(t, err)
}

func TestNewClientRejectsUnknownModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "k")
	_, err := NewClient("gpt4")
	assert.Error(t, err)
}

func TestAnalyzeChanges(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(anthropicReply(`{"version_bump":"minor","changelog":["Add feature"],"commit_message":"Add feature"}`)))
	}))

	analysis, err := c.AnalyzeChanges(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "minor", analysis.VersionBump)
	assert.Equal(t, []string{"Add feature"}, analysis.Changelog)
	assert.Equal(t, "Add feature", analysis.CommitMessage)
}

func TestAnalyzeChangesFencedResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := "Here you go:\n```json\n{\"version_bump\":\"patch\",\"changelog\":[\"Bump deps\"],\"commit_message\":\"Bump deps\"}\n```\n"
		_, _ = w.Write([]byte(anthropicReply(reply)))
	}))

	analysis, err := c.AnalyzeChanges(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "patch", analysis.VersionBump)
}

func TestAnalyzeChangesMalformedFallsBack(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(anthropicReply("I cannot answer in JSON today.")))
	}))

	analysis, err := c.AnalyzeChanges(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, fallbackAnalysis.VersionBump, analysis.VersionBump)
	assert.Equal(t, fallbackAnalysis.Changelog, analysis.Changelog)
	assert.Equal(t, fallbackAnalysis.CommitMessage, analysis.CommitMessage)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(anthropicReply("ok")))
	}))

	require.NoError(t, c.VerifyAuth(context.Background()))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))

	err := c.VerifyAuth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeReleaseNeverReturnsNone(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(anthropicReply(`{"version_bump":"none","changelog":[],"commit_message":"Release"}`)))
	}))

	analysis, err := c.AnalyzeRelease(context.Background(), []string{"- Fix crash"}, "svc")
	require.NoError(t, err)
	assert.Equal(t, "patch", analysis.VersionBump)
}

func TestEntriesFromCommits(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(anthropicReply(`{"entries":["Add retry logic","Fix flaky startup"]}`)))
	}))

	entries, err := c.EntriesFromCommits(context.Background(), []gitops.Commit{
		{Hash: "abc1234", Subject: "Add retry logic"},
		{Hash: "def5678", Subject: "Fix flaky startup"},
	}, "svc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Add retry logic", "Fix flaky startup"}, entries)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Sure: {\"a\":1} hope that helps", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
