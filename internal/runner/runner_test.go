package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnzdotmx/depflow/internal/config"
	"github.com/gnzdotmx/depflow/internal/discover"
	"github.com/gnzdotmx/depflow/internal/pipeline"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// flakyStep fails a configured number of times before succeeding,
// counting every attempt.
type flakyStep struct {
	failures int
	attempts int
}

func (s *flakyStep) Name() string { return "flaky" }

func (s *flakyStep) Run(ctx context.Context, modulePath string, state *pipeline.Context) (pipeline.Result, error) {
	s.attempts++
	if s.attempts <= s.failures {
		return pipeline.Result{}, errors.New("transient failure")
	}
	return pipeline.Result{Status: pipeline.StatusSuccess}, nil
}

func withPromptAnswers(t *testing.T, answers string) {
	t.Helper()
	restore := utils.PromptInput
	utils.PromptInput = strings.NewReader(answers)
	t.Cleanup(func() { utils.PromptInput = restore })
}

func TestRunWithRetrySucceedsAfterRetries(t *testing.T) {
	withPromptAnswers(t, "r\nr\n")

	step := &flakyStep{failures: 2}
	p := pipeline.New(step)

	outcome := RunWithRetry(context.Background(), p, config.New(), t.TempDir())

	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 3, step.attempts)
}

func TestRunWithRetrySkipStopsAfterFirstFailure(t *testing.T) {
	withPromptAnswers(t, "s\n")

	step := &flakyStep{failures: 10}
	p := pipeline.New(step)

	outcome := RunWithRetry(context.Background(), p, config.New(), t.TempDir())

	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 1, step.attempts, "skip must not trigger a second attempt")
}

// terminalStep returns a fixed terminal status.
type terminalStep struct {
	status pipeline.Status
}

func (s *terminalStep) Name() string { return "terminal" }

func (s *terminalStep) Run(ctx context.Context, modulePath string, state *pipeline.Context) (pipeline.Result, error) {
	return pipeline.Result{Status: s.status}, nil
}

func TestRunWithRetryMapsTerminalStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  pipeline.Status
		outcome Outcome
	}{
		{name: "up to date", status: pipeline.StatusUpToDate, outcome: OutcomeUpToDate},
		{name: "user declined", status: pipeline.StatusUserDeclined, outcome: OutcomeSkipped},
		{name: "success", status: pipeline.StatusSuccess, outcome: OutcomeUpdated},
		{name: "skip", status: pipeline.StatusSkip, outcome: OutcomeUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPromptAnswers(t, "")
			p := pipeline.New(&terminalStep{status: tt.status})
			outcome := RunWithRetry(context.Background(), p, config.New(), t.TempDir())
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestRunWithRetryNewContextPerAttempt(t *testing.T) {
	withPromptAnswers(t, "r\n")

	var contexts []*pipeline.Context
	first := true
	step := stepFunc(func(ctx context.Context, modulePath string, state *pipeline.Context) (pipeline.Result, error) {
		contexts = append(contexts, state)
		if first {
			first = false
			return pipeline.Result{}, errors.New("once")
		}
		return pipeline.Result{Status: pipeline.StatusSuccess}, nil
	})

	outcome := RunWithRetry(context.Background(), pipeline.New(step), config.New(), t.TempDir())
	require.Equal(t, OutcomeUpdated, outcome)
	require.Len(t, contexts, 2)
	assert.NotSame(t, contexts[0], contexts[1], "each retry must start from a fresh context")
}

type stepFunc func(ctx context.Context, modulePath string, state *pipeline.Context) (pipeline.Result, error)

func (f stepFunc) Name() string { return "func" }

func (f stepFunc) Run(ctx context.Context, modulePath string, state *pipeline.Context) (pipeline.Result, error) {
	return f(ctx, modulePath, state)
}

func TestBuildPipelineMatrix(t *testing.T) {
	cfg := config.New()

	tests := []struct {
		name string
		mode Mode
		kind discover.Kind
		ok   bool
	}{
		{name: "update go", mode: ModeUpdate, kind: discover.KindGo, ok: true},
		{name: "update python", mode: ModeUpdate, kind: discover.KindPython, ok: true},
		{name: "update docker", mode: ModeUpdate, kind: discover.KindDocker, ok: true},
		{name: "update legacy python", mode: ModeUpdate, kind: discover.KindLegacyPython, ok: false},
		{name: "release go", mode: ModeRelease, kind: discover.KindGo, ok: true},
		{name: "release python", mode: ModeRelease, kind: discover.KindPython, ok: true},
		{name: "release docker", mode: ModeRelease, kind: discover.KindDocker, ok: false},
		{name: "docker docker", mode: ModeDocker, kind: discover.KindDocker, ok: true},
		{name: "docker go", mode: ModeDocker, kind: discover.KindGo, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := BuildPipeline(tt.mode, tt.kind, cfg, nil, nil)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.NotNil(t, p)
			}
		})
	}
}

func TestSummaryAdd(t *testing.T) {
	var s Summary
	s.Add("lib/a", OutcomeUpdated)
	s.Add("service1", OutcomeUpToDate)
	s.Add("service2", OutcomeSkipped)
	s.Add("service3", OutcomeFailed)
	s.Add("lib/z", OutcomeUpdated)

	assert.Equal(t, []string{"lib/a", "lib/z"}, s.Updated)
	assert.Equal(t, []string{"service1"}, s.UpToDate)
	assert.Equal(t, []string{"service2"}, s.Skipped)
	assert.Equal(t, []string{"service3"}, s.Failed)
	assert.Equal(t, 5, s.Total())
}
