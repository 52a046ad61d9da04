package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondenseFileList(t *testing.T) {
	files := []string{
		"go.mod",
		"go.sum",
		"internal/a.go",
		"internal/b.go",
		"internal/c.go",
		"docs/readme.md",
	}

	got := CondenseFileList(files)

	assert.Equal(t, []string{
		"docs/readme.md",
		"go.mod",
		"go.sum",
		"internal/ (3 files)",
	}, got)
}

func TestCondenseFileListEmpty(t *testing.T) {
	assert.Empty(t, CondenseFileList(nil))
	assert.Empty(t, CondenseFileList([]string{"", "  "}))
}

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{name: "yes", input: "y\n", defaultYes: false, want: true},
		{name: "no", input: "n\n", defaultYes: true, want: false},
		{name: "empty uses default yes", input: "\n", defaultYes: true, want: true},
		{name: "empty uses default no", input: "\n", defaultYes: false, want: false},
		{name: "eof uses default", input: "", defaultYes: true, want: true},
		{name: "garbage then yes", input: "maybe\nyes\n", defaultYes: false, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := PromptInput
			PromptInput = strings.NewReader(tt.input)
			defer func() { PromptInput = restore }()

			assert.Equal(t, tt.want, PromptYesNo("Proceed?", tt.defaultYes))
		})
	}
}

func TestPromptSkipOrRetry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "skip", input: "s\n", want: "skip"},
		{name: "retry", input: "retry\n", want: "retry"},
		{name: "eof defaults to skip", input: "", want: "skip"},
		{name: "garbage then retry", input: "x\nr\n", want: "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := PromptInput
			PromptInput = strings.NewReader(tt.input)
			defer func() { PromptInput = restore }()

			assert.Equal(t, tt.want, PromptSkipOrRetry())
		})
	}
}
