package updater

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestUpdateGoModVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "go.mod", "module example.com/svc\n\ngo 1.23.0\n\nrequire github.com/google/uuid v1.6.0\n")

	changed, err := UpdateGoModVersion(dir, "1.24.1")
	require.NoError(t, err)
	assert.True(t, changed)
	content := readFile(t, path)
	assert.Contains(t, content, "go 1.24.1")
	assert.Contains(t, content, "require github.com/google/uuid v1.6.0")

	// Second run is a no-op.
	changed, err = UpdateGoModVersion(dir, "1.24.1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateGoModVersionMissingFile(t *testing.T) {
	changed, err := UpdateGoModVersion(t.TempDir(), "1.24.1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateDockerfileGolang(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile",
		"FROM golang:1.23.4-alpine3.20 AS build\nRUN go build ./...\nFROM alpine:3.19\n")

	changed, err := UpdateDockerfileGolang(dir, "1.24.1")
	require.NoError(t, err)
	assert.True(t, changed)
	content := readFile(t, path)
	assert.Contains(t, content, "FROM golang:1.24.1-alpine3.20 AS build", "suffix and AS clause survive")
	assert.Contains(t, content, "FROM alpine:3.19", "other images untouched")
}

func TestUpdateDockerfileAlpine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM alpine:3.19.1 AS runtime\n")

	changed, err := UpdateDockerfileAlpine(dir, "3.20")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, readFile(t, path), "FROM alpine:3.20 AS runtime")
}

func TestUpdateWorkflowsGoVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".github/workflows/ci.yml", `jobs:
  test:
    steps:
      - uses: actions/setup-go@v5
        with:
          go-version: '1.23.4'
      - name: unquoted
        with:
          go-version: 1.23.4
`)

	changed, err := UpdateWorkflowsGoVersion(dir, "1.24.1")
	require.NoError(t, err)
	assert.True(t, changed)
	content := readFile(t, path)
	assert.Contains(t, content, "go-version: '1.24.1'", "quote style preserved")
	assert.Contains(t, content, "go-version: 1.24.1")
}

func TestUpdateWorkflowsNoDirectory(t *testing.T) {
	changed, err := UpdateWorkflowsGoVersion(t.TempDir(), "1.24.1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestParseDockerfileImages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", `FROM golang:1.23.4 AS build
FROM ghcr.io/org/base:2.1.0
FROM scratch
RUN echo not-a-from
`)

	images, err := ParseDockerfileImages(path)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, BaseImage{Image: "golang", Tag: "1.23.4", AsName: "build", Line: "FROM golang:1.23.4 AS build"}, images[0])
	assert.Equal(t, "ghcr.io/org/base", images[1].Image)
	assert.Equal(t, "scratch", images[2].Image)
	assert.Empty(t, images[2].Tag)
}

func TestUpdateDockerfileImages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", `FROM golang:1.23.4-alpine3.19 AS build
FROM python:3.11-slim
FROM alpine:3.19
FROM scratch
`)

	lookup := func(image string) (string, string, bool) {
		switch image {
		case "golang":
			return "1.24.1", "full", true
		case "python":
			return "3.13", "major_minor", true
		case "alpine":
			return "3.20", "major_minor", true
		}
		return "", "", false
	}

	changed, updates, err := UpdateDockerfileImages(dir, lookup)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{
		"golang:1.23.4-alpine3.19 -> golang:1.24.1-alpine3.19",
		"python:3.11-slim -> python:3.13-slim",
		"alpine:3.19 -> alpine:3.20",
	}, updates)
	content := readFile(t, path)
	assert.Contains(t, content, "FROM golang:1.24.1-alpine3.19 AS build")
	assert.Contains(t, content, "FROM python:3.13-slim")
	assert.Contains(t, content, "FROM scratch")
}

func TestUpdateDockerfileImagesUpToDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM alpine:3.20\n")

	lookup := func(image string) (string, string, bool) {
		return "3.20", "major_minor", true
	}

	changed, updates, err := UpdateDockerfileImages(dir, lookup)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, updates)
}

func TestUpdatePythonVersionFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".python-version", "3.12\n")

	changed, err := UpdatePythonVersionFile(dir, "3.13")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "3.13\n", readFile(t, path))
}

func TestUpdatePyprojectPython(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", "[project]\nname = \"svc\"\nrequires-python = \">=3.12\"\n")

	changed, err := UpdatePyprojectPython(dir, "3.13")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, readFile(t, path), `requires-python = ">=3.13"`)
}
