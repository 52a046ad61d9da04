package updater

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyGoModExcludesAddsStandardSet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "go.mod", "module example.com/test\n\ngo 1.23.0\n")

	changed, err := ApplyGoModExcludes(dir)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "exclude")
	assert.Contains(t, content, "k8s.io/api v0.34.0")
	assert.Contains(t, content, "golang.org/x/tools v0.38.0")
	assert.Contains(t, content, "replace k8s.io/kube-openapi => k8s.io/kube-openapi v0.0.0-20250701173324-9bd5c66d9911")
}

func TestApplyGoModExcludesIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "go.mod", "module example.com/test\n\ngo 1.23.0\n")

	changed, err := ApplyGoModExcludes(dir)
	require.NoError(t, err)
	require.True(t, changed)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	changed, err = ApplyGoModExcludes(dir)
	require.NoError(t, err)
	assert.False(t, changed, "second run must be a no-op")

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestApplyGoModExcludesKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", `module example.com/test

go 1.23.0

exclude (
	k8s.io/api v0.34.0
	k8s.io/client-go v0.34.1
)
`)

	changed, err := ApplyGoModExcludes(dir)
	require.NoError(t, err)
	assert.True(t, changed, "remaining standard excludes still get added")

	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, strings.Count(content, "k8s.io/api v0.34.0"), "existing exclude must not be duplicated")
	assert.Contains(t, content, "k8s.io/apimachinery v0.34.0")
}

func TestApplyGoModExcludesUpdatesStaleReplace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", `module example.com/test

go 1.23.0

replace k8s.io/kube-openapi => k8s.io/kube-openapi v0.0.0-20240101000000-000000000000
`)

	changed, err := ApplyGoModExcludes(dir)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "k8s.io/kube-openapi v0.0.0-20250701173324-9bd5c66d9911")
	assert.NotContains(t, content, "v0.0.0-20240101000000-000000000000")
}

func TestApplyGoModExcludesMissingGoMod(t *testing.T) {
	changed, err := ApplyGoModExcludes(t.TempDir())
	require.NoError(t, err)
	assert.False(t, changed)
}
