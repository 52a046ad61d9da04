package gitops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "services", "api")
	require.NoError(t, os.MkdirAll(nested, 0755))

	repo, err := FindRepo(nested)
	require.NoError(t, err)
	assert.Equal(t, root, repo)
}

func TestFindRepoNoRepository(t *testing.T) {
	_, err := FindRepo(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRepo)
}

func TestFindRepoIgnoresGitFile(t *testing.T) {
	// Submodules and worktrees use a .git file, not a directory; the
	// walk keeps going up to the real repository root.
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	sub := filepath.Join(root, "vendor-checkout")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".git"), []byte("gitdir: ../.git/modules/x\n"), 0644))

	repo, err := FindRepo(sub)
	require.NoError(t, err)
	assert.Equal(t, root, repo)
}
