package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/gnzdotmx/depflow/internal/utils"
)

// Version pins known to break builds across the fleet, excluded from
// every Go module. Entries are "module@version".
var standardExcludes = []string{
	"cloud.google.com/go@v0.26.0",
	"github.com/go-logr/glogr@v1.0.0-rc1",
	"github.com/go-logr/glogr@v1.0.0",
	"github.com/go-logr/logr@v1.0.0-rc1",
	"github.com/go-logr/logr@v1.0.0",
	"go.yaml.in/yaml/v3@v3.0.3",
	"go.yaml.in/yaml/v3@v3.0.4",
	"golang.org/x/tools@v0.38.0",
	"golang.org/x/tools@v0.39.0",
	"k8s.io/api@v0.34.0",
	"k8s.io/api@v0.34.1",
	"k8s.io/api@v0.34.2",
	"k8s.io/api@v0.34.3",
	"k8s.io/apiextensions-apiserver@v0.34.0",
	"k8s.io/apiextensions-apiserver@v0.34.1",
	"k8s.io/apiextensions-apiserver@v0.34.2",
	"k8s.io/apiextensions-apiserver@v0.34.3",
	"k8s.io/apimachinery@v0.34.0",
	"k8s.io/apimachinery@v0.34.1",
	"k8s.io/apimachinery@v0.34.2",
	"k8s.io/apimachinery@v0.34.3",
	"k8s.io/client-go@v0.34.0",
	"k8s.io/client-go@v0.34.1",
	"k8s.io/client-go@v0.34.2",
	"k8s.io/client-go@v0.34.3",
	"k8s.io/code-generator@v0.34.0",
	"k8s.io/code-generator@v0.34.1",
	"k8s.io/code-generator@v0.34.2",
	"k8s.io/code-generator@v0.34.3",
	"sigs.k8s.io/structured-merge-diff/v6@v6.0.0",
	"sigs.k8s.io/structured-merge-diff/v6@v6.1.0",
	"sigs.k8s.io/structured-merge-diff/v6@v6.2.0",
	"sigs.k8s.io/structured-merge-diff/v6@v6.3.0",
}

type replacement struct {
	oldPath string
	newPath string
	version string
}

// Replacements pinned across the fleet.
var standardReplaces = []replacement{
	{oldPath: "k8s.io/kube-openapi", newPath: "k8s.io/kube-openapi", version: "v0.0.0-20250701173324-9bd5c66d9911"},
}

// ApplyGoModExcludes adds the standard exclude and replace directives to
// the module's go.mod where missing, and corrects replaces pinned to a
// different version. Modules without a go.mod are skipped. Returns true
// when the file changed.
func ApplyGoModExcludes(modulePath string) (bool, error) {
	path := filepath.Join(modulePath, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return false, fmt.Errorf("parsing go.mod: %w", err)
	}

	existing := make(map[string]bool, len(f.Exclude))
	for _, ex := range f.Exclude {
		existing[ex.Mod.Path+"@"+ex.Mod.Version] = true
	}

	changed := false
	for _, exclude := range standardExcludes {
		if existing[exclude] {
			continue
		}
		mod, version, ok := strings.Cut(exclude, "@")
		if !ok {
			continue
		}
		if err := f.AddExclude(mod, version); err != nil {
			return false, fmt.Errorf("adding exclude %s: %w", exclude, err)
		}
		utils.LogInfo("  Added exclude: %s", exclude)
		changed = true
	}

	for _, rep := range standardReplaces {
		if current, ok := currentReplace(f, rep.oldPath); ok && current == rep.newPath+"@"+rep.version {
			continue
		}
		if err := f.AddReplace(rep.oldPath, "", rep.newPath, rep.version); err != nil {
			return false, fmt.Errorf("adding replace %s: %w", rep.oldPath, err)
		}
		utils.LogInfo("  Added replace: %s => %s %s", rep.oldPath, rep.newPath, rep.version)
		changed = true
	}

	if !changed {
		utils.LogVerbose("  All excludes and replaces already present")
		return false, nil
	}

	f.Cleanup()
	updated, err := f.Format()
	if err != nil {
		return false, fmt.Errorf("formatting go.mod: %w", err)
	}
	if err := os.WriteFile(path, updated, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// currentReplace returns the "path@version" target of an existing replace
// directive for oldPath, ignoring version-qualified old sides.
func currentReplace(f *modfile.File, oldPath string) (string, bool) {
	for _, rep := range f.Replace {
		if rep.Old.Path == oldPath && rep.Old.Version == "" {
			return rep.New.Path + "@" + rep.New.Version, true
		}
	}
	return "", false
}
