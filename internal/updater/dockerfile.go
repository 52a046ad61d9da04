package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gnzdotmx/depflow/internal/utils"
)

var (
	golangFromRe = regexp.MustCompile(`FROM golang:(\d+\.\d+\.\d+)([-\w.]*)(\s+AS\s+\w+)?`)
	alpineFromRe = regexp.MustCompile(`FROM alpine:(\d+\.\d+(?:\.\d+)?)(\s+AS\s+\w+)?`)
	pythonFromRe = regexp.MustCompile(`FROM python:(\d+\.\d+)([-\w.]*)(\s+AS\s+\w+)?`)

	// FROM image[:tag] [AS name]; image may include a registry prefix.
	fromLineRe = regexp.MustCompile(`(?i)^FROM\s+([\w./-]+)(?::(\S+))?(?:\s+AS\s+(\w+))?\s*$`)

	fullVersionRe = regexp.MustCompile(`^\d+\.\d+\.\d+`)
	majorMinorRe  = regexp.MustCompile(`^\d+\.\d+`)
)

// UpdateDockerfileGolang rewrites golang base image versions, keeping any
// tag suffix (like -alpine3.20) and AS clause. Returns true on change.
func UpdateDockerfileGolang(modulePath, newVersion string) (bool, error) {
	return rewriteDockerfile(modulePath, func(content string) string {
		return golangFromRe.ReplaceAllString(content, "FROM golang:"+newVersion+"$2$3")
	}, "golang:"+newVersion)
}

// UpdateDockerfileAlpine rewrites alpine base image versions.
func UpdateDockerfileAlpine(modulePath, newVersion string) (bool, error) {
	return rewriteDockerfile(modulePath, func(content string) string {
		return alpineFromRe.ReplaceAllString(content, "FROM alpine:"+newVersion+"$2")
	}, "alpine:"+newVersion)
}

// UpdateDockerfilePython rewrites python base image versions, keeping
// suffixes like -slim.
func UpdateDockerfilePython(modulePath, newVersion string) (bool, error) {
	return rewriteDockerfile(modulePath, func(content string) string {
		return pythonFromRe.ReplaceAllString(content, "FROM python:"+newVersion+"$2$3")
	}, "python:"+newVersion)
}

func rewriteDockerfile(modulePath string, rewrite func(string) string, label string) (bool, error) {
	path := filepath.Join(modulePath, "Dockerfile")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	updated := rewrite(string(data))
	if updated == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, err
	}
	utils.LogInfo("  Updated Dockerfile: %s", label)
	return true, nil
}

// BaseImage is one FROM statement in a Dockerfile.
type BaseImage struct {
	Image  string
	Tag    string
	AsName string
	Line   string
}

// ParseDockerfileImages lists the FROM statements of a Dockerfile.
func ParseDockerfileImages(path string) ([]BaseImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var images []BaseImage
	for _, line := range strings.Split(string(data), "\n") {
		m := fromLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		images = append(images, BaseImage{Image: m[1], Tag: m[2], AsName: m[3], Line: line})
	}
	return images, nil
}

// VersionLookup resolves the latest version for a known base image name.
// Returns the version and how it applies to the tag ("full" replaces
// X.Y.Z, "major_minor" replaces X.Y); ok is false for unsupported images.
type VersionLookup func(image string) (version string, style string, ok bool)

// UpdateDockerfileImages refreshes all known base images in a standalone
// Dockerfile. Returns whether anything changed and human-readable update
// descriptions for the commit message.
func UpdateDockerfileImages(modulePath string, lookup VersionLookup) (bool, []string, error) {
	path := filepath.Join(modulePath, "Dockerfile")
	images, err := ParseDockerfileImages(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	if len(images) == 0 {
		utils.LogInfo("  No FROM statements found")
		return false, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil, err
	}
	content := string(data)
	original := content
	var updates []string

	for _, img := range images {
		version, style, ok := lookup(img.Image)
		if !ok || version == "" {
			continue
		}

		newTag := updateImageTag(img.Tag, version, style)
		if newTag == img.Tag {
			continue
		}

		asClause := ""
		if img.AsName != "" {
			asClause = " AS " + img.AsName
		}
		newLine := fmt.Sprintf("FROM %s:%s%s", img.Image, newTag, asClause)
		content = strings.Replace(content, img.Line, newLine, 1)
		updates = append(updates, fmt.Sprintf("%s:%s -> %s:%s", img.Image, img.Tag, img.Image, newTag))
	}

	if content == original {
		utils.LogInfo("  Dockerfile images are up to date")
		return false, nil, nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, nil, err
	}
	for _, u := range updates {
		utils.LogInfo("  %s", u)
	}
	return true, updates, nil
}

// updateImageTag applies a new version to a tag while preserving suffixes
// like "-slim" or "-alpine3.20".
func updateImageTag(currentTag, newVersion, style string) string {
	if currentTag == "" {
		return newVersion
	}
	switch style {
	case "full":
		return fullVersionRe.ReplaceAllString(currentTag, newVersion)
	case "major_minor":
		return majorMinorRe.ReplaceAllString(currentTag, newVersion)
	}
	return currentTag
}
