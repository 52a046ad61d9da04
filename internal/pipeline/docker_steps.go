package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnzdotmx/depflow/internal/gitops"
	"github.com/gnzdotmx/depflow/internal/registry"
	"github.com/gnzdotmx/depflow/internal/updater"
	"github.com/gnzdotmx/depflow/internal/utils"
)

// DockerUpdateStep refreshes the base images of a standalone Dockerfile
// module against the latest published versions.
type DockerUpdateStep struct {
	Registry *registry.Client
}

func (s *DockerUpdateStep) Name() string { return "docker-update" }

func (s *DockerUpdateStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	lookup := func(image string) (string, string, bool) {
		switch image {
		case "golang":
			v, err := s.Registry.LatestGoVersion(ctx)
			if err != nil {
				utils.LogWarning("Could not resolve latest Go version: %v", err)
				return "", "", false
			}
			return v, "full", true
		case "alpine":
			v, err := s.Registry.LatestAlpineVersion(ctx)
			if err != nil {
				utils.LogWarning("Could not resolve latest Alpine version: %v", err)
				return "", "", false
			}
			return v, "major_minor", true
		case "python":
			v, err := s.Registry.LatestPythonVersion(ctx)
			if err != nil {
				utils.LogWarning("Could not resolve latest Python version: %v", err)
				return "", "", false
			}
			return v, "major_minor", true
		default:
			return "", "", false
		}
	}

	changed, updates, err := updater.UpdateDockerfileImages(modulePath, lookup)
	if err != nil {
		return Result{}, err
	}
	state.UpdatesMade = state.UpdatesMade || changed
	state.DockerUpdates = updates
	return Result{Status: StatusSuccess}, nil
}

// DockerCommitStep commits base image updates with a message listing the
// image transitions. Docker-only modules carry no changelog or tags.
type DockerCommitStep struct{}

func (s *DockerCommitStep) Name() string { return "docker-commit" }

func (s *DockerCommitStep) Run(ctx context.Context, modulePath string, state *Context) (Result, error) {
	message := "Update Docker base images"
	if len(state.DockerUpdates) > 0 {
		message = fmt.Sprintf("Update Docker base images: %s", strings.Join(state.DockerUpdates, ", "))
	}
	if err := gitops.CommitAll(ctx, modulePath, message); err != nil {
		return Result{}, fmt.Errorf("commit failed: %w", err)
	}
	utils.LogSuccess("Committed: %s", message)
	return Result{Status: StatusSuccess}, nil
}
