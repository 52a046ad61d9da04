package config

import (
	"fmt"
	"os"
	"time"
)

// Default advisory models accepted by the --model flag.
var validModels = map[string]bool{
	"sonnet": true,
	"opus":   true,
	"haiku":  true,
}

// Config holds the settings for one run. It is built once in cmd and
// threaded explicitly through the run coordinator, retry loop, pipelines
// and steps; nothing reads run settings from package globals.
type Config struct {
	// Paths are the module or root directories given on the command line.
	Paths []string

	// Model selects the advisory model.
	Model string

	// RequireConfirm gates every commit behind an interactive prompt.
	RequireConfirm bool

	// SkipGitUpdate skips the branch checkout/pull at the start of a run.
	SkipGitUpdate bool

	// NoTag appends changes to ## Unreleased instead of cutting a version.
	NoTag bool

	// UpdateDeps controls whether dependency refresh steps run for Go
	// modules. When false only runtime versions are updated.
	UpdateDeps bool

	// SessionCooldown is the mandatory delay between advisory sessions.
	SessionCooldown time.Duration

	// RunTimestamp identifies this run in log output.
	RunTimestamp string
}

// New returns a Config with defaults applied and the run timestamp set.
func New() *Config {
	return &Config{
		Paths:           []string{"."},
		Model:           "sonnet",
		UpdateDeps:      true,
		SessionCooldown: 2 * time.Second,
		RunTimestamp:    time.Now().Format("2006-01-02-150405"),
	}
}

// Validate checks the configuration before a run starts.
func (c *Config) Validate() error {
	if !validModels[c.Model] {
		return fmt.Errorf("invalid model %q: must be sonnet, opus, or haiku", c.Model)
	}
	for _, p := range c.Paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("module path does not exist: %s", p)
		}
	}
	return nil
}
