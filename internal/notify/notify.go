// Package notify plays best-effort attention sounds for long-running
// interactive runs. Sounds exist on macOS only; everywhere else every
// call is a no-op. Failures are ignored; a missing sound must never
// affect a run.
package notify

import (
	"os/exec"
	"runtime"
)

const (
	interactionSound = "/System/Library/Sounds/Ping.aiff"
	completionSound  = "/System/Library/Sounds/Glass.aiff"
	errorSound       = "/System/Library/Sounds/Basso.aiff"
)

func play(path string) {
	if runtime.GOOS != "darwin" {
		return
	}
	_ = exec.Command("afplay", path).Start()
}

// Interaction signals that the run is waiting on operator input.
func Interaction() { play(interactionSound) }

// Completion signals that the whole run finished.
func Completion() { play(completionSound) }

// Error signals a module failure.
func Error() { play(errorSound) }
