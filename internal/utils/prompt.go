package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptInput is the reader the prompt helpers consume answers from.
// Tests replace it with a prepared buffer.
var PromptInput io.Reader = os.Stdin

// PromptYesNo asks a yes/no question and returns the answer. An empty
// answer returns defaultYes; EOF or a read error also returns defaultYes
// so an unattended run never hangs on a closed stdin.
func PromptYesNo(question string, defaultYes bool) bool {
	suffix := "[Y/n]"
	if !defaultYes {
		suffix = "[y/N]"
	}
	fmt.Printf("%s %s ", question, suffix)

	reader := bufio.NewReader(PromptInput)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return defaultYes
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Printf("Please answer y or n %s ", suffix)
	}
}

// PromptSkipOrRetry asks the operator what to do with a failed module.
// Returns "skip" or "retry". EOF defaults to "skip" so an unattended run
// moves on instead of looping forever.
func PromptSkipOrRetry() string {
	fmt.Print("Skip or retry? [s/r] ")

	reader := bufio.NewReader(PromptInput)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "skip"
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "skip":
			return "skip"
		case "r", "retry":
			return "retry"
		}
		fmt.Print("Please answer s or r: ")
	}
}
