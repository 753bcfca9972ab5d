package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal (and before any TUI starts).
//
// In some PTY/TTY capture environments (notably agent runners), Bubble Tea's init
// triggers Lipgloss/Termenv background detection, which can emit OSC/DSR control
// sequences to stdout. Those sequences are harmless in a real terminal but can
// break JSON parsers consuming robot-mode output.
//
// Robot-mode invocations are treated as non-interactive and CI=1 is set early.
// Termenv uses CI to disable TTY probing, preventing those sequences from being
// written.
func init() {
	if os.Getenv("CI") != "" {
		return
	}

	if !shouldSuppressTTYQueries(os.Args, os.Getenv("CANOPY_ROBOT") == "1", os.Getenv("CANOPY_TEST_MODE") != "") {
		return
	}

	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "--find") || strings.HasPrefix(arg, "-find") {
			return true
		}
		switch arg {
		case "--version", "-version", "--help", "-help":
			return true
		}
	}

	return false
}
