package export

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Keep wizard config reads and writes inside the test sandbox.
	tmp, err := os.MkdirTemp("", "canopy-export-test")
	if err == nil {
		os.Setenv("HOME", tmp)
	}

	code := m.Run()

	if tmp != "" {
		os.RemoveAll(tmp)
	}
	os.Exit(code)
}
