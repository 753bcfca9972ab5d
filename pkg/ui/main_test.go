package ui

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Debug assertions abort the process; keep UI tests on the production
	// code path regardless of the developer's shell environment.
	os.Unsetenv("CANOPY_DEBUG")

	os.Exit(m.Run())
}
