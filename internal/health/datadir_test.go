package health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestDataDirChecker_Probe(t *testing.T) {
	dir := t.TempDir()
	c := NewDataDirChecker(dir, zerolog.Nop())

	if c.IsHealthy() {
		t.Fatal("checker must start unhealthy")
	}
	c.probe()
	if !c.IsHealthy() {
		t.Fatal("writable dir must probe healthy")
	}

	// No marker left behind.
	if _, err := os.Stat(filepath.Join(dir, ".healthprobe")); !os.IsNotExist(err) {
		t.Fatalf("marker file not cleaned up: %v", err)
	}
}

func TestDataDirChecker_MissingDir(t *testing.T) {
	c := NewDataDirChecker(filepath.Join(t.TempDir(), "gone"), zerolog.Nop())
	c.probe()
	if c.IsHealthy() {
		t.Fatal("missing dir must probe unhealthy")
	}
}
