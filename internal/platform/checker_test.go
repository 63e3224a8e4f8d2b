package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liangyou/seed/pkg/models"
)

func TestCheckerValidateSupportedPlatform(t *testing.T) {
	t.Parallel()

	temp := t.TempDir()
	cfg := models.Config{Install: models.InstallConfig{Root: filepath.Join(temp, "engines")}}

	checker := NewChecker(cfg)
	checker.goos = func() string { return "linux" }

	if err := checker.Validate(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := os.Stat(cfg.Install.Root); err != nil {
		t.Fatalf("expected install root to be created: %v", err)
	}
}

func TestCheckerHost(t *testing.T) {
	t.Parallel()

	cases := map[string]models.Platform{
		"windows": models.PlatformWindows,
		"linux":   models.PlatformLinux,
		"darwin":  models.PlatformMacOS,
	}
	for goos, want := range cases {
		checker := NewChecker(models.Config{})
		goos := goos
		checker.goos = func() string { return goos }
		got, err := checker.Host()
		if err != nil {
			t.Fatalf("Host(%s) error: %v", goos, err)
		}
		if got != want {
			t.Fatalf("Host(%s)=%s want %s", goos, got, want)
		}
	}
}

func TestCheckerUnsupportedOS(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"android", "plan9"} {
		checker := NewChecker(models.Config{})
		goos := goos
		checker.goos = func() string { return goos }

		if err := checker.Validate(); err == nil {
			t.Fatalf("expected error for unsupported os %s", goos)
		}
	}
}

func TestCheckerPermissionError(t *testing.T) {
	t.Parallel()

	temp := t.TempDir()
	filePath := filepath.Join(temp, "file")
	if err := os.WriteFile(filePath, []byte("content"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	checker := NewChecker(models.Config{Install: models.InstallConfig{Root: filePath}})
	checker.goos = func() string { return "linux" }

	if err := checker.Validate(); err == nil {
		t.Fatal("expected error due to invalid directory")
	}
}
