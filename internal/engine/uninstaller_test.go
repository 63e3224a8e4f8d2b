package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/liangyou/seed/internal/storage"
	"github.com/liangyou/seed/pkg/models"
)

func TestUninstallRemovesFilesAndRecord(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewFileStorage(models.Config{Install: models.InstallConfig{Root: root}})

	engine := models.InstalledEngine{
		Name:    "Flax 1.9",
		Version: models.MustParseVersion("1.9.6605"),
		Path:    store.GetInstallPath("Flax 1.9"),
	}
	if err := os.MkdirAll(engine.Path, 0o755); err != nil {
		t.Fatalf("mkdir install path: %v", err)
	}
	if err := os.WriteFile(filepath.Join(engine.Path, "FlaxEditor"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	keep := models.InstalledEngine{Name: "Flax 1.10", Version: models.MustParseVersion("1.10.6700"), Path: store.GetInstallPath("Flax 1.10")}
	for _, e := range []models.InstalledEngine{engine, keep} {
		if err := store.SaveEngine(e); err != nil {
			t.Fatalf("SaveEngine: %v", err)
		}
	}

	remaining, err := NewUninstaller(store).Uninstall("Flax 1.9")
	if err != nil {
		t.Fatalf("Uninstall error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Name != "Flax 1.10" {
		t.Fatalf("unexpected remaining engines: %#v", remaining)
	}
	if _, err := os.Stat(engine.Path); !os.IsNotExist(err) {
		t.Fatalf("install path still exists: %v", err)
	}
}

func TestUninstallNotInstalled(t *testing.T) {
	t.Parallel()

	store := storage.NewFileStorage(models.Config{Install: models.InstallConfig{Root: t.TempDir()}})
	if _, err := NewUninstaller(store).Uninstall("Flax 0.1"); !errors.Is(err, ErrEngineNotFound) {
		t.Fatalf("expected ErrEngineNotFound, got %v", err)
	}
	if _, err := NewUninstaller(store).Uninstall("  "); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestUninstallRefusesPathOutsideRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	store := storage.NewFileStorage(models.Config{Install: models.InstallConfig{Root: root}})
	if err := store.SaveEngine(models.InstalledEngine{Name: "Rogue", Version: models.MustParseVersion("1.0"), Path: outside}); err != nil {
		t.Fatalf("SaveEngine: %v", err)
	}

	if _, err := NewUninstaller(store).Uninstall("Rogue"); err == nil {
		t.Fatal("expected refusal for path outside install root")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("outside directory must survive: %v", err)
	}
}

func TestUninstallRecordWithoutPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewFileStorage(models.Config{Install: models.InstallConfig{Root: root}})
	dir := filepath.Join(root, "Flax 1.8")
	if err := os.MkdirAll(filepath.Join(dir, "Binaries"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.SaveEngine(models.InstalledEngine{Name: "Flax 1.8", Version: models.MustParseVersion("1.8.6510")}); err != nil {
		t.Fatalf("SaveEngine: %v", err)
	}

	remaining, err := NewUninstaller(store).Uninstall("Flax 1.8")
	if err != nil {
		t.Fatalf("Uninstall error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no remaining engines, got %#v", remaining)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("directory derived from the record name must be removed: %v", err)
	}
}
