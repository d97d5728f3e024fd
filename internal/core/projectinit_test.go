package core

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/todo/pkg/models"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

const initBase = "/work/list"

func TestInit_CreatesWorkspace(t *testing.T) {
	fs := afero.NewMemMapFs()

	res, err := NewProjectInitializer(fs).Init(InitConfig{BasePath: initBase})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if ok, _ := afero.DirExists(fs, filepath.Join(initBase, ".todo")); !ok {
		t.Fatal(".todo data directory not created")
	}
	for _, f := range []string{ConfigFileName, ".gitignore"} {
		if ok, _ := afero.Exists(fs, filepath.Join(initBase, f)); !ok {
			t.Errorf("file %s not created", f)
		}
	}
	want := []string{
		initBase,
		filepath.Join(initBase, ".todo"),
		filepath.Join(initBase, ConfigFileName),
		filepath.Join(initBase, ".gitignore"),
	}
	if !slices.Equal(res.Created, want) {
		t.Errorf("created = %v, want %v", res.Created, want)
	}
}

func TestInit_ConfigRoundTripsThroughLoader(t *testing.T) {
	base := t.TempDir()

	if _, err := NewProjectInitializer(afero.NewOsFs()).Init(InitConfig{BasePath: base, Backend: models.BackendSQLite, DataDir: "data"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cm := NewConfigurationManager(base)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.Storage.Backend != models.BackendSQLite || cfg.Storage.Path != "data" {
		t.Errorf("storage = %+v, want sqlite/data", cfg.Storage)
	}
	if cfg.Export.Filename != DefaultGlobalConfig().Export.Filename {
		t.Errorf("export filename = %q", cfg.Export.Filename)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("written config should validate: %v", err)
	}
}

func TestInit_KeepsExistingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfgPath := filepath.Join(initBase, ConfigFileName)
	custom := "# my custom config\nlog:\n  level: debug\n"
	if err := afero.WriteFile(fs, cfgPath, []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := NewProjectInitializer(fs).Init(InitConfig{BasePath: initBase})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	data, _ := afero.ReadFile(fs, cfgPath)
	if string(data) != custom {
		t.Errorf("config was overwritten: got %q", data)
	}
	if !slices.Contains(res.Skipped, cfgPath) {
		t.Errorf("expected %s in skipped list %v", cfgPath, res.Skipped)
	}
	if !slices.Contains(res.Created, filepath.Join(initBase, ".gitignore")) {
		t.Errorf("missing .gitignore should still be created: %v", res.Created)
	}
}

func TestInit_Idempotent(t *testing.T) {
	pi := NewProjectInitializer(afero.NewMemMapFs())

	if _, err := pi.Init(InitConfig{BasePath: initBase}); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	res, err := pi.Init(InitConfig{BasePath: initBase})
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if len(res.Created) != 0 || len(res.Skipped) != 4 {
		t.Errorf("second run: created %v, skipped %v", res.Created, res.Skipped)
	}
}

func TestInit_RejectsUnknownBackend(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := NewProjectInitializer(fs).Init(InitConfig{BasePath: initBase, Backend: "redis"})
	if err == nil || !strings.Contains(err.Error(), "unknown storage backend") {
		t.Errorf("expected backend error, got %v", err)
	}
	if ok, _ := afero.Exists(fs, initBase); ok {
		t.Error("nothing should be created for an invalid backend")
	}
}

func TestInit_GitignoreContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := NewProjectInitializer(fs).Init(InitConfig{BasePath: initBase, DataDir: "store/"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	data, err := afero.ReadFile(fs, filepath.Join(initBase, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	want := "# todo local state\nstore/\n.todo_events.jsonl\n.env\n"
	if string(data) != want {
		t.Errorf(".gitignore = %q, want %q", data, want)
	}
}

func TestInit_DirectoryError(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "blocker"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewProjectInitializer(afero.NewOsFs()).Init(InitConfig{BasePath: filepath.Join(base, "blocker", "nested")})
	if err == nil {
		t.Fatalf("expected error when directory creation fails, got %+v", res)
	}
	if !strings.Contains(err.Error(), "creating directory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCreateFile_RenderError(t *testing.T) {
	pi := &projectInitializer{fs: afero.NewMemMapFs()}
	created, err := pi.createFile("/x", func() ([]byte, error) { return nil, errors.New("boom") })
	if err == nil || !strings.Contains(err.Error(), "rendering /x") {
		t.Errorf("expected render error, got %v", err)
	}
	if created {
		t.Error("file should not be reported as created")
	}
	if ok, _ := afero.Exists(pi.fs, "/x"); ok {
		t.Error("file should not exist after a render error")
	}
}

func TestProperty_InitWritesLoadableYAML(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fs := afero.NewMemMapFs()
		backend := rapid.SampledFrom([]models.StorageBackend{models.BackendFile, models.BackendSQLite}).Draw(rt, "backend")
		dataDir := rapid.StringMatching(`[a-z][a-z0-9_]{0,11}`).Draw(rt, "dataDir")

		if _, err := NewProjectInitializer(fs).Init(InitConfig{BasePath: initBase, Backend: backend, DataDir: dataDir}); err != nil {
			rt.Fatalf("Init failed: %v", err)
		}

		data, err := afero.ReadFile(fs, filepath.Join(initBase, ConfigFileName))
		if err != nil {
			rt.Fatal(err)
		}
		var cfg models.GlobalConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			rt.Fatalf("invalid YAML: %v", err)
		}
		want := *DefaultGlobalConfig()
		want.Storage = models.StorageConfig{Backend: backend, Path: dataDir}
		if cfg != want {
			rt.Fatalf("config = %+v, want %+v", cfg, want)
		}
		if ok, _ := afero.DirExists(fs, filepath.Join(initBase, dataDir)); !ok {
			rt.Fatalf("data dir %s not created", dataDir)
		}
	})
}
