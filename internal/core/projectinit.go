package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/todo/pkg/models"
	"gopkg.in/yaml.v3"
)

// InitConfig selects where and how `todo init` sets up a task list.
// Empty fields fall back to DefaultGlobalConfig.
type InitConfig struct {
	BasePath string
	Backend  models.StorageBackend
	DataDir  string
}

// InitResult lists the paths Init created and the ones it found in place.
type InitResult struct {
	Created []string
	Skipped []string
}

func (r *InitResult) record(p string, created bool) {
	if created {
		r.Created = append(r.Created, p)
	} else {
		r.Skipped = append(r.Skipped, p)
	}
}

// ProjectInitializer sets up a directory to hold a task list.
type ProjectInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type projectInitializer struct {
	fs afero.Fs
}

// NewProjectInitializer returns an initializer that writes through fs.
func NewProjectInitializer(fs afero.Fs) ProjectInitializer {
	return &projectInitializer{fs: fs}
}

// Init creates the base and data directories, a .todoconfig for the chosen
// backend and a .gitignore for local state. Nothing that exists is touched.
func (pi *projectInitializer) Init(config InitConfig) (*InitResult, error) {
	cfg := DefaultGlobalConfig()
	if config.Backend != "" {
		cfg.Storage.Backend = config.Backend
	}
	if config.DataDir != "" {
		cfg.Storage.Path = config.DataDir
	}
	switch cfg.Storage.Backend {
	case models.BackendFile, models.BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	res := &InitResult{}
	for _, dir := range []string{config.BasePath, filepath.Join(config.BasePath, cfg.Storage.Path)} {
		created, err := pi.ensureDir(dir)
		if err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
		res.record(dir, created)
	}

	files := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{ConfigFileName, func() ([]byte, error) { return yaml.Marshal(cfg) }},
		{".gitignore", func() ([]byte, error) { return gitignoreFor(cfg.Storage.Path), nil }},
	}
	for _, f := range files {
		p := filepath.Join(config.BasePath, f.name)
		created, err := pi.createFile(p, f.render)
		if err != nil {
			return nil, err
		}
		res.record(p, created)
	}
	return res, nil
}

func gitignoreFor(dataDir string) []byte {
	lines := []string{
		"# todo local state",
		path.Clean(filepath.ToSlash(dataDir)) + "/",
		".todo_events.jsonl",
		".env",
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func (pi *projectInitializer) ensureDir(dir string) (bool, error) {
	if ok, err := afero.DirExists(pi.fs, dir); err != nil || ok {
		return false, err
	}
	return true, pi.fs.MkdirAll(dir, 0o750)
}

// createFile writes render's output to p unless p already exists.
func (pi *projectInitializer) createFile(p string, render func() ([]byte, error)) (bool, error) {
	if _, err := pi.fs.Stat(p); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", p, err)
	}
	content, err := render()
	if err != nil {
		return false, fmt.Errorf("rendering %s: %w", p, err)
	}
	if err := afero.WriteFile(pi.fs, p, content, 0o600); err != nil {
		return false, fmt.Errorf("writing %s: %w", p, err)
	}
	return true, nil
}
