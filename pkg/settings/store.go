package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	settingsFile = "settings.json"
	logDir       = "Logs"
)

// ErrNotFound is returned by Load when the module has no settings file yet.
var ErrNotFound = errors.New("settings file not found")

// Store persists module settings under Root/<module key>/settings.json.
type Store struct {
	Root string
}

// DefaultRoot returns <user config dir>/quicklaunch.
func DefaultRoot() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "quicklaunch"), nil
}

// NewStore returns a store rooted at root, or at DefaultRoot when root is empty.
func NewStore(root string) (*Store, error) {
	if root == "" {
		var err error
		if root, err = DefaultRoot(); err != nil {
			return nil, err
		}
	}
	return &Store{Root: root}, nil
}

// ModuleDir is the module's save folder.
func (s *Store) ModuleDir(key string) string {
	return filepath.Join(s.Root, key)
}

// Path is the module's settings file.
func (s *Store) Path(key string) string {
	return filepath.Join(s.ModuleDir(key), settingsFile)
}

// LogPath is the module's log file.
func (s *Store) LogPath(key, name string) string {
	return filepath.Join(s.ModuleDir(key), logDir, name)
}

// Load reads the module's persisted values.
func (s *Store) Load(key string) (*Values, error) {
	doc, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return ValuesFromJSON(doc, key)
}

// Save writes v to the settings file of module v.Name, replacing it atomically.
func (s *Store) Save(v *Values) error {
	if v == nil || v.Name == "" {
		return errors.New("values without module name")
	}
	doc, err := v.JSON()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := s.ModuleDir(v.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, settingsFile+".*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(v.Name)); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
