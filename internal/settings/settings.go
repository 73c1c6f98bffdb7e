// Package settings persists user preferences (the working RFC and the UI
// theme) as a TOML file under the OS user config directory.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"eddp/analizador_cfdi/internal/core/cfdi"
)

const (
	appDir   = "analizador_cfdi"
	fileName = "settings.toml"
)

// Valid theme values. Anything else coerces to ThemeSystem on load.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// ErrRFCInvalido rejects attempts to persist a malformed RFC.
var ErrRFCInvalido = errors.New("settings: rfc invalido")

// Settings is the persisted preference set.
type Settings struct {
	RFC   string `toml:"rfc"`
	Theme string `toml:"theme"`
}

// Store reads and writes the settings file. The zero value is not usable;
// build one with NewStore or NewStoreAt.
type Store struct {
	path string
}

// NewStore locates the settings file under the user config directory,
// creating the application directory if needed.
func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// NewStoreAt builds a store over an explicit file path, bypassing the OS
// config directory lookup.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads the settings file. A missing file yields defaults, not an
// error. Unknown theme values coerce to system.
func (s *Store) Load() (Settings, error) {
	out := Settings{Theme: ThemeSystem}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &out); err != nil {
		return Settings{Theme: ThemeSystem}, fmt.Errorf("parse settings: %w", err)
	}
	out.RFC = cfdi.NormalizarRFC(out.RFC)
	switch out.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		out.Theme = ThemeSystem
	}
	return out, nil
}

// Save writes the settings file atomically via a temp file rename.
func (s *Store) Save(cfg Settings) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// SetRFC validates, normalizes and persists the working RFC, keeping the
// rest of the settings intact.
func (s *Store) SetRFC(rfc string) error {
	normalized := cfdi.NormalizarRFC(rfc)
	if !cfdi.ValidarRFC(normalized) {
		return ErrRFCInvalido
	}
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	cfg.RFC = normalized
	return s.Save(cfg)
}

// SetTheme persists the theme, coercing unknown values to system.
func (s *Store) SetTheme(theme string) error {
	switch theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		theme = ThemeSystem
	}
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	cfg.Theme = theme
	return s.Save(cfg)
}
