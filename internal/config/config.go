/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	glog "godiagram/internal/log"
	"godiagram/internal/security"
	"godiagram/internal/snap"
	"godiagram/internal/tool"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Grid          GridConfig     `yaml:"grid"`
	Tools         ToolsConfig    `yaml:"tools"`
	Security      SecurityConfig `yaml:"security"`
	Journal       JournalConfig  `yaml:"journal"`
	Library       LibraryConfig  `yaml:"library"`
	Logging       LoggingConfig  `yaml:"logging"`
}

type GridConfig struct {
	Size         int  `yaml:"size"`
	SnapDistance int  `yaml:"snap_distance"`
	SnapToGrid   bool `yaml:"snap_to_grid"`
}

// ToolsConfig holds pixel distances; the display converts them to diagram units.
type ToolsConfig struct {
	MinRotateRange int  `yaml:"min_rotate_range"`
	QuickRotate    bool `yaml:"quick_rotate"`
	GripSize       int  `yaml:"grip_size"`
	DragThreshold  int  `yaml:"drag_threshold"`
}

type SecurityConfig struct {
	Role string `yaml:"role"`
}

type JournalConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "pgx" | "" (disabled)
	DSN    string `yaml:"dsn"`
	// the password is not stored on disk; it lives in the OS keychain
}

type LibraryConfig struct {
	File string `yaml:"file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	s := tool.DefaultSettings()
	return AppConfig{
		ConfigVersion: 1,
		Grid:          GridConfig{Size: 20, SnapDistance: 5, SnapToGrid: true},
		Tools: ToolsConfig{
			MinRotateRange: s.MinRotateRange,
			QuickRotate:    s.EnableQuickRotate,
			GripSize:       s.GripSize,
			DragThreshold:  s.DragThreshold,
		},
		Security: SecurityConfig{Role: string(security.Designer)},
		Journal:  JournalConfig{},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile    = "GDG_CONFIG"
	EnvGridSize      = "GDG_GRID_SIZE"
	EnvSnapToGrid    = "GDG_SNAP_TO_GRID"
	EnvRole          = "GDG_ROLE"
	EnvJournalDriver = "GDG_JOURNAL_DRIVER"
	EnvJournalDSN    = "GDG_JOURNAL_DSN"
	EnvLibraryFile   = "GDG_LIBRARY"
	// logging variables are owned by the log package
	EnvLogLevel  = glog.EnvLevel
	EnvLogFormat = glog.EnvFormat
	EnvLogSource = glog.EnvSource
	EnvLogFile   = glog.EnvFile
)

// Service/keys for OS keyring.
const (
	keyringService   = "GoDiagram"
	keyringJournalPw = "journal_password"
)

// secretStore abstracts the keyring, so tests can stub it.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore with the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. GDG_CONFIG replaces it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoDiagram")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoDiagram")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "godiagram")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "godiagram")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also reads the journal password from the keyring; a missing entry yields "".
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("config: parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg, data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, "", fmt.Errorf("config: read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	pw, _ := secretStore.Get(keyringService, keyringJournalPw)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the journal password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := secretStore.Set(keyringService, keyringJournalPw, password); err != nil {
			return err
		}
	}
	return nil
}

// mergeInto copies the values set in the file over the defaults. Booleans
// are only taken when the key is present in raw.
func mergeInto(dst *AppConfig, src *AppConfig, raw []byte) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	present := presentKeys(raw)
	if src.Grid.Size > 0 {
		dst.Grid.Size = src.Grid.Size
	}
	if present["grid.snap_distance"] && src.Grid.SnapDistance >= 0 {
		dst.Grid.SnapDistance = src.Grid.SnapDistance
	}
	if present["grid.snap_to_grid"] {
		dst.Grid.SnapToGrid = src.Grid.SnapToGrid
	}
	if src.Tools.MinRotateRange > 0 {
		dst.Tools.MinRotateRange = src.Tools.MinRotateRange
	}
	if present["tools.quick_rotate"] {
		dst.Tools.QuickRotate = src.Tools.QuickRotate
	}
	if src.Tools.GripSize > 0 {
		dst.Tools.GripSize = src.Tools.GripSize
	}
	if present["tools.drag_threshold"] && src.Tools.DragThreshold >= 0 {
		dst.Tools.DragThreshold = src.Tools.DragThreshold
	}
	if v := strings.TrimSpace(src.Security.Role); v != "" {
		dst.Security.Role = v
	}
	if v := strings.TrimSpace(src.Journal.Driver); v != "" {
		dst.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Journal.DSN); v != "" {
		dst.Journal.DSN = v
	}
	if v := strings.TrimSpace(src.Library.File); v != "" {
		dst.Library.File = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

// presentKeys lists the "section.key" paths of a YAML document.
func presentKeys(raw []byte) map[string]bool {
	keys := map[string]bool{}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return keys
	}
	for section, v := range doc {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for k := range m {
			keys[section+"."+k] = true
		}
	}
	return keys
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.Size = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Grid.SnapToGrid = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvRole)); v != "" {
		cfg.Security.Role = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDriver)); v != "" {
		cfg.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDSN)); v != "" {
		cfg.Journal.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryFile)); v != "" {
		cfg.Library.File = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"grid.size":         EnvGridSize,
	"grid.snap_to_grid": EnvSnapToGrid,
	"security.role":     EnvRole,
	"journal.driver":    EnvJournalDriver,
	"journal.dsn":       EnvJournalDSN,
	"library.file":      EnvLibraryFile,
	"logging.level":     EnvLogLevel,
	"logging.format":    EnvLogFormat,
	"logging.source":    EnvLogSource,
	"logging.file":      EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// SnapGrid converts the grid section.
func (c AppConfig) SnapGrid() snap.Grid {
	return snap.Grid{Size: c.Grid.Size, SnapDistance: c.Grid.SnapDistance, Enabled: c.Grid.SnapToGrid}
}

// ToolSettings converts the tools section.
func (c AppConfig) ToolSettings() tool.Settings {
	return tool.Settings{
		MinRotateRange:    c.Tools.MinRotateRange,
		EnableQuickRotate: c.Tools.QuickRotate,
		GripSize:          c.Tools.GripSize,
		DragThreshold:     c.Tools.DragThreshold,
	}
}

// SecurityManager builds a role manager for the configured role.
func (c AppConfig) SecurityManager() (*security.RoleManager, error) {
	r, err := security.ParseRole(c.Security.Role)
	if err != nil {
		return nil, fmt.Errorf("config: security.role: %w", err)
	}
	return security.NewRoleManager(r), nil
}

// LogOptions converts the logging section.
func (c AppConfig) LogOptions() glog.Options {
	return glog.Options{Level: c.Logging.Level, Format: c.Logging.Format, File: c.Logging.File, AddSource: c.Logging.Source}
}

// DataSourceName returns the journal DSN with the keychain password applied.
// Postgres URLs get the password as user info; other DSNs are returned as is.
func (j JournalConfig) DataSourceName(password string) (string, error) {
	if password == "" || j.Driver != "pgx" {
		return j.DSN, nil
	}
	u, err := url.Parse(j.DSN)
	if err != nil {
		return "", fmt.Errorf("config: journal.dsn: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return j.DSN, nil
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}
