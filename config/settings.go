// Package config loads and persists the app settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the whole on-disk configuration.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Database DatabaseSettings `json:"database"`
	Storage  StorageSettings  `json:"storage"`
	Metadata MetadataSettings `json:"metadata"`
	Sessions SessionSettings  `json:"sessions"`
	App      AppSettings      `json:"app"`
	Log      LogSettings      `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type StorageSettings struct {
	Directory string `json:"directory"`
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
}

type SessionSettings struct {
	TTLHours int `json:"ttlHours"`
}

// AppSettings feeds the web manifest and page chrome. BasePath supports
// serving behind a reverse-proxy sub-path and must be empty or start with "/".
type AppSettings struct {
	Name            string `json:"name"`
	ShortName       string `json:"shortName"`
	ThemeColor      string `json:"themeColor"`
	BackgroundColor string `json:"backgroundColor"`
	BasePath        string `json:"basePath"`
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration used on first run.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 7878,
		},
		Database: DatabaseSettings{
			Path: "storage/nido.db",
		},
		Storage: StorageSettings{
			Directory: "storage",
		},
		Metadata: MetadataSettings{
			Language: "es-MX",
		},
		Sessions: SessionSettings{
			TTLHours: 24 * 30,
		},
		App: AppSettings{
			Name:            "Nido",
			ShortName:       "Nido",
			ThemeColor:      "#1f1b2e",
			BackgroundColor: "#14121f",
		},
		Log: LogSettings{
			File:       "storage/nido.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Manager reads and writes the settings file.
type Manager struct {
	path string
	mu   sync.Mutex
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads settings from disk, falling back to defaults when the file does
// not exist yet.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to disk, creating the parent directory if needed.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
