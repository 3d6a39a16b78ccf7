package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"vfsnav/internal/constants"
	apperrors "vfsnav/internal/errors"
	"vfsnav/internal/fileinfo"
)

// Config represents the application configuration
type Config struct {
	Window      WindowConfig      `json:"window"`
	Browser     BrowserConfig     `json:"browser"`
	Network     NetworkConfig     `json:"network"`
	Credentials CredentialsConfig `json:"credentials"`
	Favorites   FavoritesConfig   `json:"favorites"`
	Logging     LoggingConfig     `json:"logging"`
}

// WindowConfig represents window-related settings
type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BrowserConfig holds the initial state of the browser panel
type BrowserConfig struct {
	StartURL          string                  `json:"startUrl"`
	ShowHiddenFiles   bool                    `json:"showHiddenFiles"`
	Sort              SortConfig              `json:"sort"`
	SelectionMode     string                  `json:"selectionMode"` // "files_only", "dirs_only", "dirs_and_files"
	MultiSelect       bool                    `json:"multiSelect"`
	SkipLinkCheck     bool                    `json:"skipLinkCheck"`
	NavigationHistory NavigationHistoryConfig `json:"navigationHistory"`
}

// SortConfig represents file sorting settings
type SortConfig struct {
	SortBy    string `json:"sortBy"`    // "name", "size", "modified", "type"
	SortOrder string `json:"sortOrder"` // "asc", "desc"
}

// NavigationHistoryConfig represents navigation history settings
type NavigationHistoryConfig struct {
	MaxEntries int                  `json:"maxEntries"` // Maximum number of URLs to remember
	Entries    []string             `json:"entries"`    // URL history (newest first)
	LastUsed   map[string]time.Time `json:"lastUsed"`   // LRU management
}

// NetworkConfig configures remote backends
type NetworkConfig struct {
	DialTimeoutSeconds int    `json:"dialTimeoutSeconds"`
	KnownHostsFile     string `json:"knownHostsFile"` // empty accepts any SSH host key
	Workers            int    `json:"workers"`
}

// CredentialsConfig selects the persistent credential store
type CredentialsConfig struct {
	Persist bool   `json:"persist"`
	Dir     string `json:"dir"` // encrypted file keyring; empty uses the OS keyring
}

// FavoritesConfig locates the favorites files
type FavoritesConfig struct {
	File          string `json:"file"`
	BookmarksFile string `json:"bookmarksFile"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DialTimeout returns the configured dial timeout.
func (n NetworkConfig) DialTimeout() time.Duration {
	if n.DialTimeoutSeconds <= 0 {
		return constants.DialTimeout
	}
	return time.Duration(n.DialTimeoutSeconds) * time.Second
}

// Manager provides configuration management functionality
type Manager struct {
	configPath string
	debugPrint func(format string, args ...interface{})
}

// NewManager creates a configuration manager for the default location
func NewManager(debugPrint func(format string, args ...interface{})) *Manager {
	return NewManagerWithPath(getConfigPath(), debugPrint)
}

// NewManagerWithPath creates a configuration manager for path
func NewManagerWithPath(path string, debugPrint func(format string, args ...interface{})) *Manager {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &Manager{configPath: path, debugPrint: debugPrint}
}

// Path returns the configuration file path
func (m *Manager) Path() string { return m.configPath }

// Dir returns the directory holding the configuration and its side files
func (m *Manager) Dir() string { return filepath.Dir(m.configPath) }

// Load loads configuration from file, merges it with defaults and applies
// environment overrides
func (m *Manager) Load() (*Config, error) {
	config := m.defaults()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		m.debugPrint("Config file not found, using defaults: %v", err)
	} else {
		var fileConfig Config
		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return nil, apperrors.NewConfigError("load", "error parsing config file", err)
		}
		mergeConfigs(config, &fileConfig)
	}

	if err := m.applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to file
func (m *Manager) Save(config *Config) error {
	// Create the config directory if it doesn't exist
	if err := os.MkdirAll(m.Dir(), 0755); err != nil {
		return apperrors.NewConfigError("save", "error creating config directory", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return apperrors.NewConfigError("save", "error marshaling config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return apperrors.NewConfigError("save", "error writing config file", err)
	}
	return nil
}

// defaults returns the default configuration; the favorites file lives next
// to the config file
func (m *Manager) defaults() *Config {
	config := getDefaultConfig()
	config.Favorites.File = filepath.Join(m.Dir(), constants.FavoritesFileName)
	return config
}

// CredentialsFallbackDir is where the encrypted file keyring goes when the
// OS keyring is unavailable.
func (m *Manager) CredentialsFallbackDir() string {
	return filepath.Join(m.Dir(), constants.CredentialsDirName)
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
		},
		Browser: BrowserConfig{
			ShowHiddenFiles: constants.DefaultShowHiddenFiles,
			Sort: SortConfig{
				SortBy:    constants.DefaultSortBy,
				SortOrder: constants.DefaultSortOrder,
			},
			SelectionMode: constants.DefaultSelectionMode,
			NavigationHistory: NavigationHistoryConfig{
				MaxEntries: 50,
				Entries:    make([]string, 0),
				LastUsed:   make(map[string]time.Time),
			},
		},
		Network: NetworkConfig{
			DialTimeoutSeconds: int(constants.DialTimeout / time.Second),
			Workers:            4,
		},
		Credentials: CredentialsConfig{
			Persist: true,
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}

// getConfigPath returns the path to the configuration file following OS conventions
func getConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\vfsnav\config.json
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, constants.ConfigVendorDir)

	case "darwin":
		// macOS: ~/Library/Application Support/vfsnav/config.json
		home, err := os.UserHomeDir()
		if err != nil {
			return constants.ConfigFileName
		}
		configDir = filepath.Join(home, "Library", "Application Support", constants.ConfigVendorDir)

	default:
		// Linux/Unix: $XDG_CONFIG_HOME/vfsnav/config.json or ~/.config/vfsnav/config.json
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			xdgConfigHome = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(xdgConfigHome, constants.ConfigVendorDir)
	}

	return filepath.Join(configDir, constants.ConfigFileName)
}

// mergeConfigs merges file config values into default config
func mergeConfigs(defaultConfig *Config, fileConfig *Config) {
	// Merge Window config
	if fileConfig.Window.Width != 0 {
		defaultConfig.Window.Width = fileConfig.Window.Width
	}
	if fileConfig.Window.Height != 0 {
		defaultConfig.Window.Height = fileConfig.Window.Height
	}

	// Merge Browser config
	// Note: for bool values, we can't distinguish between false and unset, so we always use file value
	b, fb := &defaultConfig.Browser, &fileConfig.Browser
	if fb.StartURL != "" {
		b.StartURL = fb.StartURL
	}
	b.ShowHiddenFiles = fb.ShowHiddenFiles
	b.MultiSelect = fb.MultiSelect
	b.SkipLinkCheck = fb.SkipLinkCheck
	if fb.Sort.SortBy != "" {
		b.Sort.SortBy = fb.Sort.SortBy
	}
	if fb.Sort.SortOrder != "" {
		b.Sort.SortOrder = fb.Sort.SortOrder
	}
	if fb.SelectionMode != "" {
		b.SelectionMode = fb.SelectionMode
	}
	if fb.NavigationHistory.MaxEntries != 0 {
		b.NavigationHistory.MaxEntries = fb.NavigationHistory.MaxEntries
	}
	if fb.NavigationHistory.Entries != nil {
		b.NavigationHistory.Entries = fb.NavigationHistory.Entries
	}
	if fb.NavigationHistory.LastUsed != nil {
		b.NavigationHistory.LastUsed = fb.NavigationHistory.LastUsed
	}

	// Merge Network config
	if fileConfig.Network.DialTimeoutSeconds != 0 {
		defaultConfig.Network.DialTimeoutSeconds = fileConfig.Network.DialTimeoutSeconds
	}
	if fileConfig.Network.KnownHostsFile != "" {
		defaultConfig.Network.KnownHostsFile = fileConfig.Network.KnownHostsFile
	}
	if fileConfig.Network.Workers != 0 {
		defaultConfig.Network.Workers = fileConfig.Network.Workers
	}

	// Merge Credentials config
	defaultConfig.Credentials.Persist = fileConfig.Credentials.Persist
	if fileConfig.Credentials.Dir != "" {
		defaultConfig.Credentials.Dir = fileConfig.Credentials.Dir
	}

	// Merge Favorites config
	if fileConfig.Favorites.File != "" {
		defaultConfig.Favorites.File = fileConfig.Favorites.File
	}
	if fileConfig.Favorites.BookmarksFile != "" {
		defaultConfig.Favorites.BookmarksFile = fileConfig.Favorites.BookmarksFile
	}

	// Merge Logging config
	if fileConfig.Logging.Level != "" {
		defaultConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.File != "" {
		defaultConfig.Logging.File = fileConfig.Logging.File
	}
}

// AddToNavigationHistory adds a URL to navigation history
func (c *Config) AddToNavigationHistory(url string) {
	h := &c.Browser.NavigationHistory
	if h.LastUsed == nil {
		h.LastUsed = make(map[string]time.Time)
	}

	// Remove existing entries for the same location
	kept := h.Entries[:0]
	for _, entry := range h.Entries {
		if fileinfo.SameLocation(entry, url) {
			delete(h.LastUsed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	h.Entries = kept

	// Add to beginning of slice (newest first)
	h.Entries = append([]string{url}, h.Entries...)
	h.LastUsed[url] = time.Now()

	// Enforce max entries limit
	if h.MaxEntries > 0 && len(h.Entries) > h.MaxEntries {
		for _, dropped := range h.Entries[h.MaxEntries:] {
			delete(h.LastUsed, dropped)
		}
		h.Entries = h.Entries[:h.MaxEntries]
	}
}

// FilterNavigationHistory filters history entries by query (case-insensitive partial match)
func (c *Config) FilterNavigationHistory(query string) []string {
	if query == "" {
		return c.Browser.NavigationHistory.Entries
	}

	query = strings.ToLower(query)
	var filtered []string
	for _, url := range c.Browser.NavigationHistory.Entries {
		if strings.Contains(strings.ToLower(url), query) {
			filtered = append(filtered, url)
		}
	}
	return filtered
}
