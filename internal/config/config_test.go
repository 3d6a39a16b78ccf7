package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func dummyDebugPrint(format string, args ...interface{}) {}

func TestGetDefaultConfig(t *testing.T) {
	config := getDefaultConfig()

	if config.Window.Width != 800 || config.Window.Height != 600 {
		t.Errorf("Expected default window 800x600, got %dx%d", config.Window.Width, config.Window.Height)
	}
	if config.Browser.ShowHiddenFiles {
		t.Error("Expected ShowHiddenFiles to be false by default")
	}
	if config.Browser.Sort.SortBy != "name" {
		t.Errorf("Expected default sort by 'name', got '%s'", config.Browser.Sort.SortBy)
	}
	if config.Browser.Sort.SortOrder != "asc" {
		t.Errorf("Expected default sort order 'asc', got '%s'", config.Browser.Sort.SortOrder)
	}
	if config.Browser.SelectionMode != "files_only" {
		t.Errorf("Expected default selection mode 'files_only', got '%s'", config.Browser.SelectionMode)
	}
	if config.Browser.NavigationHistory.MaxEntries != 50 {
		t.Errorf("Expected default navigation history max entries 50, got %d", config.Browser.NavigationHistory.MaxEntries)
	}
	if config.Network.DialTimeout() != 10*time.Second {
		t.Errorf("Expected default dial timeout 10s, got %v", config.Network.DialTimeout())
	}
	if !config.Credentials.Persist {
		t.Error("Expected credentials to persist by default")
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", config.Logging.Level)
	}
}

func TestMergeConfigs(t *testing.T) {
	defaultConfig := getDefaultConfig()
	fileConfig := &Config{
		Window: WindowConfig{Width: 1024},
		Browser: BrowserConfig{
			StartURL:        "sftp://h/var/log",
			ShowHiddenFiles: true,
			Sort:            SortConfig{SortBy: "size"},
			SelectionMode:   "dirs_only",
		},
		Network:     NetworkConfig{KnownHostsFile: "/home/me/.ssh/known_hosts"},
		Credentials: CredentialsConfig{Persist: false},
		Logging:     LoggingConfig{Level: "debug"},
	}

	mergeConfigs(defaultConfig, fileConfig)

	if defaultConfig.Window.Width != 1024 || defaultConfig.Window.Height != 600 {
		t.Errorf("Window merge mismatch: %+v", defaultConfig.Window)
	}
	if defaultConfig.Browser.StartURL != "sftp://h/var/log" || !defaultConfig.Browser.ShowHiddenFiles {
		t.Errorf("Browser merge mismatch: %+v", defaultConfig.Browser)
	}
	if defaultConfig.Browser.Sort.SortBy != "size" || defaultConfig.Browser.Sort.SortOrder != "asc" {
		t.Errorf("Sort merge mismatch: %+v", defaultConfig.Browser.Sort)
	}
	if defaultConfig.Browser.SelectionMode != "dirs_only" {
		t.Errorf("Expected merged selection mode, got %q", defaultConfig.Browser.SelectionMode)
	}
	if defaultConfig.Network.DialTimeoutSeconds != 10 || defaultConfig.Network.Workers != 4 {
		t.Errorf("Network defaults lost: %+v", defaultConfig.Network)
	}
	if defaultConfig.Credentials.Persist {
		t.Error("Expected merged Persist to be false")
	}
	if defaultConfig.Logging.Level != "debug" {
		t.Errorf("Expected merged log level 'debug', got %q", defaultConfig.Logging.Level)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := getConfigPath()
	if path == "" {
		t.Error("Config path should not be empty")
	}
	if !strings.HasSuffix(path, "config.json") {
		t.Errorf("Config path should end with 'config.json', got '%s'", path)
	}
}

func TestManagerLoadNonExistentFile(t *testing.T) {
	manager := NewManagerWithPath(filepath.Join(t.TempDir(), "missing", "config.json"), dummyDebugPrint)

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("Load should not return error for non-existent file, got: %v", err)
	}
	if config.Window.Width != 800 {
		t.Errorf("Should return default config with width 800, got %d", config.Window.Width)
	}
	if config.Favorites.File != filepath.Join(manager.Dir(), "favorites.properties") {
		t.Errorf("favorites file should default next to the config, got %q", config.Favorites.File)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")
	var manager ManagerInterface = NewManagerWithPath(configPath, dummyDebugPrint)

	testConfig := getDefaultConfig()
	testConfig.Window.Width = 1200
	testConfig.Browser.ShowHiddenFiles = true
	testConfig.Browser.Sort = SortConfig{SortBy: "modified", SortOrder: "desc"}
	testConfig.AddToNavigationHistory("file:///tmp")

	if err := manager.Save(testConfig); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedConfig, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loadedConfig.Window.Width != 1200 {
		t.Errorf("Expected loaded width 1200, got %d", loadedConfig.Window.Width)
	}
	if !loadedConfig.Browser.ShowHiddenFiles {
		t.Error("Expected loaded ShowHiddenFiles to be true")
	}
	if loadedConfig.Browser.Sort.SortOrder != "desc" {
		t.Errorf("Expected loaded sort order 'desc', got %q", loadedConfig.Browser.Sort.SortOrder)
	}
	if h := loadedConfig.Browser.NavigationHistory.Entries; len(h) != 1 || h[0] != "file:///tmp" {
		t.Errorf("history not preserved: %v", h)
	}
}

func TestManagerLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManagerWithPath(configPath, dummyDebugPrint).Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	dotenv := "VFSNAV_SORT_BY=size\nVFSNAV_SHOW_HIDDEN=true\nVFSNAV_LOG_LEVEL=warn\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VFSNAV_LOG_LEVEL", "debug")
	t.Setenv("VFSNAV_DIAL_TIMEOUT", "3s")

	config, err := NewManagerWithPath(configPath, dummyDebugPrint).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Browser.Sort.SortBy != "size" {
		t.Errorf(".env override not applied: %q", config.Browser.Sort.SortBy)
	}
	if !config.Browser.ShowHiddenFiles {
		t.Error(".env boolean override not applied")
	}
	if config.Logging.Level != "debug" {
		t.Errorf("process environment should win over .env, got %q", config.Logging.Level)
	}
	if config.Network.DialTimeout() != 3*time.Second {
		t.Errorf("dial timeout override = %v", config.Network.DialTimeout())
	}
}

func TestEnvOverrideInvalidBool(t *testing.T) {
	config := getDefaultConfig()
	err := applyOverrides(config, func(name string) (string, bool) {
		if name == "SKIP_LINK_CHECK" {
			return "maybe", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("expected an error for a non-boolean value")
	}
}

func TestNavigationHistory(t *testing.T) {
	config := getDefaultConfig()
	config.Browser.NavigationHistory.MaxEntries = 2

	config.AddToNavigationHistory("sftp://h/a")
	config.AddToNavigationHistory("file:///tmp")
	config.AddToNavigationHistory("sftp://h/a")
	config.AddToNavigationHistory("ftp://mirror/pub")

	got := config.Browser.NavigationHistory.Entries
	if len(got) != 2 || got[0] != "ftp://mirror/pub" || got[1] != "sftp://h/a" {
		t.Fatalf("history = %v", got)
	}
	if _, ok := config.Browser.NavigationHistory.LastUsed["file:///tmp"]; ok {
		t.Error("dropped entry should leave LastUsed")
	}
	if f := config.FilterNavigationHistory("SFTP"); len(f) != 1 || f[0] != "sftp://h/a" {
		t.Errorf("filter = %v", f)
	}

	config.AddToNavigationHistory("sftp://h/a/")
	got = config.Browser.NavigationHistory.Entries
	if len(got) != 2 || got[0] != "sftp://h/a/" || got[1] != "ftp://mirror/pub" {
		t.Errorf("same location should replace the old entry: %v", got)
	}
}
