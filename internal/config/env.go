package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"vfsnav/internal/constants"
	apperrors "vfsnav/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VFSNAV_"

// applyEnv reads the optional .env file next to the config and then the
// process environment; the process environment wins.
func (m *Manager) applyEnv(config *Config) error {
	vars := map[string]string{}
	envFile := filepath.Join(m.Dir(), constants.EnvFileName)
	if _, err := os.Stat(envFile); err == nil {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return apperrors.NewConfigError("load", "error parsing "+constants.EnvFileName, err)
		}
		vars = fileVars
	}
	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			return v, true
		}
		v, ok := vars[EnvPrefix+name]
		return v, ok
	}
	return applyOverrides(config, lookup)
}

func applyOverrides(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.NewConfigError("env", fmt.Sprintf("%s%s must be a boolean", EnvPrefix, name), err)
		}
		*dst = b
		return nil
	}

	str("START_URL", &config.Browser.StartURL)
	str("SORT_BY", &config.Browser.Sort.SortBy)
	str("SORT_ORDER", &config.Browser.Sort.SortOrder)
	str("SELECTION_MODE", &config.Browser.SelectionMode)
	str("KNOWN_HOSTS", &config.Network.KnownHostsFile)
	str("CREDENTIALS_DIR", &config.Credentials.Dir)
	str("FAVORITES_FILE", &config.Favorites.File)
	str("BOOKMARKS_FILE", &config.Favorites.BookmarksFile)
	str("LOG_LEVEL", &config.Logging.Level)
	str("LOG_FILE", &config.Logging.File)

	for name, dst := range map[string]*bool{
		"SHOW_HIDDEN":         &config.Browser.ShowHiddenFiles,
		"MULTI_SELECT":        &config.Browser.MultiSelect,
		"SKIP_LINK_CHECK":     &config.Browser.SkipLinkCheck,
		"PERSIST_CREDENTIALS": &config.Credentials.Persist,
	} {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("DIAL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			secs, serr := strconv.Atoi(v)
			if serr != nil {
				return apperrors.NewConfigError("env", EnvPrefix+"DIAL_TIMEOUT must be a duration", err)
			}
			d = time.Duration(secs) * time.Second
		}
		config.Network.DialTimeoutSeconds = int(d / time.Second)
	}
	return nil
}
