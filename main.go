package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"

	"vfsnav/internal/auth"
	"vfsnav/internal/config"
	"vfsnav/internal/constants"
	"vfsnav/internal/favorites"
	"vfsnav/internal/jobs"
	"vfsnav/internal/logging"
	"vfsnav/internal/secret"
	"vfsnav/internal/vfs"
)

var (
	// Global flags
	cfgFile   string
	logFile   string
	debugMode bool

	logger        = logging.Nop()
	configManager *config.Manager
	cfg           *config.Config
)

// debugPrint prints debug messages only when debug logging is enabled
func debugPrint(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.ApplicationName,
		Short: "Browse local, SFTP, FTP, SMB, HTTP and archive locations",
		Long: `vfsnav lists and reads files across local disk, sftp://, ftp://, smb://,
http(s):// and archive URLs such as zip:file:///data/logs.zip!/2024.

Credentials are asked for once per server and can be remembered in the
OS keyring.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")

	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newCatCmd())
	rootCmd.AddCommand(newFavoritesCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBrowseCmd())
	return rootCmd
}

// setup loads the configuration and configures logging. Flags win over
// the logging section of the configuration.
func setup() error {
	// bootstrap logger for the config load itself
	if debugMode {
		logger = logging.New(logging.Options{Level: "debug"})
	}

	if cfgFile != "" {
		configManager = config.NewManagerWithPath(cfgFile, debugPrint)
	} else {
		configManager = config.NewManager(debugPrint)
	}
	loaded, err := configManager.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	level, file := cfg.Logging.Level, cfg.Logging.File
	if debugMode {
		level = "debug"
	}
	if logFile != "" {
		file = logFile
	}
	_ = logger.Close()
	logger = logging.New(logging.Options{Level: level, File: file})
	debugPrint("config loaded from %s", configManager.Path())
	return nil
}

func saveConfig() {
	if err := configManager.Save(cfg); err != nil {
		logger.Warnf("saving configuration: %v", err)
	}
}

// session holds the services shared by one command: the worker pool, the
// VFS facade and the credential stores.
type session struct {
	jobs         *jobs.Manager
	fs           *vfs.Manager
	sessionStore *auth.MemoryStore
}

// openSession wires the VFS stack with prompt as the interactive step of
// the authenticator chain.
func openSession(prompt auth.Resolver) (*session, error) {
	sessionStore := auth.NewMemoryStore()
	chain := auth.NewChain(sessionStore, openPersistentStore(), prompt, logger.Component("auth").DebugFunc())

	fs, err := vfs.NewDefault(vfs.DefaultOptions{
		Options: vfs.Options{
			Auth:       chain,
			DebugPrint: logger.Component("vfs").DebugFunc(),
		},
		DialTimeout: cfg.Network.DialTimeout(),
		KnownHosts:  cfg.Network.KnownHostsFile,
	})
	if err != nil {
		return nil, err
	}
	return &session{
		jobs:         jobs.NewManager(cfg.Network.Workers, logger.Component("jobs").DebugFunc()),
		fs:           fs,
		sessionStore: sessionStore,
	}, nil
}

// openPersistentStore opens the keyring selected by the configuration.
// Without one, credentials only live for the session.
func openPersistentStore() auth.Store {
	if !cfg.Credentials.Persist {
		return nil
	}
	dbg := logger.Component("secret").DebugFunc()
	store, err := secret.NewKeyringStore(secret.Options{Dir: cfg.Credentials.Dir, Password: keyring.TerminalPrompt}, dbg)
	if err == nil {
		return store
	}
	if cfg.Credentials.Dir != "" {
		logger.Warnf("credential store unavailable: %v", err)
		return nil
	}
	logger.Debugf("OS keyring unavailable (%v), using file keyring", err)
	store, err = secret.NewKeyringStore(secret.Options{Dir: configManager.CredentialsFallbackDir(), Password: keyring.TerminalPrompt}, dbg)
	if err != nil {
		logger.Warnf("credential store unavailable: %v", err)
		return nil
	}
	return store
}

func (s *session) Close() {
	s.jobs.Close()
	if err := s.fs.Close(); err != nil {
		debugPrint("closing connections: %v", err)
	}
	s.sessionStore.Clear()
}

func loadFavorites(ctx context.Context) *favorites.Model {
	return favorites.Load(ctx, favorites.Options{
		PropertiesPath: cfg.Favorites.File,
		BookmarksPath:  cfg.Favorites.BookmarksFile,
		DebugPrint:     logger.Component("favorites").DebugFunc(),
	})
}

func printErr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
