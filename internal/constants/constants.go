package constants

import "time"

// Application constants
const (
	ApplicationName  = "vfsnav"
	ApplicationTitle = "VFS Browser"
	ApplicationID    = "io.github.vfsnav"
	ConfigVendorDir  = "vfsnav"
)

// Navigation constants
const (
	// ParentDirectoryName is the base name of the synthetic parent row.
	ParentDirectoryName = ".."

	// CheckingLinksTaskName names the TaskContext created by every navigation.
	CheckingLinksTaskName = "checking links"

	// ProgressPollInterval is the cadence of progress publication and the
	// upper bound for a worker to notice the stop flag.
	ProgressPollInterval = 300 * time.Millisecond

	// LinkProbeConcurrency bounds parallel symlink lookups per listing.
	LinkProbeConcurrency = 4

	// StatusFolderContains is the status line published with every listing.
	StatusFolderContains = "Folder contains %d items"
)

// Quick-search constants
const (
	QuickSearchTimeout = 500 * time.Millisecond
	QuickSearchLetters = "qwertyuiopasdfghjklzxcvbnmQWERTYUIOPASDFGHJKLZXCVBNM"
	QuickSearchDigits  = "0123456789"
	QuickSearchOther   = "!@#$%^&*()-_=+[];:'\",./ "
)

// Directory watcher constants
const (
	WatcherDebounce   = 250 * time.Millisecond
	WatcherBufferSize = 10
)

// VFS constants
const (
	MetadataCacheSize = 4096
	MetadataCacheTTL  = 30 * time.Second
	DialTimeout       = 10 * time.Second
	DefaultSMBPort    = "445"
	DefaultSFTPPort   = "22"
	DefaultFTPPort    = "21"
	HTTPRetryMax      = 3
)

// File size constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"

	// PreviewMaxBytes caps how much of a file `cat` prints.
	PreviewMaxBytes = 150 * 1024
)

// Configuration constants
const (
	ConfigFileName         = "config.json"
	FavoritesFileName      = "favorites.properties"
	CredentialsDirName     = "credentials"
	EnvFileName            = ".env"
	DefaultSortBy          = "name"
	DefaultSortOrder       = "asc"
	DefaultShowHiddenFiles = false
	DefaultSelectionMode   = "files_only"
	DefaultLogLevel        = "info"
	KeyringServiceName     = "vfsnav.credentials"
)
