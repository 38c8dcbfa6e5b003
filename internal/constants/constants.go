// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort          = "8686"
	DefaultDBPath        = "reeler.db"
	DefaultPollInterval  = 15 * time.Second
	DefaultClientTimeout = 30 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Queue behavior
const (
	// SnapshotMissThreshold is how many consecutive client snapshots may omit a
	// tracked download before it is flagged as possibly removed.
	SnapshotMissThreshold = 2

	MaxHistoryItems   = 50
	MaxBlacklistItems = 200
)

// History event types
const (
	EventGrabbed      = "grabbed"
	EventRemoved      = "removed"
	EventImported     = "imported"
	EventImportFailed = "import_failed"
)

// Audio file extensions the importer recognizes.
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtM4A  = ".m4a"
)
