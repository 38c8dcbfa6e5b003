package domain

import "time"

// DownloadStatus is the internal lifecycle state of a tracked download,
// independent of any download client's own status vocabulary.
type DownloadStatus string

const (
	StatusDownloading   DownloadStatus = "downloading"
	StatusWarning       DownloadStatus = "warning"
	StatusImported      DownloadStatus = "imported"
	StatusFailedPending DownloadStatus = "failedPending"
	StatusFailed        DownloadStatus = "failed"
)

// RemoteStatus is the normalized status a download client adapter reports for
// one of its items.
type RemoteStatus string

const (
	RemoteQueued      RemoteStatus = "queued"
	RemoteDownloading RemoteStatus = "downloading"
	RemotePaused      RemoteStatus = "paused"
	RemoteCompleted   RemoteStatus = "completed"
	RemoteFailed      RemoteStatus = "failed"
)

// RemoteItem is one download as reported by a client adapter snapshot.
type RemoteItem struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Status     RemoteStatus `json:"status"`
	Progress   float64      `json:"progress"`
	OutputPath string       `json:"output_path"`
}

// RemoteRelease is the parsed release metadata that originated a grab: the
// free-text release title plus the library identifiers the release was
// matched to when it was selected.
type RemoteRelease struct {
	Title    string `json:"title"`
	ArtistID string `json:"artist_id"`
	AlbumID  string `json:"album_id"`
	Indexer  string `json:"indexer,omitempty"`
	// ClientID is the preferred download client for this release; zero means
	// no preference.
	ClientID int `json:"client_id,omitempty"`
}

// StatusMessage is one warning accumulated against a tracked download,
// append-only until the entry is stopped.
type StatusMessage struct {
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// ImportedFile records the library identity resolved for one imported output
// file. TrackID is zero when no track matched and the file needs manual
// attention.
type ImportedFile struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	TrackID int64  `json:"track_id,omitempty"`
}

// TrackedDownload is one remote download item currently or recently known,
// keyed by the client-assigned download id.
type TrackedDownload struct {
	DownloadID     string          `json:"download_id"`
	ClientID       int             `json:"client_id"`
	Status         DownloadStatus  `json:"status"`
	RemoteStatus   RemoteStatus    `json:"remote_status"`
	Release        RemoteRelease   `json:"release"`
	Progress       float64         `json:"progress"`
	OutputPath     string          `json:"output_path,omitempty"`
	StatusMessages []StatusMessage `json:"status_messages,omitempty"`
	ImportedFiles  []ImportedFile  `json:"imported_files,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Terminal reports whether the download reached a final state.
func (t *TrackedDownload) Terminal() bool {
	return t.Status == StatusImported || t.Status == StatusFailed
}

// PendingReason explains why a release is held back instead of grabbed.
type PendingReason string

const (
	ReasonDelay     PendingReason = "delay"
	ReasonDuplicate PendingReason = "alreadyQueued"
)

// PendingRelease is a release chosen by automated search but deliberately not
// yet sent to a download client.
type PendingRelease struct {
	ID      int64         `json:"id"`
	Release RemoteRelease `json:"release"`
	Reason  PendingReason `json:"reason"`
	Added   time.Time     `json:"added"`
}

// QueueSource identifies which store backs a queue item.
type QueueSource string

const (
	SourceTrackedDownload QueueSource = "trackedDownload"
	SourcePendingRelease  QueueSource = "pendingRelease"
)

// QueueItem is the externally-visible, read-only projection of one queue
// entry. The id is derived deterministically from the underlying identity and
// recomputed on every read.
type QueueItem struct {
	ID       int64       `json:"id"`
	Source   QueueSource `json:"source"`
	Status   string      `json:"status"`
	Title    string      `json:"title"`
	Progress float64     `json:"progress"`

	// Back-references for action dispatch; exactly one set is populated.
	DownloadID string `json:"download_id,omitempty"`
	ClientID   int    `json:"client_id,omitempty"`
	PendingID  int64  `json:"pending_id,omitempty"`
}

// Track is a library catalog track, the unit release titles are matched
// against.
type Track struct {
	ID          int64  `json:"id" db:"id"`
	ArtistID    string `json:"artist_id" db:"artist_id"`
	AlbumID     string `json:"album_id" db:"album_id"`
	Title       string `json:"title" db:"title"`
	TrackNumber int    `json:"track_number" db:"track_number"`
	Duration    int    `json:"duration" db:"duration"`
}
