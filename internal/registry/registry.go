// Package registry owns the state machine for actively-tracked remote
// downloads. It consumes adapter snapshots and import results, keeping one
// internal lifecycle state per download that is independent of each client's
// own status vocabulary.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reeler/internal/constants"
	"reeler/internal/domain"
	"reeler/internal/logger"
	"reeler/internal/matcher"
)

// TrackIndex is the read-only library lookup used to resolve imported file
// titles to catalog tracks.
type TrackIndex interface {
	TracksForAlbum(ctx context.Context, artistID, albumID string) ([]domain.Track, error)
}

// PendingRemover deletes pending releases once their grab is observed as a
// tracked download. Implemented by pending.Store.
type PendingRemover interface {
	Remove(ids ...int64)
}

// grab is a submission the registry has been told about but whose download no
// client snapshot has reported yet.
type grab struct {
	release   domain.RemoteRelease
	pendingID int64
}

// Registry is the single owner of TrackedDownload entries. All mutation goes
// through its mutex; no network or database call happens while it is held.
type Registry struct {
	mu     sync.Mutex
	items  map[string]*domain.TrackedDownload
	misses map[string]int
	// grabs maps download ids announced by a successful submission to the
	// release that originated them, so the entry created by the next snapshot
	// carries the right metadata. The registry never creates entries from a
	// grab alone.
	grabs map[string]grab

	index   TrackIndex
	pending PendingRemover
	log     *logger.Logger
}

// New creates an empty registry backed by the given library index.
func New(index TrackIndex, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{
		items:  make(map[string]*domain.TrackedDownload),
		misses: make(map[string]int),
		grabs:  make(map[string]grab),
		index:  index,
		log:    log.WithComponent("registry"),
	}
}

// SetPendingRemover wires the pending release store so entries are promoted
// away once their grabbed download shows up in a snapshot.
func (r *Registry) SetPendingRemover(p PendingRemover) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = p
}

// Find returns a copy of the tracked download with the given client-assigned
// id, or nil when it is not tracked.
func (r *Registry) Find(downloadID string) *domain.TrackedDownload {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.items[downloadID]
	if !ok {
		return nil
	}
	return copyTracked(td)
}

// All returns copies of every tracked download, most recently updated first.
func (r *Registry) All() []domain.TrackedDownload {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.TrackedDownload, 0, len(r.items))
	for _, td := range r.items {
		out = append(out, *copyTracked(td))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// StopTracking removes the entry regardless of state. Calling it for an
// absent id is a no-op, not an error.
func (r *Registry) StopTracking(downloadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[downloadID]; !ok {
		return
	}
	delete(r.items, downloadID)
	delete(r.misses, downloadID)
	r.log.Info("Stopped tracking download", "download_id", downloadID)
}

// RecordGrab remembers the release that originated a freshly-submitted
// download so the entry created by the next snapshot carries its metadata.
// pendingID names the pending release the submission promotes; zero means the
// grab did not come from the pending store.
func (r *Registry) RecordGrab(downloadID string, release domain.RemoteRelease, pendingID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grabs[downloadID] = grab{release: release, pendingID: pendingID}
}

// OnSnapshot reconciles one client's reported items against the registry.
// Unseen ids create new entries; known ids update state and progress. Items
// previously tracked by this client but absent from two consecutive snapshots
// flip to Warning rather than being evicted, tolerating transient polling
// gaps. A reported item that consumes a recorded grab promotes its pending
// release out of the pending store.
func (r *Registry) OnSnapshot(clientID int, items []domain.RemoteItem) {
	now := time.Now()

	r.mu.Lock()

	var promoted []int64
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.ID] = struct{}{}
		if pendingID := r.applyItem(clientID, item, now); pendingID != 0 {
			promoted = append(promoted, pendingID)
		}
	}

	for id, td := range r.items {
		if td.ClientID != clientID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		r.misses[id]++
		if r.misses[id] >= constants.SnapshotMissThreshold && !td.Terminal() && td.Status != domain.StatusWarning {
			td.Status = domain.StatusWarning
			td.StatusMessages = append(td.StatusMessages, domain.StatusMessage{
				Message: "download no longer reported by client, possibly removed",
			})
			td.UpdatedAt = now
			r.log.Warn("Tracked download missing from snapshots", "download_id", id, "client_id", clientID)
		}
	}

	pending := r.pending
	r.mu.Unlock()

	if pending != nil && len(promoted) > 0 {
		pending.Remove(promoted...)
	}
}

// applyItem creates or updates the entry for one reported item. It returns
// the pending release id the item promotes, or zero.
func (r *Registry) applyItem(clientID int, item domain.RemoteItem, now time.Time) int64 {
	r.misses[item.ID] = 0

	var promoted int64
	td, ok := r.items[item.ID]
	if !ok {
		var release domain.RemoteRelease
		g, grabbed := r.grabs[item.ID]
		if grabbed {
			delete(r.grabs, item.ID)
			release = g.release
			promoted = g.pendingID
		} else {
			release = domain.RemoteRelease{Title: item.Title}
		}
		td = &domain.TrackedDownload{
			DownloadID: item.ID,
			ClientID:   clientID,
			Status:     domain.StatusDownloading,
			Release:    release,
			CreatedAt:  now,
		}
		r.items[item.ID] = td
		r.log.Info("Tracking new download", "download_id", item.ID, "client_id", clientID, "title", release.Title)
	}

	td.RemoteStatus = item.Status
	td.Progress = item.Progress
	if item.OutputPath != "" {
		td.OutputPath = item.OutputPath
	}
	td.UpdatedAt = now

	switch item.Status {
	case domain.RemoteFailed:
		switch td.Status {
		case domain.StatusFailedPending:
			td.Status = domain.StatusFailed
			td.StatusMessages = append(td.StatusMessages, domain.StatusMessage{
				Message: "download failed permanently",
			})
			r.log.Warn("Download failed", "download_id", item.ID)
		case domain.StatusFailed, domain.StatusImported:
			// terminal, leave alone
		default:
			td.Status = domain.StatusFailedPending
		}
	case domain.RemoteDownloading, domain.RemoteQueued, domain.RemotePaused, domain.RemoteCompleted:
		// A reappearing or recovering item returns to plain tracking.
		if td.Status == domain.StatusWarning || td.Status == domain.StatusFailedPending {
			td.Status = domain.StatusDownloading
		}
	}

	return promoted
}

// Completed returns copies of downloads whose client reports them finished
// but which have not reached a terminal internal state yet. The import
// pipeline drains this set.
func (r *Registry) Completed() []domain.TrackedDownload {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.TrackedDownload
	for _, td := range r.items {
		if td.RemoteStatus == domain.RemoteCompleted && !td.Terminal() {
			out = append(out, *copyTracked(td))
		}
	}
	return out
}

// OnImportResult records the outcome of importing one output file of a
// download. On success the Title Matcher resolves the file against the
// release's album tracks; an unresolved file is flagged for manual attention
// but still counts as imported. The library lookup happens before the
// registry lock is taken.
func (r *Registry) OnImportResult(ctx context.Context, downloadID, outputFile, title string, importErr error) {
	release, tracked := r.releaseFor(downloadID)
	if !tracked {
		r.log.Warn("Import result for untracked download", "download_id", downloadID, "file", outputFile)
		return
	}

	var match *domain.Track
	if importErr == nil {
		candidates := r.lookupTracks(ctx, release)
		match = matcher.FindByTitle(title, candidates)
		if match == nil && title != release.Title {
			// Fall back to the full release title for single-file releases.
			match = matcher.FindByTitle(release.Title, candidates)
		}
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.items[downloadID]
	if !ok {
		return
	}
	td.UpdatedAt = now

	if importErr != nil {
		td.StatusMessages = append(td.StatusMessages, domain.StatusMessage{
			File:    outputFile,
			Message: fmt.Sprintf("import failed: %v", importErr),
		})
		if !td.Terminal() {
			td.Status = domain.StatusWarning
		}
		r.log.Warn("Import failed", "download_id", downloadID, "file", outputFile, "error", importErr)
		return
	}

	imported := domain.ImportedFile{Path: outputFile, Title: title}
	if match != nil {
		imported.TrackID = match.ID
	} else {
		td.StatusMessages = append(td.StatusMessages, domain.StatusMessage{
			File:    outputFile,
			Message: "no matching track found, manual resolution required",
		})
	}
	td.ImportedFiles = append(td.ImportedFiles, imported)
	td.Status = domain.StatusImported
	r.log.Info("File imported", "download_id", downloadID, "file", outputFile, "track_id", imported.TrackID)
}

func (r *Registry) releaseFor(downloadID string) (domain.RemoteRelease, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	td, ok := r.items[downloadID]
	if !ok {
		return domain.RemoteRelease{}, false
	}
	return td.Release, true
}

func (r *Registry) lookupTracks(ctx context.Context, release domain.RemoteRelease) []domain.Track {
	if r.index == nil || release.ArtistID == "" || release.AlbumID == "" {
		return nil
	}
	tracks, err := r.index.TracksForAlbum(ctx, release.ArtistID, release.AlbumID)
	if err != nil {
		r.log.Warn("Library lookup failed", "artist_id", release.ArtistID, "album_id", release.AlbumID, "error", err)
		return nil
	}
	return tracks
}

func copyTracked(td *domain.TrackedDownload) *domain.TrackedDownload {
	c := *td
	c.StatusMessages = append([]domain.StatusMessage(nil), td.StatusMessages...)
	c.ImportedFiles = append([]domain.ImportedFile(nil), td.ImportedFiles...)
	return &c
}
