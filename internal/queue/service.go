// Package queue merges the tracked download registry and the pending release
// store into one externally-visible queue, and coordinates the user actions
// (remove, grab) that span stores, download clients and the blacklist.
package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"reeler/internal/clients"
	"reeler/internal/constants"
	"reeler/internal/domain"
	"reeler/internal/logger"
	"reeler/internal/matcher"
	"reeler/internal/pending"
	"reeler/internal/registry"
)

// Blacklist marks failed releases so automated search skips them. Implemented
// by store.DB; nil disables blacklisting.
type Blacklist interface {
	MarkFailed(downloadID string, release domain.RemoteRelease) error
}

// History records queue lifecycle events. Implemented by store.DB; nil
// disables recording.
type History interface {
	AddEvent(eventType, downloadID, title, detail string) error
}

// TrackIndex is the read-only library lookup backing FindTrackByTitle.
type TrackIndex interface {
	TracksForAlbum(ctx context.Context, artistID, albumID string) ([]domain.Track, error)
}

// StepResult reports the outcome of one removal step.
type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RemovalResult collects the per-step outcomes of a Remove call.
type RemovalResult struct {
	Steps []StepResult `json:"steps"`
}

func (r *RemovalResult) add(step string, err error) {
	sr := StepResult{Step: step, OK: err == nil}
	if err != nil {
		sr.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)
}

func (r *RemovalResult) failed() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return true
		}
	}
	return false
}

// Service is the queue aggregator and action coordinator. It owns no download
// state of its own; every List call recomputes the projection from the live
// stores.
type Service struct {
	registry  *registry.Registry
	pending   *pending.Store
	manager   *clients.Manager
	blacklist Blacklist
	history   History
	index     TrackIndex
	log       *logger.Logger
}

// New creates the queue service over the given stores.
func New(reg *registry.Registry, pend *pending.Store, manager *clients.Manager, blacklist Blacklist, history History, index TrackIndex, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		registry:  reg,
		pending:   pend,
		manager:   manager,
		blacklist: blacklist,
		history:   history,
		index:     index,
		log:       log.WithComponent("queue"),
	}
}

// List returns the current queue: pending releases first in insertion order,
// then tracked downloads with attention states (warning, failed) ahead of
// healthy ones, most recently updated first within each group.
func (s *Service) List() []domain.QueueItem {
	pendingReleases := s.pending.All()
	tracked := s.registry.All()

	items := make([]domain.QueueItem, 0, len(pendingReleases)+len(tracked))
	for _, p := range pendingReleases {
		items = append(items, pendingItem(p))
	}

	// All() already orders by most recent update; a stable sort layers the
	// state priority on top.
	sort.SliceStable(tracked, func(i, j int) bool {
		return statusPriority(tracked[i].Status) < statusPriority(tracked[j].Status)
	})
	for _, td := range tracked {
		items = append(items, trackedItem(td))
	}
	return items
}

func statusPriority(status domain.DownloadStatus) int {
	switch status {
	case domain.StatusWarning, domain.StatusFailed, domain.StatusFailedPending:
		return 0
	default:
		return 1
	}
}

func pendingItem(p domain.PendingRelease) domain.QueueItem {
	return domain.QueueItem{
		ID:        PendingQueueID(p.ID),
		Source:    domain.SourcePendingRelease,
		Status:    "pending",
		Title:     p.Release.Title,
		PendingID: p.ID,
	}
}

func trackedItem(td domain.TrackedDownload) domain.QueueItem {
	return domain.QueueItem{
		ID:         TrackedQueueID(td.ClientID, td.DownloadID),
		Source:     domain.SourceTrackedDownload,
		Status:     string(td.Status),
		Title:      td.Release.Title,
		Progress:   td.Progress,
		DownloadID: td.DownloadID,
		ClientID:   td.ClientID,
	}
}

// PendingQueueID derives the stable queue id for a pending release.
func PendingQueueID(pendingID int64) int64 {
	return hashID(fmt.Sprintf("p:%d", pendingID))
}

// TrackedQueueID derives the stable queue id for a tracked download.
func TrackedQueueID(clientID int, downloadID string) int64 {
	return hashID(fmt.Sprintf("t:%d:%s", clientID, downloadID))
}

func hashID(key string) int64 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int64(h.Sum32())
}

// Resolve finds the live queue item with the given id, or ErrNotFound.
func (s *Service) Resolve(queueID int64) (domain.QueueItem, error) {
	for _, item := range s.List() {
		if item.ID == queueID {
			return item, nil
		}
	}
	return domain.QueueItem{}, fmt.Errorf("%w: %d", ErrNotFound, queueID)
}

// Remove deletes the queue item with the given id. For a pending release this
// is a plain store removal. For a tracked download it asks the owning client
// to delete the remote item with its files, stops tracking regardless of the
// delete outcome, and optionally blacklists the release. A failed best-effort
// step yields ErrPartialRemoval alongside the per-step results.
func (s *Service) Remove(ctx context.Context, queueID int64, blacklist bool) (*RemovalResult, error) {
	item, err := s.Resolve(queueID)
	if err != nil {
		return nil, err
	}

	result := &RemovalResult{}

	if item.Source == domain.SourcePendingRelease {
		s.pending.Remove(item.PendingID)
		result.add("pending", nil)
		s.recordEvent(constants.EventRemoved, "", item.Title, "pending release removed")
		return result, nil
	}

	client, err := s.manager.Get(item.ClientID)
	if err != nil {
		return nil, err
	}

	td := s.registry.Find(item.DownloadID)
	if td == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, queueID)
	}

	if err := client.DeleteItem(ctx, item.DownloadID, true); err != nil {
		result.add("remote delete", fmt.Errorf("delete from client %d: %w", item.ClientID, err))
		s.log.Warn("Remote delete failed", "download_id", item.DownloadID, "client_id", item.ClientID, "error", err)
	} else {
		result.add("remote delete", nil)
	}

	s.registry.StopTracking(item.DownloadID)
	result.add("stop tracking", nil)

	if blacklist {
		if s.blacklist == nil {
			result.add("blacklist", fmt.Errorf("no blacklist store configured"))
		} else if err := s.blacklist.MarkFailed(item.DownloadID, td.Release); err != nil {
			result.add("blacklist", fmt.Errorf("mark failed: %w", err))
		} else {
			result.add("blacklist", nil)
		}
	}

	s.recordEvent(constants.EventRemoved, item.DownloadID, item.Title, "")
	s.log.Info("Queue item removed", "download_id", item.DownloadID, "blacklist", blacklist)

	if result.failed() {
		return result, ErrPartialRemoval
	}
	return result, nil
}

// Grab submits a pending release to a download client. The pending entry is
// deliberately left in place here; the registry promotes it away once the
// next snapshot reports the new download. Tracked downloads cannot be
// grabbed.
func (s *Service) Grab(ctx context.Context, queueID int64) (string, error) {
	item, err := s.Resolve(queueID)
	if err != nil {
		return "", err
	}
	if item.Source != domain.SourcePendingRelease {
		return "", fmt.Errorf("%w: %d is not a pending release", ErrNotFound, queueID)
	}

	p := s.pending.Find(item.PendingID)
	if p == nil {
		return "", fmt.Errorf("%w: %d", ErrNotFound, queueID)
	}

	clientID, downloadID, err := s.manager.Submit(ctx, p.Release)
	if err != nil {
		return "", err
	}

	s.registry.RecordGrab(downloadID, p.Release, p.ID)
	s.recordEvent(constants.EventGrabbed, downloadID, p.Release.Title, "")
	s.log.Info("Pending release grabbed", "pending_id", p.ID, "download_id", downloadID, "client_id", clientID)
	return downloadID, nil
}

// FindTrackByTitle resolves a free-text release title against an album's
// tracks. A nil track with a nil error means nothing matched.
func (s *Service) FindTrackByTitle(ctx context.Context, artistID, albumID, releaseTitle string) (*domain.Track, error) {
	if s.index == nil {
		return nil, nil
	}
	tracks, err := s.index.TracksForAlbum(ctx, artistID, albumID)
	if err != nil {
		return nil, fmt.Errorf("load album tracks: %w", err)
	}
	return matcher.FindByTitle(releaseTitle, tracks), nil
}

func (s *Service) recordEvent(eventType, downloadID, title, detail string) {
	if s.history == nil {
		return
	}
	if err := s.history.AddEvent(eventType, downloadID, title, detail); err != nil {
		s.log.Warn("Failed to record history event", "type", eventType, "error", err)
	}
}
