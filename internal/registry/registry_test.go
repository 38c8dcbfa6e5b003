package registry

import (
	"context"
	"errors"
	"testing"

	"reeler/internal/domain"
	"reeler/internal/logger"
)

type fakeIndex struct {
	tracks []domain.Track
	err    error
	calls  int
}

func (f *fakeIndex) TracksForAlbum(ctx context.Context, artistID, albumID string) ([]domain.Track, error) {
	f.calls++
	return f.tracks, f.err
}

func newTestRegistry(index TrackIndex) *Registry {
	return New(index, logger.Default())
}

func snapshotItem(id string, status domain.RemoteStatus) domain.RemoteItem {
	return domain.RemoteItem{ID: id, Title: "Artist - Album", Status: status, Progress: 0.5}
}

func TestOnSnapshotCreatesTracking(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	td := r.Find("dl-1")
	if td == nil {
		t.Fatal("Expected download to be tracked")
	}
	if td.Status != domain.StatusDownloading {
		t.Errorf("Expected status downloading, got %s", td.Status)
	}
	if td.ClientID != 1 {
		t.Errorf("Expected client id 1, got %d", td.ClientID)
	}
	if td.Release.Title != "Artist - Album" {
		t.Errorf("Expected release title from item, got %q", td.Release.Title)
	}
}

func TestMissingFromTwoSnapshotsFlagsWarning(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	// One empty snapshot: still plain downloading.
	r.OnSnapshot(1, nil)
	if td := r.Find("dl-1"); td.Status != domain.StatusDownloading {
		t.Errorf("Expected downloading after one miss, got %s", td.Status)
	}

	// Second consecutive miss flips to Warning, not eviction.
	r.OnSnapshot(1, nil)
	td := r.Find("dl-1")
	if td == nil {
		t.Fatal("Expected download to still be tracked")
	}
	if td.Status != domain.StatusWarning {
		t.Errorf("Expected warning after two misses, got %s", td.Status)
	}
	if len(td.StatusMessages) == 0 {
		t.Error("Expected a status message explaining the warning")
	}
}

func TestReappearingItemClearsWarning(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})
	r.OnSnapshot(1, nil)
	r.OnSnapshot(1, nil)
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	if td := r.Find("dl-1"); td.Status != domain.StatusDownloading {
		t.Errorf("Expected warning to clear on reappearance, got %s", td.Status)
	}
}

func TestOtherClientsSnapshotsDoNotCountAsMisses(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})
	r.OnSnapshot(2, nil)
	r.OnSnapshot(2, nil)

	if td := r.Find("dl-1"); td.Status != domain.StatusDownloading {
		t.Errorf("Expected another client's snapshots to be ignored, got %s", td.Status)
	}
}

func TestFailedStateProgression(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteFailed)})
	if td := r.Find("dl-1"); td.Status != domain.StatusFailedPending {
		t.Errorf("Expected failedPending on first failure, got %s", td.Status)
	}

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteFailed)})
	if td := r.Find("dl-1"); td.Status != domain.StatusFailed {
		t.Errorf("Expected failed on confirmed failure, got %s", td.Status)
	}
}

func TestFailedPendingRecovers(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteFailed)})
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	if td := r.Find("dl-1"); td.Status != domain.StatusDownloading {
		t.Errorf("Expected recovery to downloading, got %s", td.Status)
	}
}

func TestStopTrackingIdempotent(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	r.StopTracking("dl-1")
	if r.Find("dl-1") != nil {
		t.Error("Expected download to be gone after StopTracking")
	}

	// Second call and unknown ids are no-ops.
	r.StopTracking("dl-1")
	r.StopTracking("never-existed")
}

func TestRecordGrabAttachesReleaseMetadata(t *testing.T) {
	r := newTestRegistry(nil)

	release := domain.RemoteRelease{Title: "Artist - Album", ArtistID: "a1", AlbumID: "b1"}
	r.RecordGrab("dl-9", release, 0)

	// The grab alone does not create a tracked download.
	if r.Find("dl-9") != nil {
		t.Fatal("Expected no tracked download before a snapshot reports it")
	}

	r.OnSnapshot(3, []domain.RemoteItem{{ID: "dl-9", Title: "raw.client.title", Status: domain.RemoteDownloading}})

	td := r.Find("dl-9")
	if td == nil {
		t.Fatal("Expected download to be tracked after snapshot")
	}
	if td.Release.ArtistID != "a1" || td.Release.AlbumID != "b1" {
		t.Errorf("Expected grab release metadata, got %+v", td.Release)
	}
}

type fakePendingRemover struct {
	removed []int64
}

func (f *fakePendingRemover) Remove(ids ...int64) {
	f.removed = append(f.removed, ids...)
}

func TestGrabbedSnapshotPromotesPendingRelease(t *testing.T) {
	r := newTestRegistry(nil)
	remover := &fakePendingRemover{}
	r.SetPendingRemover(remover)

	r.RecordGrab("dl-9", domain.RemoteRelease{Title: "Artist - Album"}, 42)
	r.OnSnapshot(1, []domain.RemoteItem{{ID: "dl-9", Status: domain.RemoteDownloading}})

	if len(remover.removed) != 1 || remover.removed[0] != 42 {
		t.Errorf("Expected pending release 42 to be promoted away, got %v", remover.removed)
	}

	// Later snapshots for the same item must not remove it again.
	r.OnSnapshot(1, []domain.RemoteItem{{ID: "dl-9", Status: domain.RemoteDownloading}})
	if len(remover.removed) != 1 {
		t.Errorf("Expected a single promotion, got %v", remover.removed)
	}
}

func TestGrabWithoutPendingDoesNotTouchStore(t *testing.T) {
	r := newTestRegistry(nil)
	remover := &fakePendingRemover{}
	r.SetPendingRemover(remover)

	r.RecordGrab("dl-1", domain.RemoteRelease{Title: "Artist - Album"}, 0)
	r.OnSnapshot(1, []domain.RemoteItem{{ID: "dl-1", Status: domain.RemoteDownloading}})

	if len(remover.removed) != 0 {
		t.Errorf("Expected no pending removal for a direct grab, got %v", remover.removed)
	}
}

func TestCompleted(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{
		snapshotItem("dl-1", domain.RemoteDownloading),
		snapshotItem("dl-2", domain.RemoteCompleted),
	})

	completed := r.Completed()
	if len(completed) != 1 {
		t.Fatalf("Expected 1 completed download, got %d", len(completed))
	}
	if completed[0].DownloadID != "dl-2" {
		t.Errorf("Expected dl-2, got %s", completed[0].DownloadID)
	}
}

func TestOnImportResultMatchesTrack(t *testing.T) {
	index := &fakeIndex{tracks: []domain.Track{
		{ID: 11, Title: "Hello World"},
		{ID: 12, Title: "Hello"},
	}}
	r := newTestRegistry(index)

	r.RecordGrab("dl-1", domain.RemoteRelease{Title: "Artist - Album", ArtistID: "a1", AlbumID: "b1"}, 0)
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteCompleted)})

	r.OnImportResult(context.Background(), "dl-1", "/out/01 Hello World.flac", "01 Hello World", nil)

	td := r.Find("dl-1")
	if td.Status != domain.StatusImported {
		t.Errorf("Expected imported, got %s", td.Status)
	}
	if len(td.ImportedFiles) != 1 {
		t.Fatalf("Expected 1 imported file, got %d", len(td.ImportedFiles))
	}
	if td.ImportedFiles[0].TrackID != 11 {
		t.Errorf("Expected the longer title to win (track 11), got %d", td.ImportedFiles[0].TrackID)
	}
}

func TestOnImportResultNoMatchFlagsManual(t *testing.T) {
	index := &fakeIndex{tracks: []domain.Track{{ID: 11, Title: "Completely Different"}}}
	r := newTestRegistry(index)

	r.RecordGrab("dl-1", domain.RemoteRelease{Title: "Obscure Bootleg", ArtistID: "a1", AlbumID: "b1"}, 0)
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteCompleted)})

	r.OnImportResult(context.Background(), "dl-1", "/out/unknown.flac", "unknown", nil)

	td := r.Find("dl-1")
	if td.Status != domain.StatusImported {
		t.Errorf("Expected imported even without a match, got %s", td.Status)
	}
	if td.ImportedFiles[0].TrackID != 0 {
		t.Errorf("Expected unresolved track id, got %d", td.ImportedFiles[0].TrackID)
	}
	if len(td.StatusMessages) == 0 {
		t.Error("Expected a manual-resolution status message")
	}
}

func TestOnImportResultFailure(t *testing.T) {
	r := newTestRegistry(nil)

	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteCompleted)})
	r.OnImportResult(context.Background(), "dl-1", "/out/broken.flac", "", errors.New("unreadable file"))

	td := r.Find("dl-1")
	if td.Status != domain.StatusWarning {
		t.Errorf("Expected warning after failed import, got %s", td.Status)
	}
	if len(td.StatusMessages) != 1 {
		t.Fatalf("Expected 1 status message, got %d", len(td.StatusMessages))
	}
}

func TestOnImportResultLibraryErrorIsNonFatal(t *testing.T) {
	index := &fakeIndex{err: errors.New("db down")}
	r := newTestRegistry(index)

	r.RecordGrab("dl-1", domain.RemoteRelease{Title: "Artist - Album", ArtistID: "a1", AlbumID: "b1"}, 0)
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteCompleted)})
	r.OnImportResult(context.Background(), "dl-1", "/out/file.flac", "file", nil)

	td := r.Find("dl-1")
	if td.Status != domain.StatusImported {
		t.Errorf("Expected imported despite library error, got %s", td.Status)
	}
}

func TestOnImportResultUntrackedIsNoOp(t *testing.T) {
	index := &fakeIndex{}
	r := newTestRegistry(index)

	r.OnImportResult(context.Background(), "ghost", "/out/file.flac", "file", nil)
	if index.calls != 0 {
		t.Error("Expected no library lookup for untracked download")
	}
}

func TestFindReturnsCopy(t *testing.T) {
	r := newTestRegistry(nil)
	r.OnSnapshot(1, []domain.RemoteItem{snapshotItem("dl-1", domain.RemoteDownloading)})

	td := r.Find("dl-1")
	td.Status = domain.StatusFailed
	td.StatusMessages = append(td.StatusMessages, domain.StatusMessage{Message: "mutated"})

	again := r.Find("dl-1")
	if again.Status != domain.StatusDownloading {
		t.Error("Expected Find to return a copy, registry was mutated")
	}
	if len(again.StatusMessages) != 0 {
		t.Error("Expected status messages to be copied")
	}
}
