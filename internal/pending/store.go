// Package pending holds releases selected by automation but deliberately not
// yet sent to a download client.
package pending

import (
	"sort"
	"sync"
	"time"

	"reeler/internal/domain"
	"reeler/internal/logger"
)

// Store owns all PendingRelease entries. Ids are allocated monotonically and
// never reissued to a different release within a process instance.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	releases map[int64]*domain.PendingRelease
	log      *logger.Logger
}

// NewStore creates an empty pending release store.
func NewStore(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		nextID:   1,
		releases: make(map[int64]*domain.PendingRelease),
		log:      log.WithComponent("pending"),
	}
}

// Add inserts a release with the given hold reason and returns the stored
// entry.
func (s *Store) Add(release domain.RemoteRelease, reason domain.PendingReason) *domain.PendingRelease {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &domain.PendingRelease{
		ID:      s.nextID,
		Release: release,
		Reason:  reason,
		Added:   time.Now(),
	}
	s.nextID++
	s.releases[p.ID] = p

	s.log.Info("Pending release added", "pending_id", p.ID, "title", release.Title, "reason", reason)
	return copyRelease(p)
}

// Find returns the pending release with the given id, or nil.
func (s *Store) Find(id int64) *domain.PendingRelease {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.releases[id]
	if !ok {
		return nil
	}
	return copyRelease(p)
}

// All returns every pending release in insertion order.
func (s *Store) All() []domain.PendingRelease {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PendingRelease, 0, len(s.releases))
	for _, p := range s.releases {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove deletes the given ids. Used both for direct user deletion and for
// promotion when a pending release is grabbed. Unknown ids are ignored.
func (s *Store) Remove(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.releases[id]; ok {
			delete(s.releases, id)
			s.log.Info("Pending release removed", "pending_id", id)
		}
	}
}

func copyRelease(p *domain.PendingRelease) *domain.PendingRelease {
	c := *p
	return &c
}
