package clients

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"reeler/internal/domain"
	"reeler/internal/logger"
)

// Manager holds the registered download client adapters by id.
type Manager struct {
	mu      sync.RWMutex
	clients map[int]DownloadClient
	log     *logger.Logger
}

// NewManager creates an empty client manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		clients: make(map[int]DownloadClient),
		log:     log.WithComponent("clients"),
	}
}

// Register adds or replaces the client with the given id.
func (m *Manager) Register(id int, client DownloadClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = client
	m.log.Info("Download client registered", "client_id", id, "name", client.Name())
}

// Unregister removes the client with the given id.
func (m *Manager) Unregister(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, id)
	m.log.Info("Download client unregistered", "client_id", id)
}

// Get returns the client with the given id, or ErrClientGone.
func (m *Manager) Get(id int) (DownloadClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %d", ErrClientGone, id)
	}
	return client, nil
}

// IDs returns the registered client ids in ascending order.
func (m *Manager) IDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Submit routes a release to its preferred client, falling back to the
// lowest-id registered client. It returns the chosen client id and the
// client-assigned download id.
func (m *Manager) Submit(ctx context.Context, release domain.RemoteRelease) (int, string, error) {
	clientID := release.ClientID
	if clientID != 0 {
		client, err := m.Get(clientID)
		if err != nil {
			return 0, "", err
		}
		downloadID, err := client.Submit(ctx, release)
		if err != nil {
			return 0, "", fmt.Errorf("submit to client %d: %w", clientID, err)
		}
		return clientID, downloadID, nil
	}

	ids := m.IDs()
	if len(ids) == 0 {
		return 0, "", ErrNoClients
	}
	clientID = ids[0]
	client, err := m.Get(clientID)
	if err != nil {
		return 0, "", err
	}
	downloadID, err := client.Submit(ctx, release)
	if err != nil {
		return 0, "", fmt.Errorf("submit to client %d: %w", clientID, err)
	}
	return clientID, downloadID, nil
}
