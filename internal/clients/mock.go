package clients

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"reeler/internal/domain"
)

// MockClient is an in-memory download client used in tests and for running
// the daemon without a real client attached. Submitted releases start
// downloading immediately and can be advanced by hand.
type MockClient struct {
	mu        sync.Mutex
	name      string
	items     []domain.RemoteItem
	deleted   []string
	submitted []domain.RemoteRelease

	// Failure injection
	FailList   bool
	FailDelete bool
	FailSubmit bool
}

// NewMockClient creates a mock client with the given name.
func NewMockClient(name string) *MockClient {
	return &MockClient{name: name}
}

func (c *MockClient) Name() string {
	return c.name
}

// SetItems replaces the snapshot the client will report.
func (c *MockClient) SetItems(items []domain.RemoteItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]domain.RemoteItem(nil), items...)
}

// Deleted returns the ids passed to DeleteItem, in order.
func (c *MockClient) Deleted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

// Submitted returns the releases passed to Submit, in order.
func (c *MockClient) Submitted() []domain.RemoteRelease {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.RemoteRelease(nil), c.submitted...)
}

func (c *MockClient) ListItems(ctx context.Context) ([]domain.RemoteItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailList {
		return nil, errors.New("mock list failure")
	}
	return append([]domain.RemoteItem(nil), c.items...), nil
}

func (c *MockClient) DeleteItem(ctx context.Context, id string, deleteFiles bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	if c.FailDelete {
		return errors.New("mock delete failure")
	}
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	return nil
}

func (c *MockClient) Submit(ctx context.Context, release domain.RemoteRelease) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSubmit {
		return "", errors.New("mock submit failure")
	}
	c.submitted = append(c.submitted, release)
	id := uuid.New().String()
	c.items = append(c.items, domain.RemoteItem{
		ID:     id,
		Title:  release.Title,
		Status: domain.RemoteDownloading,
	})
	return id, nil
}
