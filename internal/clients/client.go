// Package clients defines the download client adapter boundary and the
// manager/poller that drive it.
package clients

import (
	"context"
	"errors"

	"reeler/internal/domain"
)

// ErrClientGone is returned when an action references a download client that
// is no longer registered (removed from configuration).
var ErrClientGone = errors.New("download client not registered")

// ErrNoClients is returned when a submission has nowhere to go.
var ErrNoClients = errors.New("no download clients registered")

// DownloadClient is the integration point to one external download client's
// native protocol. Implementations normalize their client's vocabulary into
// RemoteItem snapshots.
type DownloadClient interface {
	Name() string

	// ListItems returns a snapshot of the client's current download items.
	ListItems(ctx context.Context) ([]domain.RemoteItem, error)

	// DeleteItem removes the remote item, deleting downloaded files when
	// requested.
	DeleteItem(ctx context.Context, id string, deleteFiles bool) error

	// Submit sends a release to the client and returns the client-assigned
	// download id.
	Submit(ctx context.Context, release domain.RemoteRelease) (string, error)
}
