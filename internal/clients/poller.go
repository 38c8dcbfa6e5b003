package clients

import (
	"context"
	"sync"
	"time"

	"reeler/internal/domain"
	"reeler/internal/logger"
)

// SnapshotSink consumes per-client snapshots and exposes the downloads ready
// for import. Implemented by the tracked download registry.
type SnapshotSink interface {
	OnSnapshot(clientID int, items []domain.RemoteItem)
	Completed() []domain.TrackedDownload
}

// ImportHandler receives downloads whose client reports them finished.
type ImportHandler interface {
	Process(ctx context.Context, td domain.TrackedDownload)
}

// Poller runs one polling loop per registered client on independent
// schedules, rescanning the manager so clients registered after Start get a
// loop and unregistered ones lose theirs. A failed poll is logged and retried
// on the next tick; it is never surfaced to callers.
type Poller struct {
	manager  *Manager
	sink     SnapshotSink
	importer ImportHandler
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	loops map[int]context.CancelFunc
}

// NewPoller creates a poller over the manager's registered clients.
func NewPoller(manager *Manager, sink SnapshotSink, importer ImportHandler, interval, timeout time.Duration, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		manager:  manager,
		sink:     sink,
		importer: importer,
		interval: interval,
		timeout:  timeout,
		log:      log.WithComponent("poller"),
		ctx:      ctx,
		cancel:   cancel,
		loops:    make(map[int]context.CancelFunc),
	}
}

// Start launches the polling loops and a supervisor that keeps them in sync
// with the manager's registrations.
func (p *Poller) Start() {
	p.syncLoops()
	p.wg.Add(1)
	go p.supervise()
	p.log.Info("Poller started", "clients", len(p.manager.IDs()), "interval", p.interval)
}

// Stop cancels all polling loops and waits for them to exit.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	p.log.Info("Poller stopped")
}

func (p *Poller) supervise() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.syncLoops()
		}
	}
}

// syncLoops starts a loop for every registered client that lacks one and
// cancels loops whose client was unregistered.
func (p *Poller) syncLoops() {
	want := make(map[int]struct{})
	for _, id := range p.manager.IDs() {
		want[id] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, cancel := range p.loops {
		if _, ok := want[id]; ok {
			continue
		}
		cancel()
		delete(p.loops, id)
		p.log.Info("Polling loop stopped", "client_id", id)
	}

	for id := range want {
		if _, ok := p.loops[id]; ok {
			continue
		}
		ctx, cancel := context.WithCancel(p.ctx)
		p.loops[id] = cancel
		p.wg.Add(1)
		go p.run(ctx, id)
		p.log.Info("Polling loop started", "client_id", id)
	}
}

func (p *Poller) run(ctx context.Context, clientID int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx, clientID)
		}
	}
}

// PollOnce performs a single poll cycle for one client: fetch the snapshot
// outside any lock, feed it to the registry, then hand completed downloads to
// the importer.
func (p *Poller) PollOnce(ctx context.Context, clientID int) {
	client, err := p.manager.Get(clientID)
	if err != nil {
		p.log.Warn("Skipping poll for missing client", "client_id", clientID)
		return
	}

	listCtx, cancel := context.WithTimeout(ctx, p.timeout)
	items, err := client.ListItems(listCtx)
	cancel()
	if err != nil {
		// Transient adapter error: swallowed here, retried next tick.
		p.log.Warn("Poll failed", "client_id", clientID, "name", client.Name(), "error", err)
		return
	}

	p.sink.OnSnapshot(clientID, items)

	if p.importer == nil {
		return
	}
	for _, td := range p.sink.Completed() {
		if td.ClientID != clientID {
			continue
		}
		p.importer.Process(ctx, td)
	}
}
