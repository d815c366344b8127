package status

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dockhand/dockhand/internal/compose"
	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/kuma"
)

// State classifies a service's live condition.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateMissing State = "missing"
	StateUnknown State = "unknown"
)

// Snapshot is the reconciled point-in-time view of one service. The kuma
// fields are only set when a monitor matched; they are enrichment, not part
// of the classification.
type Snapshot struct {
	Status     State  `json:"status"`
	KumaStatus string `json:"kuma_status,omitempty"`
	KumaColor  string `json:"kuma_color,omitempty"`
}

// Inspector is the slice of the compose runner the reconciler needs.
type Inspector interface {
	Ps(ctx context.Context, composePath string) (compose.Result, error)
}

// MonitorSource provides Uptime Kuma monitor data.
type MonitorSource interface {
	Enabled() bool
	Monitors(ctx context.Context) map[string]kuma.Monitor
}

// inspectLimit bounds concurrent docker compose ps processes per snapshot.
const inspectLimit = 4

// Markers in docker compose ps output that indicate at least one container is
// up. Matched case-insensitively against the whole output.
var runningMarkers = []string{"up", "running", "healthy", "started"}

// Reconciler determines the live state of every configured service on
// demand. Classification is total: every service gets exactly one state and
// inspection failures degrade to unknown instead of aborting the snapshot.
type Reconciler struct {
	inspector Inspector
	table     *config.Table
	monitors  MonitorSource
	logger    *slog.Logger
}

func NewReconciler(inspector Inspector, table *config.Table, monitors MonitorSource, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		inspector: inspector,
		table:     table,
		monitors:  monitors,
		logger:    logger,
	}
}

// Snapshot inspects all configured services and returns one entry per
// service. A Kuma outage only omits the kuma fields; it never affects the
// docker-derived status.
func (r *Reconciler) Snapshot(ctx context.Context) map[string]Snapshot {
	services := r.table.Services()

	var monitors map[string]kuma.Monitor
	if r.monitors != nil && r.monitors.Enabled() {
		monitors = r.monitors.Monitors(ctx)
	}

	var mu sync.Mutex
	out := make(map[string]Snapshot, len(services))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inspectLimit)
	for _, svc := range services {
		g.Go(func() error {
			snap := Snapshot{Status: r.classify(gctx, r.table.ComposePath(svc))}
			if m, ok := kuma.Match(monitors, svc.Name, svc.URL); ok {
				snap.KumaStatus = m.Label()
				snap.KumaColor = m.Color()
			}
			mu.Lock()
			out[svc.Name] = snap
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Reconciler) classify(ctx context.Context, composePath string) State {
	if _, err := os.Stat(composePath); err != nil {
		if os.IsNotExist(err) {
			return StateMissing
		}
		r.logger.Debug("stat compose file", "path", composePath, "err", err)
		return StateUnknown
	}

	res, err := r.inspector.Ps(ctx, composePath)
	if err != nil {
		if errors.Is(err, compose.ErrComposeNotFound) {
			return StateMissing
		}
		r.logger.Debug("inspect service", "path", composePath, "err", err)
		return StateUnknown
	}
	if !res.OK() {
		return StateStopped
	}

	lowered := strings.ToLower(res.Output)
	for _, marker := range runningMarkers {
		if strings.Contains(lowered, marker) {
			return StateRunning
		}
	}
	return StateStopped
}
