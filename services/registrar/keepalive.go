package registrar

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"regassist-backend/lib/scrapers/portal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// KeepAliveDaemon periodically extends every registered session. At most one
// keep-alive is in flight per session at any time, whether it was issued by
// the daemon or by a request.
type KeepAliveDaemon struct {
	portal   Portal
	interval time.Duration

	lock       sync.Mutex
	sessions   map[portal.Session]struct{}
	onRejected []func(portal.Session)

	group   singleflight.Group
	running atomic.Bool

	keepAliveCounter metric.Int64Counter
	rejectedCounter  metric.Int64Counter
}

func NewKeepAliveDaemon(p Portal, interval time.Duration) (*KeepAliveDaemon, error) {
	if interval <= 0 {
		interval = time.Minute * 5
	}

	keepAliveCounter, err := meter.Int64Counter(
		"keepalive_total",
		metric.WithDescription("The total amount of keep-alive requests sent to the portal."),
	)
	if err != nil {
		return nil, err
	}
	rejectedCounter, err := meter.Int64Counter(
		"keepalive_rejected_total",
		metric.WithDescription("The total amount of sessions the portal did not extend."),
	)
	if err != nil {
		return nil, err
	}

	d := &KeepAliveDaemon{
		portal:           p,
		interval:         interval,
		sessions:         map[portal.Session]struct{}{},
		keepAliveCounter: keepAliveCounter,
		rejectedCounter:  rejectedCounter,
	}

	_, err = meter.Int64ObservableGauge(
		"keepalive_sessions",
		metric.WithDescription("The amount of sessions currently kept alive."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			d.lock.Lock()
			defer d.lock.Unlock()
			o.Observe(int64(len(d.sessions)))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OnRejected calls fn with every session the portal refuses to extend.
func (d *KeepAliveDaemon) OnRejected(fn func(portal.Session)) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.onRejected = append(d.onRejected, fn)
}

func (d *KeepAliveDaemon) Register(session portal.Session) {
	if session == portal.NoSession {
		return
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.sessions[session] = struct{}{}
}

func (d *KeepAliveDaemon) Unregister(session portal.Session) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.sessions, session)
}

// Sessions returns the registered sessions in a stable order.
func (d *KeepAliveDaemon) Sessions() []portal.Session {
	d.lock.Lock()
	defer d.lock.Unlock()

	out := make([]portal.Session, 0, len(d.sessions))
	for session := range d.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i] < out[j]
	})
	return out
}

// KeepAlive extends a session, concurrent calls for the same session share a
// single request. A session the portal refuses to extend is unregistered.
func (d *KeepAliveDaemon) KeepAlive(ctx context.Context, session portal.Session) (bool, error) {
	result, err, _ := d.group.Do(string(session), func() (any, error) {
		d.keepAliveCounter.Add(ctx, 1)
		return d.portal.KeepAlive(ctx, session)
	})
	if err != nil {
		return false, err
	}

	alive := result.(bool)
	if !alive {
		d.rejectedCounter.Add(ctx, 1)
		d.reject(session)
	}
	return alive, nil
}

func (d *KeepAliveDaemon) reject(session portal.Session) {
	d.lock.Lock()
	delete(d.sessions, session)
	callbacks := d.onRejected
	d.lock.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

func (d *KeepAliveDaemon) keepAliveAll(ctx context.Context) {
	// a tick that outlasts the interval is not stacked on
	if !d.running.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "previous keep-alive tick is still running, skipping")
		return
	}
	defer d.running.Store(false)

	ctx, span := tracer.Start(ctx, "keepalive_daemon:keepAliveAll")
	defer span.End()

	sessions := d.Sessions()
	span.SetAttributes(attribute.Int("sessions", len(sessions)))

	expired := 0
	for _, session := range sessions {
		alive, err := d.KeepAlive(ctx, session)
		if err != nil {
			// a transport failure says nothing about the session, try again next tick
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to keep a session alive")
			slog.WarnContext(ctx, "keep-alive request failed", "err", err)
			continue
		}
		if !alive {
			expired++
		}
	}
	if expired > 0 {
		slog.InfoContext(ctx, "sessions expired", "count", expired)
	}
}

func (d *KeepAliveDaemon) daemon(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C:
			d.keepAliveAll(ctx)
		}
	}
}

func (d *KeepAliveDaemon) Start(ctx context.Context) {
	go d.daemon(ctx)
}
