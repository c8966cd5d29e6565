package registrar

import (
	"context"
	"sync"
	"testing"
	"time"

	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestDaemon(t *testing.T, p Portal) *KeepAliveDaemon {
	cleanup := telemetry.SetupForTesting(t, "test:services/registrar")
	t.Cleanup(cleanup)

	daemon, err := NewKeepAliveDaemon(p, time.Minute)
	require.NoError(t, err)
	return daemon
}

func TestKeepAliveRegistry(t *testing.T) {
	daemon := newTestDaemon(t, newStubPortal())

	daemon.Register("B")
	daemon.Register("A")
	daemon.Register("A")
	daemon.Register(portal.NoSession)
	require.Equal(t, []portal.Session{"A", "B"}, daemon.Sessions())

	daemon.Unregister("A")
	daemon.Unregister("missing")
	require.Equal(t, []portal.Session{"B"}, daemon.Sessions())
}

func TestKeepAliveAll(t *testing.T) {
	stub := newStubPortal()
	stub.rotated["rotated"] = true
	stub.unreachable["unreachable"] = true
	daemon := newTestDaemon(t, stub)

	daemon.Register("alive")
	daemon.Register("rotated")
	daemon.Register("unreachable")

	daemon.keepAliveAll(context.Background())

	require.Equal(t, 3, stub.KeepAliveCalls())
	// transport failures are retried on the next tick, rotated sessions are dropped
	require.Equal(t, []portal.Session{"alive", "unreachable"}, daemon.Sessions())
}

func TestKeepAliveSingleFlight(t *testing.T) {
	stub := newStubPortal()
	stub.gate = make(chan struct{})
	daemon := newTestDaemon(t, stub)

	var wg sync.WaitGroup
	results := make([]bool, 5)
	errs := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = daemon.KeepAlive(context.Background(), "session")
		}(i)
	}

	require.Eventually(t, func() bool {
		return stub.KeepAliveCalls() == 1
	}, time.Second, time.Millisecond*5)
	// give the remaining callers time to join the in-flight request
	time.Sleep(time.Millisecond * 100)
	close(stub.gate)
	wg.Wait()

	require.Equal(t, 1, stub.KeepAliveCalls())
	for i, alive := range results {
		require.NoError(t, errs[i])
		require.True(t, alive)
	}
}

func TestKeepAliveSkipsOverlappingTicks(t *testing.T) {
	stub := newStubPortal()
	stub.gate = make(chan struct{})
	daemon := newTestDaemon(t, stub)
	daemon.Register("session")

	done := make(chan struct{})
	go func() {
		daemon.keepAliveAll(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return stub.KeepAliveCalls() == 1
	}, time.Second, time.Millisecond*5)

	// returns right away, the first tick is still waiting on the portal
	daemon.keepAliveAll(context.Background())
	require.Equal(t, 1, stub.KeepAliveCalls())

	close(stub.gate)
	<-done
	require.Equal(t, []portal.Session{"session"}, daemon.Sessions())
}

func TestKeepAliveDaemonStops(t *testing.T) {
	stub := newStubPortal()
	cleanup := telemetry.SetupForTesting(t, "test:services/registrar")
	t.Cleanup(cleanup)

	daemon, err := NewKeepAliveDaemon(stub, time.Millisecond*10)
	require.NoError(t, err)
	daemon.Register("session")

	ctx, cancel := context.WithCancel(context.Background())
	daemon.Start(ctx)
	require.Eventually(t, func() bool {
		return stub.KeepAliveCalls() >= 2
	}, time.Second, time.Millisecond*5)
	cancel()

	// let the daemon observe the cancellation
	time.Sleep(time.Millisecond * 50)
	calls := stub.KeepAliveCalls()
	time.Sleep(time.Millisecond * 50)
	require.Equal(t, calls, stub.KeepAliveCalls())
}

func TestKeepAliveOnRejected(t *testing.T) {
	stub := newStubPortal()
	stub.rotated["rotated"] = true
	daemon := newTestDaemon(t, stub)

	var rejected []portal.Session
	daemon.OnRejected(func(session portal.Session) {
		rejected = append(rejected, session)
	})

	alive, err := daemon.KeepAlive(context.Background(), "alive")
	require.NoError(t, err)
	require.True(t, alive)
	alive, err = daemon.KeepAlive(context.Background(), "rotated")
	require.NoError(t, err)
	require.False(t, alive)

	require.Equal(t, []portal.Session{"rotated"}, rejected)
}
