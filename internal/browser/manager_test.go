// File: internal/browser/manager_test.go
package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubDriver is the minimal Driver used to exercise the registry.
type stubDriver struct {
	quits atomic.Int32
}

func (d *stubDriver) Open(context.Context, string) error  { return nil }
func (d *stubDriver) Back(context.Context) error          { return nil }
func (d *stubDriver) Forward(context.Context) error       { return nil }
func (d *stubDriver) Refresh(context.Context) error       { return nil }
func (d *stubDriver) ExecuteScript(_ context.Context, _ string, _, _ any) error { return nil }
func (d *stubDriver) Screenshot(context.Context) ([]byte, error)  { return nil, nil }
func (d *stubDriver) CurrentURL(context.Context) (string, error)  { return "about:blank", nil }
func (d *stubDriver) Title(context.Context) (string, error)       { return "", nil }
func (d *stubDriver) KeyDown(context.Context, schemas.KeyInput) error { return nil }
func (d *stubDriver) KeyUp(context.Context, schemas.KeyInput) error   { return nil }
func (d *stubDriver) SendText(context.Context, string) error          { return nil }
func (d *stubDriver) Targets(context.Context) ([]schemas.TabInfo, error) { return nil, nil }
func (d *stubDriver) ActivateTarget(context.Context, string) error       { return nil }
func (d *stubDriver) CloseTarget(context.Context, string) error          { return nil }
func (d *stubDriver) Quit() error {
	d.quits.Add(1)
	return nil
}

func newTestManager(factory DriverFactory) *Manager {
	return NewManager(config.NewDefaultConfig(), factory)
}

func countingFactory(spawned *atomic.Int32) DriverFactory {
	return func(context.Context) (schemas.Driver, error) {
		spawned.Add(1)
		return &stubDriver{}, nil
	}
}

func TestSessionKeyDerivation(t *testing.T) {
	assert.Equal(t, "browser_u1", SessionKey("u1"))
	assert.Equal(t, "browser_default", SessionKey(""))
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	var spawned atomic.Int32
	m := newTestManager(countingFactory(&spawned))

	first, err := m.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	second, err := m.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), spawned.Load())
	assert.Equal(t, "browser_u1", first.Key())

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestGetOrCreateDetachesDriverFromCallerContext(t *testing.T) {
	var captured context.Context
	m := newTestManager(func(ctx context.Context) (schemas.Driver, error) {
		captured = ctx
		return &stubDriver{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := m.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	// The creating call's context dies with the request that carried it; the
	// browser keeps running until an explicit stop.
	cancel()
	require.NotNil(t, captured)
	assert.NoError(t, captured.Err())

	_, ok := m.Lookup("u1")
	assert.True(t, ok)

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestStopThenGetOrCreateProducesNewSession(t *testing.T) {
	var spawned atomic.Int32
	m := newTestManager(countingFactory(&spawned))

	first, err := m.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)

	res := m.Stop(context.Background(), "u1")
	require.False(t, res.Failed(), res.Message)

	second, err := m.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), spawned.Load())

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestStartIsIdempotent(t *testing.T) {
	var spawned atomic.Int32
	m := newTestManager(countingFactory(&spawned))

	res := m.Start(context.Background(), "u1")
	require.False(t, res.Failed())
	assert.Contains(t, res.Message, "started")

	res = m.Start(context.Background(), "u1")
	require.False(t, res.Failed())
	assert.Contains(t, res.Message, "already running")
	assert.Equal(t, int32(1), spawned.Load())

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestStopAbsentSessionIsNoOp(t *testing.T) {
	m := newTestManager(countingFactory(new(atomic.Int32)))

	res := m.Stop(context.Background(), "ghost")

	require.False(t, res.Failed())
	assert.Contains(t, res.Message, "no browser session")
}

func TestFailedCreateLeavesNoEntry(t *testing.T) {
	attempts := 0
	m := newTestManager(func(context.Context) (schemas.Driver, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("chrome executable not found")
		}
		return &stubDriver{}, nil
	})

	_, err := m.GetOrCreate(context.Background(), "u1")
	require.Error(t, err)
	_, ok := m.Lookup("u1")
	assert.False(t, ok)

	// The failure is not sticky.
	s, err := m.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, s)

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestConcurrentStartsShareOneSession(t *testing.T) {
	var spawned atomic.Int32
	m := newTestManager(countingFactory(&spawned))

	const workers = 16
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			s, err := m.GetOrCreate(context.Background(), "shared")
			if err != nil {
				results[slot] = err
				return
			}
			results[slot] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), spawned.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	require.NoError(t, m.CloseAll(context.Background()))
}

func TestCloseAllQuitsEveryDriver(t *testing.T) {
	drivers := make([]*stubDriver, 0, 3)
	m := newTestManager(func(context.Context) (schemas.Driver, error) {
		d := &stubDriver{}
		drivers = append(drivers, d)
		return d, nil
	})

	for _, identity := range []string{"a", "b", "c"} {
		_, err := m.GetOrCreate(context.Background(), identity)
		require.NoError(t, err)
	}

	require.NoError(t, m.CloseAll(context.Background()))

	require.Len(t, drivers, 3)
	for _, d := range drivers {
		assert.Equal(t, int32(1), d.quits.Load())
	}
	assert.Empty(t, m.List(context.Background()))
}

func TestListReportsSessionsInKeyOrder(t *testing.T) {
	m := newTestManager(countingFactory(new(atomic.Int32)))

	for _, identity := range []string{"zeta", "alpha"} {
		_, err := m.GetOrCreate(context.Background(), identity)
		require.NoError(t, err)
	}

	infos := m.List(context.Background())

	require.Len(t, infos, 2)
	assert.Equal(t, "browser_alpha", infos[0].Key)
	assert.Equal(t, "browser_zeta", infos[1].Key)

	require.NoError(t, m.CloseAll(context.Background()))
}
