package api_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hvac-insights/api"
	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

func engineFor(ds hvac.Dataset) *hvac.Engine {
	return hvac.NewEngine(hvac.NewStore(ds), hvac.WithClock(generic.FixedClock{At: asOf}))
}

func TestReloader_RunNowSwapsEngine(t *testing.T) {
	// GIVEN: A handler serving two clients
	h := api.NewHandler(engineFor(testDataset()))
	smaller := testDataset()
	smaller.Clients = smaller.Clients[:1]
	r := api.NewReloader(h, func(context.Context) (*hvac.Engine, error) {
		return engineFor(smaller), nil
	}, 0)
	router := api.NewRouter(h, api.RouterConfig{})

	// WHEN: A reload runs
	require.NoError(t, r.RunNow(context.Background()))

	// THEN: Health reports the new dataset and the run
	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[api.HealthDTO](t, rec)
	assert.Equal(t, 1, body.Counts.Clients)
	require.NotNil(t, body.LastReload)
	assert.Equal(t, "completed", body.LastReload.Status)
	require.NotNil(t, body.LastReload.Counts)
	assert.Equal(t, 1, body.LastReload.Counts.Clients)
}

func TestReloader_FailureKeepsCurrentEngine(t *testing.T) {
	// GIVEN: A source that cannot be read
	h := api.NewHandler(engineFor(testDataset()))
	before := h.Engine()
	r := api.NewReloader(h, func(context.Context) (*hvac.Engine, error) {
		return nil, errors.New("clients.json: permission denied")
	}, 0)

	// WHEN: A reload runs
	err := r.RunNow(context.Background())

	// THEN: The error is returned and recorded, and the old engine still serves
	require.Error(t, err)
	assert.Same(t, before, h.Engine())
	run, ok := r.LastRun()
	require.True(t, ok)
	assert.Equal(t, "failed", run.Status)
	assert.Contains(t, run.Error, "permission denied")
	assert.Nil(t, run.Counts)
}

func TestReloader_NoRunsYet(t *testing.T) {
	h := api.NewHandler(engineFor(testDataset()))
	r := api.NewReloader(h, func(context.Context) (*hvac.Engine, error) { return nil, nil }, 0)

	_, ok := r.LastRun()
	assert.False(t, ok)

	body := decode[api.HealthDTO](t, get(t, api.NewRouter(h, api.RouterConfig{}), "/healthz"))
	assert.Nil(t, body.LastReload)
}

func TestReloader_StartStop(t *testing.T) {
	// GIVEN: A short interval
	var loads atomic.Int32
	h := api.NewHandler(engineFor(testDataset()))
	r := api.NewReloader(h, func(context.Context) (*hvac.Engine, error) {
		loads.Add(1)
		return engineFor(testDataset()), nil
	}, 5*time.Millisecond)

	// WHEN: Started, then stopped once a reload has happened
	r.Start()
	require.Eventually(t, func() bool { return loads.Load() > 0 }, time.Second, 5*time.Millisecond)
	r.Stop()

	// THEN: No further reloads occur after Stop
	n := loads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, loads.Load())
}

func TestReloader_DisabledDoesNotRun(t *testing.T) {
	var loads atomic.Int32
	h := api.NewHandler(engineFor(testDataset()))
	r := api.NewReloader(h, func(context.Context) (*hvac.Engine, error) {
		loads.Add(1)
		return nil, nil
	}, 0)

	r.Start()
	time.Sleep(10 * time.Millisecond)
	r.Stop()

	assert.Zero(t, loads.Load())
}
