package geo

import (
	"cardbook/internal/models"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// fakeProvider answers /search from a query -> "lat,lon" table.
type fakeProvider struct {
	places map[string]string
	calls  atomic.Int32
	fail   bool
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if f.fail {
		http.Error(w, "down", http.StatusBadGateway)
		return
	}
	if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" || r.Header.Get("User-Agent") == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	ll, ok := f.places[r.URL.Query().Get("q")]
	if !ok {
		_, _ = w.Write([]byte(`[]`))
		return
	}
	lat, lon, _ := strings.Cut(ll, ",")
	_, _ = w.Write([]byte(`[{"lat":"` + lat + `","lon":"` + lon + `","display_name":"x"}]`))
}

func newTestGeocoder(t *testing.T, h http.Handler) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := New(Config{BaseURL: srv.URL, RPS: 1000, Timeout: time.Second, CacheSize: 16}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(g.client.CloseIdleConnections)
	return g
}

func TestSmartGeocode_PreciseFromAPI(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{"1 Main St, Springfield, US": "39.78,-89.65"}}
	g := newTestGeocoder(t, fp)

	res := g.SmartGeocode(context.Background(), "1 Main St", "Springfield", "US")
	require.NotNil(t, res)
	assert.Equal(t, models.GeocodeResult{Coordinates: models.Coordinates{Lat: 39.78, Lng: -89.65}, Source: SourceAPI}, *res)
}

func TestSmartGeocode_FallbackTable(t *testing.T) {
	fp := &fakeProvider{fail: true}
	g := newTestGeocoder(t, fp)

	res := g.SmartGeocode(context.Background(), "10 Rue X", "PARIS", "France")
	require.NotNil(t, res)
	assert.Equal(t, SourceFallback, res.Source)
	assert.True(t, res.Approximate)
	assert.InDelta(t, 48.8566, res.Coordinates.Lat, 1e-9)
	assert.EqualValues(t, 1, fp.calls.Load(), "fallback hit must not query the city")
}

func TestSmartGeocode_CityOnlyAPI(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{"Springfield, US": "39.80,-89.64"}}
	g := newTestGeocoder(t, fp)

	res := g.SmartGeocode(context.Background(), "Unknown Rd 99", "Springfield", "US")
	require.NotNil(t, res)
	assert.Equal(t, SourceCityAPI, res.Source)
	assert.True(t, res.Approximate)
	assert.EqualValues(t, 2, fp.calls.Load())
}

func TestSmartGeocode_NoStreetIsApproximate(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{"Springfield, US": "39.80,-89.64"}}
	g := newTestGeocoder(t, fp)

	res := g.SmartGeocode(context.Background(), "  ", "Springfield", "US")
	require.NotNil(t, res)
	assert.Equal(t, SourceCityAPI, res.Source)
	assert.True(t, res.Approximate)
	assert.EqualValues(t, 1, fp.calls.Load())
}

func TestSmartGeocode_NoResult(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{}}
	g := newTestGeocoder(t, fp)

	assert.Nil(t, g.SmartGeocode(context.Background(), "", "Unknown City", "Nowhereland"))
	assert.EqualValues(t, 1, fp.calls.Load(), "city-only query equals the full query and is not repeated")
}

func TestSmartGeocode_NoNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	g, err := New(Config{BaseURL: base, RPS: 1000, Timeout: 200 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	assert.Nil(t, g.SmartGeocode(context.Background(), "", "Unknown City", "Nowhereland"))

	res := g.SmartGeocode(context.Background(), "", "Tokyo", "Japan")
	require.NotNil(t, res)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestSmartGeocode_CancelledContext(t *testing.T) {
	g := newTestGeocoder(t, &fakeProvider{places: map[string]string{"Berlin": "1,1"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.SmartGeocode(ctx, "", "Berlin", "")
	require.NotNil(t, res)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestLookup_CachesAndCollapses(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{"Oslo": "59.91,10.75"}}
	g := newTestGeocoder(t, fp)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := g.Lookup(context.Background(), "Oslo")
			assert.NoError(t, err)
			assert.InDelta(t, 59.91, c.Lat, 1e-9)
		}()
	}
	wg.Wait()

	_, err := g.Lookup(context.Background(), "oslo")
	require.NoError(t, err)
	assert.LessOrEqual(t, fp.calls.Load(), int32(8))

	before := fp.calls.Load()
	_, err = g.Lookup(context.Background(), "OSLO")
	require.NoError(t, err)
	assert.Equal(t, before, fp.calls.Load(), "cached lookups must not hit the provider")
}

func TestLookup_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"60.17","lon":"24.94"}]`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := g.Lookup(ctx, "Helsinki")
		first <- err
	}()
	<-started

	type result struct {
		c   models.Coordinates
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := g.Lookup(context.Background(), "Helsinki")
		second <- result{c, err}
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.InDelta(t, 60.17, res.c.Lat, 1e-9)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLookup_Errors(t *testing.T) {
	g := newTestGeocoder(t, &fakeProvider{places: map[string]string{"Bad": "north,west"}})

	_, err := g.Lookup(context.Background(), "Nowhere")
	require.ErrorIs(t, err, ErrNoResult)

	_, err = g.Lookup(context.Background(), "Bad")
	require.ErrorIs(t, err, ErrUpstream)

	g = newTestGeocoder(t, &fakeProvider{fail: true})
	_, err = g.Lookup(context.Background(), "Anywhere")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestLookupCity(t *testing.T) {
	c, ok := LookupCity("  São Paulo ")
	require.True(t, ok)
	assert.InDelta(t, -23.5505, c.Lat, 1e-9)

	_, ok = LookupCity("")
	assert.False(t, ok)

	_, ok = LookupCity("Atlantis")
	assert.False(t, ok)

	d := DefaultLocation()
	assert.True(t, d.Approximate)
	assert.Equal(t, SourceDefault, d.Source)
}

func TestThrottle(t *testing.T) {
	fp := &fakeProvider{places: map[string]string{"A": "1,1", "B": "2,2", "C": "3,3"}}
	g := newTestGeocoder(t, fp)
	g.limiter.SetLimit(20) // one request per 50ms

	start := time.Now()
	for _, q := range []string{"A", "B", "C"} {
		_, err := g.Lookup(context.Background(), q)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
