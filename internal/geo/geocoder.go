package geo

import (
	"cardbook/internal/metrics"
	"cardbook/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"
)

const (
	SourceAPI      = "api"
	SourceFallback = "fallback"
	SourceCityAPI  = "api_city"
	SourceDefault  = "default"
)

var (
	ErrNoResult = errors.New("no geocoding result")
	ErrUpstream = errors.New("geocoding provider error")
)

type Config struct {
	BaseURL   string
	UserAgent string
	// RPS is the provider's request budget; Nominatim allows 1/s.
	RPS       float64
	Timeout   time.Duration
	CacheSize int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://nominatim.openstreetmap.org",
		UserAgent: "cardbook/1.0",
		RPS:       1,
		Timeout:   5 * time.Second,
		CacheSize: 1024,
	}
}

// Geocoder resolves addresses through a Nominatim-compatible API, falling
// back to a table of well-known cities.
type Geocoder struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, models.Coordinates]
	group   singleflight.Group
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Geocoder, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	cache, err := lru.New[string, models.Coordinates](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}

	return &Geocoder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		cache:   cache,
		log:     log,
	}, nil
}

// SmartGeocode tries the full address, then the fallback city table, then the
// city alone. It returns nil when nothing resolves and never fails.
func (g *Geocoder) SmartGeocode(ctx context.Context, address, city, country string) *models.GeocodeResult {
	res := g.smartGeocode(ctx, address, city, country)
	source := "none"
	if res != nil {
		source = res.Source
	}
	metrics.GeocodeTotal.WithLabelValues(source).Inc()
	return res
}

func (g *Geocoder) smartGeocode(ctx context.Context, address, city, country string) *models.GeocodeResult {
	hasAddress := strings.TrimSpace(address) != ""

	// 1. Full address; without a street this is already a city-level pin
	if q := joinQuery(address, city, country); q != "" {
		c, err := g.Lookup(ctx, q)
		if err == nil {
			if !hasAddress {
				return &models.GeocodeResult{Coordinates: c, Source: SourceCityAPI, Approximate: true}
			}
			return &models.GeocodeResult{Coordinates: c, Source: SourceAPI}
		}
		g.log.Debug("full address lookup failed", zap.String("query", q), zap.Error(err))
	}

	// 2. Known cities
	if c, ok := LookupCity(city); ok {
		return &models.GeocodeResult{Coordinates: c, Source: SourceFallback, Approximate: true}
	}

	// 3. City only (skipped when step 1 already asked the same thing)
	if q := joinQuery("", city, country); q != "" && hasAddress {
		c, err := g.Lookup(ctx, q)
		if err == nil {
			return &models.GeocodeResult{Coordinates: c, Source: SourceCityAPI, Approximate: true}
		}
		g.log.Debug("city lookup failed", zap.String("query", q), zap.Error(err))
	}

	g.log.Info("no geocoding result",
		zap.String("address", address), zap.String("city", city), zap.String("country", country))
	return nil
}

func joinQuery(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// Lookup performs one throttled, cached API query.
func (g *Geocoder) Lookup(ctx context.Context, query string) (models.Coordinates, error) {
	key := cases.Fold().String(query)
	if c, ok := g.cache.Get(key); ok {
		return c, nil
	}

	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}

	// The shared fetch is detached from the caller that started it; each
	// caller stops waiting on its own ctx. The client timeout bounds the request.
	ch := g.group.DoChan(key, func() (any, error) {
		c, err := g.fetch(context.WithoutCancel(ctx), query)
		if err != nil {
			return nil, err
		}
		g.cache.Add(key, c)
		return c, nil
	})
	select {
	case <-ctx.Done():
		return models.Coordinates{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.Coordinates{}, res.Err
		}
		return res.Val.(models.Coordinates), nil
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) fetch(ctx context.Context, query string) (models.Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, err
	}

	u := strings.TrimRight(g.cfg.BaseURL, "/") + "/search?" + url.Values{
		"format": {"json"},
		"limit":  {"1"},
		"q":      {query},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Coordinates{}, err
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.GeocodeUpstream.WithLabelValues("error").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeUpstream.WithLabelValues("error").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		metrics.GeocodeUpstream.WithLabelValues("error").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(places) == 0 {
		metrics.GeocodeUpstream.WithLabelValues("empty").Inc()
		return models.Coordinates{}, ErrNoResult
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		metrics.GeocodeUpstream.WithLabelValues("error").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: bad coordinates %q,%q", ErrUpstream, places[0].Lat, places[0].Lon)
	}

	metrics.GeocodeUpstream.WithLabelValues("ok").Inc()
	return models.Coordinates{Lat: lat, Lng: lng}, nil
}
