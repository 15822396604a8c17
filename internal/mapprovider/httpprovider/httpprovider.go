// Package httpprovider is the real MapProvider (C1) adapter: it calls a
// transit-capable routing backend over HTTPS, rate-limited, and maps backend
// statuses into the engine's error taxonomy.
package httpprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/ratelimit"
)

// Provider is the HTTP-backed MapProvider adapter. Field selection and wire
// shape against the backend are implementation detail; the only public
// contract is the mapprovider.Provider interface.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// New builds a Provider against baseURL (e.g. a routing API's root) using
// apiKey for authentication, throttled by limiter.
func New(baseURL, apiKey string, limiter *ratelimit.Limiter) *Provider {
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter: limiter,
	}
}

type geocodeResponse struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Status string  `json:"status"`
}

// Geocode resolves addressHint to coordinates via the backend's geocoding
// endpoint, rate-limited by the shared Limiter.
func (p *Provider) Geocode(ctx context.Context, addressHint string) (model.Coordinates, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return model.Coordinates{}, err
	}

	q := url.Values{}
	q.Set("address", addressHint)
	q.Set("key", p.apiKey)

	var out geocodeResponse
	if err := p.getJSON(ctx, "/geocode?"+q.Encode(), &out); err != nil {
		return model.Coordinates{}, err
	}
	if out.Status == "ZERO_RESULTS" {
		return model.Coordinates{}, apperr.New(apperr.KindNotFound, "no geocoding match for address").
			WithDetails(map[string]any{"addressHint": addressHint})
	}

	return model.Coordinates{Lat: out.Lat, Lng: out.Lng}, nil
}

type transitTimeResponse struct {
	DurationSec  int64   `json:"durationSec"`
	DistanceM    float64 `json:"distanceMeters"`
	Status       string  `json:"status"`
}

// TransitTime returns the travel duration and distance between origin and
// dest for the given mode, departing at departure.
func (p *Provider) TransitTime(ctx context.Context, origin, dest model.Coordinates, departure time.Time, mode model.Mode) (time.Duration, float64, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return 0, 0, err
	}

	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	q.Set("departure_time", fmt.Sprintf("%d", departure.Unix()))
	q.Set("mode", string(mode))
	q.Set("key", p.apiKey)

	var out transitTimeResponse
	if err := p.getJSON(ctx, "/directions?"+q.Encode(), &out); err != nil {
		return 0, 0, err
	}
	if out.Status == "ZERO_RESULTS" {
		// No route exists for this pair/mode: a valid outcome, not a
		// failure (spec.md §3's TransitLeg durationSec=∞ sentinel).
		return model.Unreachable, 0, nil
	}

	return time.Duration(out.DurationSec) * time.Second, out.DistanceM, nil
}

// NavigationLink returns a deep link into a maps application for the leg.
// Pure, no I/O.
func (p *Provider) NavigationLink(origin, dest model.Coordinates, departure time.Time, mode model.Mode) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	q.Set("travelmode", navigationMode(mode))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

func navigationMode(mode model.Mode) string {
	switch mode {
	case model.ModeDriving:
		return "driving"
	case model.ModeTransit:
		return "transit"
	default:
		return "walking"
	}
}

// getJSON issues a GET against path (relative to baseURL) and decodes the
// JSON body into out, mapping transport/status failures into the error
// taxonomy.
func (p *Provider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to build provider request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindProviderNetwork, "map provider request failed", err)
	}
	defer resp.Body.Close()

	if err := statusToKind(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindProviderNetwork, "failed to decode provider response", err)
	}
	return nil
}

func statusToKind(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return apperr.New(apperr.KindProviderRateLimit, "map provider rate limit exceeded")
	case code == http.StatusPaymentRequired || code == http.StatusForbidden:
		return apperr.New(apperr.KindProviderQuota, "map provider quota exceeded")
	case code == http.StatusUnauthorized:
		return apperr.New(apperr.KindProviderDenied, "map provider denied the request")
	case code == http.StatusBadRequest:
		return apperr.New(apperr.KindProviderInvalidRequest, "map provider rejected the request shape")
	case code >= 500:
		return apperr.New(apperr.KindProviderNetwork, "map provider returned a server error").
			WithDetails(map[string]any{"statusCode": code})
	default:
		return apperr.New(apperr.KindProviderNetwork, "unexpected map provider status").
			WithDetails(map[string]any{"statusCode": code})
	}
}
