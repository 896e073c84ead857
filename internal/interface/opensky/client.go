package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
)

// DefaultBaseURL is the OpenSky Network REST API root.
const DefaultBaseURL = "https://opensky-network.org/api"

// Client reads airport arrivals from the OpenSky Network. OpenSky has no
// schedule, so the lookahead is applied backwards to recently seen arrivals.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

var _ repository.FlightSource = (*Client)(nil)

// NewClient creates an OpenSky client over httpClient, which carries the
// OAuth token when credentials are configured.
func NewClient(baseURL string, httpClient *http.Client, logger logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *Client) Name() string { return "opensky" }

// FetchEnroute returns the flights OpenSky saw arriving at icao during the
// last lookahead window.
func (c *Client) FetchEnroute(ctx context.Context, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error) {
	end := c.now().UTC()
	begin := end.Add(-lookahead)
	params := url.Values{
		"airport": {icao},
		"begin":   {strconv.FormatInt(begin.Unix(), 10)},
		"end":     {strconv.FormatInt(end.Unix(), 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/flights/arrival?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("opensky: %w", err)
	}
	req.Header.Set("User-Agent", "enroute-service/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opensky: request failed: %w", err)
	}
	defer resp.Body.Close()

	// OpenSky answers 404 when nothing arrived in the window.
	if resp.StatusCode == http.StatusNotFound {
		return []entity.FlightUpdate{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opensky: HTTP %d", resp.StatusCode)
	}

	var raw []openskyFlight
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("opensky: decode error: %w", err)
	}

	updates := make([]entity.FlightUpdate, 0, len(raw))
	for _, f := range raw {
		if f.ICAO24 == "" {
			continue
		}
		updates = append(updates, f.toUpdate(icao))
	}
	c.logger.Debug("Fetched OpenSky arrivals", "airport", icao, "count", len(updates))
	return updates, nil
}

// OpenSky JSON types

type openskyFlight struct {
	ICAO24           string  `json:"icao24"`
	FirstSeen        int64   `json:"firstSeen"`
	LastSeen         int64   `json:"lastSeen"`
	Callsign         string  `json:"callsign"`
	EstDepartureICAO *string `json:"estDepartureAirport"`
	EstArrivalICAO   *string `json:"estArrivalAirport"`
}

func (f *openskyFlight) toUpdate(airport string) entity.FlightUpdate {
	departed := time.Unix(f.FirstSeen, 0).UTC()
	arrived := time.Unix(f.LastSeen, 0).UTC()
	u := entity.FlightUpdate{
		Key:             fmt.Sprintf("opensky-%s-%d", f.ICAO24, f.FirstSeen),
		Ident:           strings.TrimSpace(f.Callsign),
		DestinationICAO: airport,
		ActualDeparture: &departed,
		ActualArrival:   &arrived,
		Status:          "Arrived",
	}
	if f.EstDepartureICAO != nil {
		u.OriginICAO = *f.EstDepartureICAO
	}
	if f.EstArrivalICAO != nil && *f.EstArrivalICAO != "" {
		u.DestinationICAO = *f.EstArrivalICAO
	}
	return u
}
