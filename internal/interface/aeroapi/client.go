package aeroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
)

// DefaultBaseURL is the FlightAware AeroAPI v4 root.
const DefaultBaseURL = "https://aeroapi.flightaware.com/aeroapi"

// Client talks to FlightAware AeroAPI. It serves both airport metadata and
// en-route arrivals.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

var (
	_ repository.AirportInfoFetcher = (*Client)(nil)
	_ repository.FlightSource       = (*Client)(nil)
)

// NewClient creates an AeroAPI client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, logger logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (c *Client) Name() string { return "aeroapi" }

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, dest any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("aeroapi: creating request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aeroapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("aeroapi: %s: %w", path, entity.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("aeroapi: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("aeroapi: decoding response: %w", err)
	}
	return nil
}

// FetchAirportInfo returns the metadata AeroAPI holds for icao.
func (c *Client) FetchAirportInfo(ctx context.Context, icao string) (*entity.AirportInfo, error) {
	var raw aeroAirport
	if err := c.doRequest(ctx, "/airports/"+url.PathEscape(icao), nil, &raw); err != nil {
		return nil, err
	}

	info := raw.toAirportInfo()
	c.logger.Debug("Fetched airport info", "icao", icao, "name", info.Name)
	return info, nil
}

// FetchEnroute returns the airborne flights scheduled to arrive at icao
// within lookahead, in the order AeroAPI lists them.
func (c *Client) FetchEnroute(ctx context.Context, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error) {
	now := c.now().UTC()
	params := url.Values{
		"type":      {"Airline"},
		"max_pages": {"1"},
		"start":     {now.Add(-lookahead).Format(time.RFC3339)},
		"end":       {now.Add(lookahead).Format(time.RFC3339)},
	}

	var raw struct {
		ScheduledArrivals []aeroFlight `json:"scheduled_arrivals"`
	}
	path := "/airports/" + url.PathEscape(icao) + "/flights/scheduled_arrivals"
	if err := c.doRequest(ctx, path, params, &raw); err != nil {
		return nil, err
	}

	updates := make([]entity.FlightUpdate, 0, len(raw.ScheduledArrivals))
	for _, f := range raw.ScheduledArrivals {
		if f.enRoute() {
			updates = append(updates, f.toUpdate())
		}
	}
	return updates, nil
}

// AeroAPI JSON types

type aeroAirport struct {
	AirportCode string   `json:"airport_code"`
	CodeICAO    *string  `json:"code_icao"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Timezone    string   `json:"timezone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (a *aeroAirport) toAirportInfo() *entity.AirportInfo {
	code := a.AirportCode
	if a.CodeICAO != nil && *a.CodeICAO != "" {
		code = *a.CodeICAO
	}
	location := a.City
	if a.State != "" && location != "" {
		location += ", " + a.State
	}
	return &entity.AirportInfo{
		ICAO:      code,
		Name:      a.Name,
		Location:  location,
		Timezone:  a.Timezone,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
	}
}

type aeroAirportRef struct {
	Code     *string `json:"code"`
	CodeICAO *string `json:"code_icao"`
}

func (a *aeroAirportRef) icao() string {
	if a == nil {
		return ""
	}
	if a.CodeICAO != nil {
		return *a.CodeICAO
	}
	if a.Code != nil {
		return *a.Code
	}
	return ""
}

type aeroFlight struct {
	Ident        string          `json:"ident"`
	FAFlightID   string          `json:"fa_flight_id"`
	Operator     *string         `json:"operator"`
	AircraftType *string         `json:"aircraft_type"`
	Origin       *aeroAirportRef `json:"origin"`
	Destination  *aeroAirportRef `json:"destination"`
	Status       string          `json:"status"`
	Cancelled    bool            `json:"cancelled"`
	ScheduledOn  *time.Time      `json:"scheduled_on"`
	EstimatedOn  *time.Time      `json:"estimated_on"`
	ActualOff    *time.Time      `json:"actual_off"`
	ActualOn     *time.Time      `json:"actual_on"`
}

func (f *aeroFlight) enRoute() bool {
	return f.ActualOff != nil && f.ActualOn == nil && !f.Cancelled
}

func (f *aeroFlight) toUpdate() entity.FlightUpdate {
	u := entity.FlightUpdate{
		Key:              f.FAFlightID,
		Ident:            f.Ident,
		OriginICAO:       f.Origin.icao(),
		DestinationICAO:  f.Destination.icao(),
		ScheduledArrival: f.ScheduledOn,
		EstimatedArrival: f.EstimatedOn,
		ActualArrival:    f.ActualOn,
		ActualDeparture:  f.ActualOff,
		Status:           f.Status,
	}
	if f.Operator != nil {
		u.Operator = *f.Operator
	}
	if f.AircraftType != nil {
		u.AircraftType = *f.AircraftType
	}
	return u
}
