package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/pkg/logger"
)

// AirportHandler serves read-only views of the store
type AirportHandler struct {
	store  *persistence.StoreContext
	logger logger.Logger
}

// NewAirportHandler creates a new airport handler
func NewAirportHandler(store *persistence.StoreContext, logger logger.Logger) *AirportHandler {
	return &AirportHandler{store: store, logger: logger}
}

// Register mounts the handler's routes on mux
func (h *AirportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /airports", h.listAirports)
	mux.HandleFunc("GET /airports/{icao}", h.getAirport)
}

type airportView struct {
	entity.Airport
	FriendlyName string `json:"friendlyName"`
}

type airportDetail struct {
	Airport airportView           `json:"airport"`
	Flights []entity.FlightRecord `json:"flights"`
}

func (h *AirportHandler) listAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.store.ListAirports(r.Context())
	if err != nil {
		h.logger.Error("Failed to list airports", "error", err)
		http.Error(w, "failed to list airports", http.StatusInternalServerError)
		return
	}

	views := make([]airportView, 0, len(airports))
	for i := range airports {
		views = append(views, airportView{Airport: airports[i], FriendlyName: airports[i].FriendlyName()})
	}
	h.writeJSON(w, views)
}

func (h *AirportHandler) getAirport(w http.ResponseWriter, r *http.Request) {
	icao := entity.NormalizeICAO(r.PathValue("icao"))
	airport, flights, err := h.store.AirportWithFlights(r.Context(), icao)
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "airport not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to load airport", "icao", icao, "error", err)
		http.Error(w, "failed to load airport", http.StatusInternalServerError)
		return
	}

	if flights == nil {
		flights = []entity.FlightRecord{}
	}
	h.writeJSON(w, airportDetail{
		Airport: airportView{Airport: airport, FriendlyName: airport.FriendlyName()},
		Flights: flights,
	})
}

func (h *AirportHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}
