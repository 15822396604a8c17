// Package handler exposes the itinerary planning engine over HTTP: decode
// request, call the use case, write the response — grounded on the
// teacher's ride_handler.go decode/validate/call shape and handler.go's
// writeJSON/errors.Is status-mapping idiom.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/service"
)

// ItineraryHandler exposes ItineraryService.PlanItinerary as an HTTP endpoint.
type ItineraryHandler struct {
	svc    *service.ItineraryService
	logger *zap.Logger
}

// NewItineraryHandler builds an ItineraryHandler over svc.
func NewItineraryHandler(svc *service.ItineraryService, logger *zap.Logger) *ItineraryHandler {
	return &ItineraryHandler{svc: svc, logger: logger}
}

// PlanItinerary handles POST /api/v1/itinerary. IncludeBreaks and MultiDay
// are pre-populated to true on the decode target before unmarshaling, so an
// omitted JSON field keeps the spec default of true while an explicit
// "includeBreaks": false still overrides it — see itinerary_service.go's
// validateAndDefault doc comment for why this can't be done in the service
// layer, since a bare Go bool can't represent "omitted".
func (h *ItineraryHandler) PlanItinerary(w http.ResponseWriter, r *http.Request) {
	req := model.Request{
		IncludeBreaks: true,
		MultiDay:      true,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "malformed request body: "+err.Error()))
		return
	}

	resp, err := h.svc.PlanItinerary(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes data as a JSON body with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorBody is the JSON shape returned for every failed request.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError classifies err by apperr.Kind and writes the matching HTTP
// status, mirroring the teacher's errors.Is-based status switch.
func writeError(w http.ResponseWriter, err error) {
	kind, _ := apperr.KindOf(err)
	status := statusForKind(kind)
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: string(kind)})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindProviderInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindProviderDenied:
		return http.StatusForbidden
	case apperr.KindProviderQuota, apperr.KindProviderRateLimit:
		return http.StatusTooManyRequests
	case apperr.KindDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
