package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/schema"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Error codes in error responses.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientUnits = "INSUFFICIENT_UNITS"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeInternal          = "INTERNAL"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
}

// AvailabilityResponse is returned by GET /api/houses/{id}/availability.
type AvailabilityResponse struct {
	ID           uint64 `json:"id"`
	Availability bool   `json:"availability"`
}

// PriceRequest is the body of PUT /api/houses/{id}/price.
type PriceRequest struct {
	Price *uint64 `json:"price"`
}

func (s *Server) handleAddHouse(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	h, err := s.svc.AddHouse(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetAllHouses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.GetAllHouses(r.Context()))
}

func (s *Server) handleGetAvailableHouses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.GetAvailableHouses(r.Context()))
}

func (s *Server) handleSearchHouses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.SearchHouses(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) handleSearchPrice(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseUint(r.PathValue("amount"), 10, 64)
	if err != nil || amount > schema.MaxAmount {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid price amount")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.SearchPrice(r.Context(), amount))
}

func (s *Server) handleSortHouseByName(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.SortHouseByName(r.Context()))
}

func (s *Server) handleGetHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h, err := s.svc.GetHouse(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleHouseAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	available, err := s.svc.HouseAvailability(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{ID: id, Availability: available})
}

func (s *Server) handleGetHouseUpdateHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GetHouseUpdateHistory(r.Context(), id))
}

func (s *Server) handleUpdateHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	h, err := s.svc.UpdateHouse(r.Context(), id, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleBuyHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	h, err := s.svc.BuyHouse(r.Context(), id, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSetHouseAvailable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h, err := s.svc.SetHouseAvailable(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSetHouseNotAvailable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h, err := s.svc.SetHouseNotAvailable(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req PriceRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || req.Price == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPayload, `Body must be {"price": <non-negative integer>}`)
		return
	}
	h, err := s.svc.SetPrice(r.Context(), id, *req.Price)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h, err := s.svc.DeleteHouse(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// readPayload reads and schema-checks a house payload body. On failure the
// response has been written.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (model.HousePayload, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Could not read request body")
		return model.HousePayload{}, false
	}
	p, err := s.svc.DecodePayload(raw)
	if err != nil {
		writeServiceError(w, err)
		return model.HousePayload{}, false
	}
	return p, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, fmt.Sprintf("Invalid house id %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var ve *schema.ValidationError
	switch {
	case model.IsNotFound(err):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case model.IsInsufficientUnits(err):
		writeError(w, http.StatusConflict, CodeInsufficientUnits, err.Error())
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
			Code:    CodeInvalidPayload,
			Message: err.Error(),
			Fields:  ve.Errors,
		}})
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}
