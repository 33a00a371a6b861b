// Package api serves the facilitator unavailability endpoints the dashboard reads from.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
	"github.com/facilitatorhub/dashboard/pkg/db"
)

const maxBodyBytes = 64 << 10

// Pinger is implemented by stores that can report their connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the unavailability endpoints
type Handler struct {
	Store db.UnavailabilityStore
	Log   *zap.Logger

	// units restricts unit_id to configured units; nil accepts any id
	units  map[int]bool
	policy *bluemonday.Policy
}

// NewHandler creates a Handler. When units is non-empty, requests for other unit ids get "unit not found".
func NewHandler(store db.UnavailabilityStore, units []model.Unit, logger *zap.Logger) *Handler {
	h := &Handler{
		Store:  store,
		Log:    logger,
		policy: bluemonday.StrictPolicy(),
	}
	if len(units) > 0 {
		h.units = make(map[int]bool, len(units))
		for _, u := range units {
			h.units[u.ID] = true
		}
	}
	return h
}

type listResponse struct {
	Unavailabilities []model.UnavailabilityRecord `json:"unavailabilities"`
}

type recordResponse struct {
	Unavailability model.UnavailabilityRecord `json:"unavailability"`
}

func (h *Handler) knownUnit(id int) bool {
	return h.units == nil || h.units[id]
}

// List handles GET /facilitator/unavailability?unit_id=<id>
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	unitID, err := strconv.Atoi(r.URL.Query().Get("unit_id"))
	if err != nil || unitID < 1 {
		writeError(w, http.StatusBadRequest, "unit_id must be a positive integer")
		return
	}
	if !h.knownUnit(unitID) {
		writeError(w, http.StatusNotFound, "unit not found")
		return
	}

	records, err := h.Store.ListUnavailability(r.Context(), unitID)
	if err != nil {
		h.Log.Error("failed to list unavailability", zap.Int("unit_id", unitID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load unavailability")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Unavailabilities: records})
}

// Create handles POST /facilitator/unavailability
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	record, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	if err := h.Store.CreateUnavailability(r.Context(), &record); err != nil {
		h.Log.Error("failed to create unavailability", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save unavailability")
		return
	}

	h.Log.Info("unavailability created", zap.Int("id", record.ID), zap.Int("unit_id", record.UnitID), zap.String("date", record.Date))
	writeJSON(w, http.StatusCreated, recordResponse{Unavailability: record})
}

// Update handles PUT /facilitator/unavailability/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	record, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	record.ID = id

	if err := h.Store.UpdateUnavailability(r.Context(), &record); err != nil {
		h.storeError(w, "update", id, err)
		return
	}

	writeJSON(w, http.StatusOK, recordResponse{Unavailability: record})
}

// Delete handles DELETE /facilitator/unavailability/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteUnavailability(r.Context(), id); err != nil {
		h.storeError(w, "delete", id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	pinger, ok := h.Store.(Pinger)
	if !ok {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		h.Log.Error("health-check: database ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "error", Database: "disconnected", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}

// decodeRecord reads and validates the request body, writing a 400 response on failure
func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (model.UnavailabilityRecord, bool) {
	var req unavailabilityRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return model.UnavailabilityRecord{}, false
	}

	record, err := req.toRecord(h.policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.UnavailabilityRecord{}, false
	}

	if !h.knownUnit(record.UnitID) {
		writeError(w, http.StatusNotFound, "unit not found")
		return model.UnavailabilityRecord{}, false
	}

	return record, true
}

func (h *Handler) storeError(w http.ResponseWriter, op string, id int, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unavailability not found")
		return
	}
	h.Log.Error("failed to "+op+" unavailability", zap.Int("id", id), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to "+op+" unavailability")
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
