package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse/visitgate/internal/domain"
)

func (h *Handlers) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	var req domain.CreateVisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	visitor, err := h.visitorService.Create(r.Context(), &req, claims.Sub, idempotencyKey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, "Visitor created successfully", visitor)
}

func (h *Handlers) CheckInVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	}

	var patch domain.VisitorPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	visitor, err := h.visitorService.RecordCheckIn(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "Visitor updated successfully", visitor)
}

func (h *Handlers) CheckOutVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	}

	visitor, err := h.visitorService.RecordCheckOut(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "Visitor checked out successfully", visitor)
}

func (h *Handlers) ListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.visitorService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "Visitors fetched successfully", visitors)
}

func (h *Handlers) ListMyVisitors(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	visitors, err := h.visitorService.ListMine(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "Visitors fetched successfully", visitors)
}

func (h *Handlers) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visitor ID")
		return
	}

	var req domain.UpdateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	visitor, err := h.visitorService.UpdateMeeting(r.Context(), id, claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "Meeting details updated successfully", visitor)
}
