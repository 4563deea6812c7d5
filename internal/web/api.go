package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"safetycal/internal/dispatch"
	appLog "safetycal/internal/log"
)

type prefillResponse struct {
	Route string         `json:"route"`
	Draft dispatch.Draft `json:"draft"`
}

// handleCreate routes an event authored in the calendar dialog.
//
// POST /api/events
//
// Trainings and tasks answer 200 with a navigation to their creation form;
// everything else is stored and answers 201 with the created event.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req dispatch.Authored
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ev, err := req.Event()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.dispatcher.Create(r.Context(), ev)
	switch {
	case errors.Is(err, dispatch.ErrInvalidDraft):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		appLog.Error("api create: dispatch failed", err, "type", ev.Type, "title", ev.Title)
		writeError(w, http.StatusBadGateway, "failed to create event")
		return
	}

	if out.Created != nil {
		writeJSON(w, http.StatusCreated, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePrefill hands a creation form its prefill, once.
//
// GET /api/prefill/{token}
func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	route, draft, ok := s.prefills.Take(r.PathValue("token"))
	if !ok {
		writeError(w, http.StatusNotFound, "prefill not found")
		return
	}
	writeJSON(w, http.StatusOK, prefillResponse{Route: route, Draft: draft})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Summarize(r.Context()))
}
