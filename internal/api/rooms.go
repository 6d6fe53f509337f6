package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/navikt/huddle/internal/models"
	"github.com/navikt/huddle/internal/provider"
	"github.com/navikt/huddle/internal/service"
	"github.com/navikt/huddle/internal/utils"
)

// RoomHandler handles HTTP requests for room session management
type RoomHandler struct {
	coordinator *service.SessionCoordinator
}

// NewRoomHandler creates a new room handler with the given coordinator
func NewRoomHandler(coordinator *service.SessionCoordinator) *RoomHandler {
	return &RoomHandler{
		coordinator: coordinator,
	}
}

// joinRequest is the body for POST /api/rooms/{title}/join
type joinRequest struct {
	AttendeeName  string `json:"attendee_name"`
	UserEmail     string `json:"user_email"`
	TeamID        string `json:"team_id"`
	MediaRegion   string `json:"media_region"`
	EchoReduction bool   `json:"echo_reduction"`
}

// endRequest is the body for POST /api/rooms/{title}/end
type endRequest struct {
	ParticipantName      string `json:"participant_name"`
	UserEmail            string `json:"user_email"`
	TerminationAuthority bool   `json:"termination_authority"`
}

// joinResponse carries the provider descriptors back to the caller. The
// meeting payload is passed through opaque and untouched.
type joinResponse struct {
	Meeting  json.RawMessage    `json:"meeting"`
	Attendee *provider.Attendee `json:"attendee"`
}

// ServeHTTP routes room session requests.
// Path format: /api/rooms/{title}/join, /api/rooms/{title}/end,
// /api/rooms/{title}/attendees/{attendeeID}
func (h *RoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts: ["api", "rooms", {title}, {action}, ...]
	if len(parts) < 4 || parts[0] != "api" || parts[1] != "rooms" || parts[2] == "" {
		http.NotFound(w, r)
		return
	}

	title := parts[2]
	action := parts[3]

	switch {
	case r.Method == http.MethodPost && action == "join" && len(parts) == 4:
		h.join(w, r, title)
	case r.Method == http.MethodPost && action == "end" && len(parts) == 4:
		h.end(w, r, title)
	case r.Method == http.MethodGet && action == "attendees" && len(parts) == 5:
		h.getAttendee(w, r, title, parts[4])
	default:
		http.NotFound(w, r)
	}
}

// join handles POST /api/rooms/{title}/join
func (h *RoomHandler) join(w http.ResponseWriter, r *http.Request, title string) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result, err := h.coordinator.Join(r.Context(), service.JoinParams{
		Title:         title,
		AttendeeName:  req.AttendeeName,
		UserEmail:     req.UserEmail,
		TeamID:        req.TeamID,
		MediaRegion:   req.MediaRegion,
		EchoReduction: req.EchoReduction,
	})
	if err != nil {
		writeError(w, err, "join", title)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(joinResponse{
		Meeting:  result.Meeting.Raw,
		Attendee: result.Attendee,
	})
}

// end handles POST /api/rooms/{title}/end
func (h *RoomHandler) end(w http.ResponseWriter, r *http.Request, title string) {
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	err := h.coordinator.End(r.Context(), service.EndParams{
		Title:                title,
		ParticipantName:      req.ParticipantName,
		UserEmail:            req.UserEmail,
		TerminationAuthority: req.TerminationAuthority,
	})
	if err != nil {
		writeError(w, err, "end", title)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Session ended",
	})
}

// getAttendee handles GET /api/rooms/{title}/attendees/{attendeeID}
func (h *RoomHandler) getAttendee(w http.ResponseWriter, r *http.Request, title, attendeeID string) {
	rec, err := h.coordinator.ResolveAttendee(r.Context(), title, attendeeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Attendee not found", http.StatusNotFound)
			return
		}
		writeError(w, err, "attendee lookup", title)
		return
	}

	json.NewEncoder(w).Encode(rec)
}

// writeError maps the error taxonomy to transport status codes
func writeError(w http.ResponseWriter, err error, operation, title string) {
	log.Printf("Error during %s for room %s: %v", operation, utils.SanitizeLogString(title), err)

	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, provider.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrStaleSession):
		// The stale record is gone; the caller should retry
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, provider.ErrUnavailable):
		http.Error(w, "Conferencing provider unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
