package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
)

// OwnerHeader carries the verified identity of the quiz owner. Token
// verification happens upstream; by the time a request reaches this handler
// the header value is a trusted user id.
const OwnerHeader = "X-Owner-Id"

// AdminHandler is the operator-facing surface: start sessions, drive the
// state machine, and inspect session state.
type AdminHandler struct {
	service *app.SessionService
}

func NewAdminHandler(service *app.SessionService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Register mounts the admin routes.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/admin/quiz/{quizid}/session/start", h.startSession)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/sessions", h.listSessions)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/session/{sessionid}", h.getSession)
	mux.HandleFunc("PUT /v1/admin/quiz/{quizid}/session/{sessionid}", h.applyAction)
}

type startSessionRequest struct {
	AutoStartNum int `json:"autoStartNum"`
}

type startSessionResponse struct {
	SessionID int `json:"sessionId"`
}

type actionRequest struct {
	Action string `json:"action"`
}

func (h *AdminHandler) startSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	sessionID, err := h.service.StartSession(r.Context(), ownerID, r.PathValue("quizid"), req.AutoStartNum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startSessionResponse{SessionID: sessionID})
}

func (h *AdminHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListSessions(r.Context(), ownerID, r.PathValue("quizid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) getSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := h.service.GetSession(r.Context(), ownerID, r.PathValue("quizid"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AdminHandler) applyAction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.service.ApplyAction(r.Context(), ownerID, r.PathValue("quizid"), sessionID, req.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.Header.Get(OwnerHeader)
	if ownerID == "" {
		http.Error(w, "missing "+OwnerHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return ownerID, true
}

func sessionID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("sessionid"))
	if err != nil {
		return 0, domain.ErrInvalidInput
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorOf(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorOf(err error) errorPayload {
	return errorPayload{Kind: kindOf(err), Message: err.Error()}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "NotFound"
	case errors.Is(err, domain.ErrForbidden):
		return "Forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, domain.ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, domain.ErrPrecondition):
		return "Precondition"
	}
	return "Internal"
}
