package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler is the player-facing transport: one connection per player,
// joined on upgrade, then a request/response message loop for status,
// answers, and results.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionPosition int      `json:"questionPosition"`
	AnswerIDs        []string `json:"answerIds"`
}

type questionResultPayload struct {
	QuestionPosition int `json:"questionPosition"`
}

type joinedPayload struct {
	PlayerID int `json:"playerId"`
}

type answerAccepted struct {
	QuestionPosition int `json:"questionPosition"`
	TotalScore       int `json:"totalScore"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ServeWS upgrades the request, joins the player into the session named by
// the query string, and serves their message loop. An empty name asks the
// registry to generate one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionIDRaw := r.URL.Query().Get("sessionId")
	name := r.URL.Query().Get("name")
	sessionID, err := strconv.Atoi(sessionIDRaw)
	if sessionIDRaw == "" || err != nil {
		http.Error(w, "missing or malformed sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	playerID, err := h.service.Join(r.Context(), sessionID, name)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorOf(err)})
		return
	}
	_ = conn.WriteJSON(outboundMessage[joinedPayload]{Type: "joined", Payload: joinedPayload{PlayerID: playerID}})

	// Single reader, responses written in-loop: no concurrent writers on the
	// connection.
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(conn, r, sessionID, playerID, inbound)
	}
}

func (h *WSHandler) dispatch(conn *websocket.Conn, r *http.Request, sessionID, playerID int, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "status":
		status, err := h.service.PlayerStatus(ctx, playerID)
		if err != nil {
			h.writeError(conn, err)
			return
		}
		_ = conn.WriteJSON(outboundMessage[domain.PlayerStatus]{Type: "status", Payload: status})

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.writeError(conn, domain.ErrInvalidInput)
			return
		}
		if err := h.service.SubmitAnswer(ctx, playerID, payload.QuestionPosition, payload.AnswerIDs); err != nil {
			h.writeError(conn, err)
			return
		}
		total, err := h.service.PlayerScore(ctx, playerID)
		if err != nil {
			h.writeError(conn, err)
			return
		}
		_ = conn.WriteJSON(outboundMessage[answerAccepted]{Type: "answerAccepted", Payload: answerAccepted{
			QuestionPosition: payload.QuestionPosition,
			TotalScore:       total,
		}})

	case "questionResult":
		var payload questionResultPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.writeError(conn, domain.ErrInvalidInput)
			return
		}
		result, err := h.service.QuestionResult(ctx, playerID, payload.QuestionPosition)
		if err != nil {
			h.writeError(conn, err)
			return
		}
		_ = conn.WriteJSON(outboundMessage[domain.QuestionResult]{Type: "questionResult", Payload: result})

	case "finalResults":
		results, err := h.service.FinalResults(ctx, sessionID)
		if err != nil {
			h.writeError(conn, err)
			return
		}
		_ = conn.WriteJSON(outboundMessage[domain.FinalResults]{Type: "finalResults", Payload: results})

	default:
		h.writeError(conn, domain.ErrInvalidInput)
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorOf(err)})
}
