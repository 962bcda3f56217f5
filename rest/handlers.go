// Package rest exposes the boundary collaborators around the core: paginated
// history, room listing and the pairwise conversation variant. The realtime
// path lives in the gateway; these handlers only read and do synchronous
// writes, so constraint failures are surfaced here instead of dropped.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"roomchat/domain"
	"roomchat/errors"
	"roomchat/repositories"
	"roomchat/services"

	"github.com/samber/lo"
)

type Handler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewHandler(log *slog.Logger, service services.IChatService) *Handler {
	return &Handler{log: log, service: service}
}

// Routes registers every REST endpoint on a fresh mux. Room history is open
// like the original boundary; listing and conversations require the same
// authentication path as the realtime handshake.
func (h *Handler) Routes(auth *Middleware) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /messages/{room}", h.getMessages)
	mux.Handle("GET /rooms", auth.Require(h.listRooms))
	mux.Handle("GET /conversations/{with}", auth.Require(h.getConversation))
	mux.Handle("POST /conversations/{with}", auth.Require(h.postConversation))
	return mux
}

// getMessages serves GET /messages/{room}?limit=&offset=.
// A non-integer limit or offset is a server error; missing ones fall back to
// 20 and 0. The result is the descending-sorted page, JSON-encoded.
func (h *Handler) getMessages(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	limit := repositories.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		offset = parsed
	}

	h.writeJSON(w, h.service.History(room, offset, limit))
}

func (h *Handler) listRooms(w http.ResponseWriter, _ *http.Request, _ domain.Identity) {
	h.writeJSON(w, h.service.Rooms())
}

// getConversation serves GET /conversations/{with}?lastReceivedTimestamp=.
// The caller's verified subject is one side of the pair; the cursor, when
// present, must be a non-negative integer and filters strictly older messages.
func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	with := r.PathValue("with")

	var before *int64
	if raw := r.URL.Query().Get("lastReceivedTimestamp"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "lastReceivedTimestamp must be an integer value greater than or equal to 0",
				http.StatusBadRequest)
			return
		}
		before = lo.ToPtr(parsed)
	}

	messages, err := h.service.ConversationHistory(identity.Subject, with, before)
	if err != nil {
		h.log.Error("Conversation query failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, messages)
}

type sendDirectRequest struct {
	TimestampUTC *int64 `json:"timestamp_utc"`
	Text         string `json:"text"`
}

// postConversation is the synchronous write API of the pairwise variant.
// Unlike the fail-open realtime pipeline, a duplicate composite key is
// surfaced to the caller as a conflict.
func (h *Handler) postConversation(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	with := r.PathValue("with")

	var req sendDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimestampUTC == nil {
		http.Error(w, "body must carry timestamp_utc and text", http.StatusBadRequest)
		return
	}

	switch err := h.service.SendDirect(identity.Subject, with, *req.TimestampUTC, req.Text); err {
	case nil:
		w.WriteHeader(http.StatusCreated)
	case errors.ErrConstraintViolation:
		http.Error(w, "message already exists", http.StatusConflict)
	default:
		h.log.Error("Conversation write failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Response encoding failed", "error", err)
	}
}
