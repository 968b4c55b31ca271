package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/branchplay/branchplay/internal/httputil"
	"github.com/branchplay/branchplay/internal/validate"
)

type Asker interface {
	Ask(ctx context.Context, message string, webSearch bool) (string, error)
}

// Handler proxies viewer questions to the hosted model so the API key never
// reaches the browser. A nil Asker disables the endpoint.
type Handler struct {
	asker Asker
}

func NewHandler(a Asker) *Handler {
	return &Handler{asker: a}
}

type askRequest struct {
	Message   string `json:"message"`
	WebSearch bool   `json:"webSearch"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.asker == nil {
		httputil.WriteError(w, http.StatusForbidden, "chat is disabled")
		return
	}

	var req askRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		httputil.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}
	if msg := validate.ChatMessage(req.Message); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	reply, err := h.asker.Ask(r.Context(), req.Message, req.WebSearch)
	if err != nil {
		slog.Error("chat: model request failed", "web_search", req.WebSearch, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "chat service unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, askResponse{Reply: reply})
}
