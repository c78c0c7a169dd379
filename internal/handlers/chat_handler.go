package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatRegistry lists the open chat connections
type ChatRegistry interface {
	// Method List returns the ids of every registered connection.
	List() []string
}

// ChatHandler serves the chat page, its websocket and the connection list
type ChatHandler struct {
	BaseHandler
	view     Renderer
	registry ChatRegistry
	socket   http.Handler
}

// NewChatHandler creates a new chat handler
func NewChatHandler(view Renderer, registry ChatRegistry, socket http.Handler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: BaseHandler{Logger: logger},
		view:        view,
		registry:    registry,
		socket:      socket,
	}
}

// RegisterRoutes registers the chat routes; requireLogin guards the chat page
func (h *ChatHandler) RegisterRoutes(r chi.Router, requireLogin func(http.Handler) http.Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.With(requireLogin).Get("/", h.Page)
		r.Handle("/socket", h.socket)
		r.Get("/list", h.List)
	})
}

// Page handles GET /chat
func (h *ChatHandler) Page(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if err := h.view.Render(w, http.StatusOK, "chat", page{Title: "Chat", User: user}); err != nil {
		h.Logger.Error("failed to render page", zap.String("page", "chat"), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// List handles GET /chat/list
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.registry.List())
}
