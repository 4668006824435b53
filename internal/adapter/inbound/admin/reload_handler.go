// Package admin provides the API-key-gated administrative endpoint that
// forces the rule engine to recompile its indices.
package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/textguard/textguard/internal/domain/adminauth"
	"github.com/textguard/textguard/internal/domain/guard"
)

// ReloadHandler serves POST /admin/reload, gated by an optional admin API
// key. When no key is configured, the endpoint is unauthenticated; operators
// are expected to front it with network-level controls in that case.
type ReloadHandler struct {
	engine   *guard.Engine
	verifier *adminauth.Verifier
	logger   *slog.Logger
}

// NewReloadHandler creates a ReloadHandler. Pass nil verifier to leave the
// endpoint unauthenticated.
func NewReloadHandler(engine *guard.Engine, verifier *adminauth.Verifier, logger *slog.Logger) *ReloadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadHandler{engine: engine, verifier: verifier, logger: logger}
}

// reloadResponse is the JSON response for POST /admin/reload.
type reloadResponse struct {
	Status string `json:"status"`
	Rules  int    `json:"rules"`
}

// Handler returns the routed /admin/ handler: only /admin/reload is
// currently served.
func (h *ReloadHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/reload", h.requireAdminKey(h.handleReload))
	return mux
}

// requireAdminKey wraps next with Authorization: Bearer <key> verification.
// When h.verifier is nil, the wrapped handler runs unconditionally.
func (h *ReloadHandler) requireAdminKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.verifier == nil {
			next(w, r)
			return
		}

		key := bearerToken(r.Header.Get("Authorization"))
		if key == "" {
			h.respondError(w, http.StatusUnauthorized, "missing admin API key")
			return
		}
		if err := h.verifier.Verify(key); err != nil {
			if errors.Is(err, adminauth.ErrInvalidKey) {
				h.respondError(w, http.StatusForbidden, "invalid admin API key")
				return
			}
			h.logger.Error("admin key verification failed", "error", err)
			h.respondError(w, http.StatusInternalServerError, "admin key verification failed")
			return
		}
		next(w, r)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

// handleReload forces the engine to recompile its indices regardless of
// mtime, for use after an operator edits the rule document out-of-band.
func (h *ReloadHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.engine.Reload(r.Context()); err != nil {
		h.logger.Error("admin reload failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	snap := h.engine.Snapshot()
	h.respondJSON(w, http.StatusOK, reloadResponse{Status: "reloaded", Rules: len(snap.RuleSet.Rules)})
}

func (h *ReloadHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *ReloadHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
