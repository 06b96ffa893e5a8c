package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/engine"
	"github.com/cookedzera/RetroQuery/internal/identity"
)

const maxBodyBytes = 1 << 20

// Executor runs intents. *engine.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, intent string, params engine.Params) domain.Envelope
	Intents() []engine.IntentInfo
}

// APIHandlers exposes the engine over HTTP.
type APIHandlers struct {
	logger   *slog.Logger
	executor Executor
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, executor Executor) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		executor: executor,
	}
}

type executeRequest struct {
	Intent     string        `json:"intent"`
	Parameters engine.Params `json:"parameters"`
}

// handleExecute answers any well-formed request with 200 and an envelope;
// whether the intent succeeded is carried in the envelope itself.
func (h *APIHandlers) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Intent) == "" {
		writeError(w, http.StatusBadRequest, "intent is required")
		return
	}

	env := h.executor.Execute(r.Context(), req.Intent, req.Parameters)
	if !env.Success {
		h.logger.Info("intent unsuccessful",
			"intent", req.Intent,
			"message", env.Message,
			"request_id", requestIDFrom(r.Context()),
		)
	}
	respondJSON(w, http.StatusOK, env)
}

func (h *APIHandlers) handleIntents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"intents": h.executor.Intents(),
	})
}

func (h *APIHandlers) handleNormalize(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("input")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "input query parameter is required")
		return
	}
	desc := identity.Normalize(raw)
	respondJSON(w, http.StatusOK, map[string]any{
		"descriptor": desc,
		"userkey":    desc.Userkey(),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
