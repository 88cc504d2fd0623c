package receiver

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"submitbox/internal/signature"
	"submitbox/internal/submission"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const MaxPayloadBytes = 64 * 1024 // 64 KB

// HandleSubmit verifies a signed submission and answers with a receipt
func (s *Server) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxPayloadBytes {
		s.respondJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		s.respondJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Invalid content type"})
		return
	}

	// Read one byte past the limit to detect oversized chunked bodies
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes+1))
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to read request body")
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to read payload"})
		return
	}
	if len(body) > MaxPayloadBytes {
		s.respondJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}

	// Verify against the raw bytes, before any parsing
	if !signature.Verify(body, r.Header.Get(signature.Header), s.Secret) {
		s.Logger.Warn().Str("request_id", middleware.GetReqID(r.Context())).Msg("Rejected submission with invalid signature")
		s.respondJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid signature"})
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return
	}

	var missing []string
	for _, key := range submission.Keys {
		if _, ok := payload[key].(string); !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Missing payload fields",
			"missing": missing,
		})
		return
	}

	receipt := uuid.NewString()
	s.received.Add(1)

	s.Logger.Info().
		Str("receipt", receipt).
		Interface("name", payload[submission.KeyName]).
		Interface("action_run_link", payload[submission.KeyActionRunLink]).
		Msg("Accepted submission")

	s.respondJSON(w, http.StatusOK, map[string]string{"receipt": receipt})
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"received": s.Received(),
	})
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
