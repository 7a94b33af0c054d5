package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// RespondText wraps text in the {"response": ...} envelope used by every chat reply,
// including failures.
func RespondText(w http.ResponseWriter, status int, text string) {
	RespondJSON(w, status, map[string]string{"response": text})
}
