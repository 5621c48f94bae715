package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperr "github.com/hilo-match/hilo/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the error to an HTTP status and a safe message. Internal
// details go to the log, never to the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("malformed request body")
	}
	return nil
}
