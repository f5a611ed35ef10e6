package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every non-2xx API response. Kind is omitted
// for routing errors such as 404.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "component", "api", "error", err)
	}
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, msg, kind string) {
	WriteJSON(w, status, ErrorBody{Error: msg, Kind: kind})
}
