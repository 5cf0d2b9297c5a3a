package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/guildscript/webapi/configstore"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed encoding response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStoreError maps the config store error taxonomy onto HTTP statuses.
// Anything outside the domain taxonomy is logged and surfaced opaquely so
// storage internals never leak to callers.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, configstore.ScriptNotFoundErr):
		writeError(w, http.StatusNotFound, "script not found")
	case errors.Is(err, configstore.LinkNotFoundErr):
		writeError(w, http.StatusNotFound, "script link not found")
	case errors.Is(err, configstore.ScriptExistsErr):
		writeError(w, http.StatusConflict, "script already exists")
	case errors.Is(err, configstore.LinkExistsErr):
		writeError(w, http.StatusConflict, "script link already exists")
	default:
		log.Err(err).Msg("config store operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func guildIDFromRequest(r *http.Request) (uint64, error) {
	raw := r.PathValue("guildID")
	guildID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("bad guild id %q", raw)
	}
	return guildID, nil
}
