package server

import (
	"encoding/json"
	"net/http"

	"github.com/guildscript/webapi/configstore"
)

// ListScriptsHandler returns every script in the guild.
func (s *Server) ListScriptsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		scripts, err := s.configStore.ListScripts(r.Context(), guildID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scripts)
	}
}

// GetScriptHandler returns a single script by name.
func (s *Server) GetScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		script, err := s.configStore.GetScript(r.Context(), guildID, r.PathValue("name"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, script)
	}
}

// CreateScriptHandler creates a script from the request body; the store
// assigns the id.
func (s *Server) CreateScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var create configstore.CreateScript
		if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}
		if create.Name == "" {
			writeError(w, http.StatusBadRequest, "script name is required")
			return
		}

		script, err := s.configStore.CreateScript(r.Context(), guildID, create)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, script)
	}
}

// UpdateScriptHandler replaces a script's source and compiled output.
func (s *Server) UpdateScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var script configstore.Script
		if err := json.NewDecoder(r.Body).Decode(&script); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}
		script.Name = r.PathValue("name")

		updated, err := s.configStore.UpdateScript(r.Context(), guildID, script)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DelScriptHandler deletes a script and cascades to its links.
func (s *Server) DelScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.configStore.DelScript(r.Context(), guildID, r.PathValue("name")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListScriptLinksHandler returns the links of a single script.
func (s *Server) ListScriptLinksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		links, err := s.configStore.ListScriptLinks(r.Context(), guildID, r.PathValue("name"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	}
}

// LinkScriptHandler binds a script to the context given in the body.
func (s *Server) LinkScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var scriptCtx configstore.ScriptContext
		if err := json.NewDecoder(r.Body).Decode(&scriptCtx); err != nil {
			writeError(w, http.StatusBadRequest, "bad context in request body")
			return
		}

		link, err := s.configStore.LinkScript(r.Context(), guildID, r.PathValue("name"), scriptCtx)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

// UnlinkScriptHandler removes the binding to the context given in the body.
func (s *Server) UnlinkScriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var scriptCtx configstore.ScriptContext
		if err := json.NewDecoder(r.Body).Decode(&scriptCtx); err != nil {
			writeError(w, http.StatusBadRequest, "bad context in request body")
			return
		}

		if err := s.configStore.UnlinkScript(r.Context(), guildID, r.PathValue("name"), scriptCtx); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListLinksHandler returns every link in the guild.
func (s *Server) ListLinksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		links, err := s.configStore.ListLinks(r.Context(), guildID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	}
}
