package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/guildscript/webapi/configstore"
	"github.com/guildscript/webapi/internal/utils"
)

// GuildListEntry is a guild the caller belongs to that the platform's agent
// has also joined.
type GuildListEntry struct {
	Guild configstore.JoinedGuild `json:"guild"`
	Owner bool                    `json:"owner"`
}

// ListGuildsHandler intersects the caller's provider guilds with the agent's
// joined-guild set.
func (s *Server) ListGuildsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())

		userGuilds, err := s.provider.FetchGuilds(r.Context(), &session.Credentials)
		if err != nil {
			log.Err(err).Msg("failed fetching user guilds from identity provider")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ids := make([]uint64, 0, len(userGuilds))
		ownership := make(map[uint64]bool, len(userGuilds))
		for _, g := range userGuilds {
			ids = append(ids, g.ID)
			ownership[g.ID] = g.Owner
		}

		joined, err := s.configStore.GetJoinedGuilds(r.Context(), ids)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		entries := make([]GuildListEntry, 0, len(joined))
		for _, g := range joined {
			entries = append(entries, GuildListEntry{Guild: g, Owner: ownership[g.ID]})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// guildSettingsBody is the PUT payload for guild settings.
type guildSettingsBody struct {
	ErrorChannelID *uint64 `json:"error_channel_id,string,omitempty"`
}

// GetGuildSettingsHandler returns the guild meta config, defaulted to an
// all-empty value when the guild has never stored one.
func (s *Server) GetGuildSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		conf, err := configstore.GetGuildMetaConfigOrDefault(r.Context(), s.configStore, guildID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conf)
	}
}

// UpdateGuildSettingsHandler upserts the guild meta config.
func (s *Server) UpdateGuildSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID, err := guildIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body guildSettingsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}

		conf := configstore.GuildMetaConfig{GuildID: guildID}
		if body.ErrorChannelID != nil {
			conf.ErrorChannelID = utils.Ptr(*body.ErrorChannelID)
		}

		updated, err := s.configStore.UpdateGuildMetaConfig(r.Context(), conf)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
