// Package configstore owns per-guild tenant data: named scripts, their links
// to scoping contexts, guild metadata and the set of guilds the platform's
// agent is currently a member of.
package configstore

import (
	"context"
	"errors"
)

var (
	// ScriptNotFoundErr is returned when no script matches (guildID, name).
	ScriptNotFoundErr = errors.New("script not found")
	// ScriptExistsErr is returned by CreateScript on a (guildID, name)
	// conflict; creation never silently overwrites.
	ScriptExistsErr = errors.New("script already exists")
	// LinkNotFoundErr is returned when no link matches (guildID, name, context).
	LinkNotFoundErr = errors.New("script link not found")
	// LinkExistsErr is returned by LinkScript on a duplicate (name, context)
	// pair; linking rejects duplicates rather than being idempotent.
	LinkExistsErr = errors.New("script link already exists")
)

// Script is an opaque source/compiled-output pair named uniquely within its
// guild. IDs are store-assigned.
type Script struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	OriginalSource string `json:"original_source"`
	CompiledJS     string `json:"compiled_js"`
}

// CreateScript is the creation payload; the store assigns the ID.
type CreateScript struct {
	Name           string `json:"name"`
	OriginalSource string `json:"original_source"`
	CompiledJS     string `json:"compiled_js"`
}

// ScriptLink binds a named script to a context within a guild. A given
// (guildID, ScriptName, Context) triple appears at most once.
type ScriptLink struct {
	ScriptName string        `json:"script_name"`
	Context    ScriptContext `json:"context"`
}

// GuildMetaConfig is the per-guild metadata record, defaulted to an all-empty
// value when a guild has never stored one.
type GuildMetaConfig struct {
	GuildID        uint64  `json:"guild_id,string"`
	ErrorChannelID *uint64 `json:"error_channel_id,string,omitempty"`
}

// JoinedGuild records current membership of the platform's agent in a guild.
type JoinedGuild struct {
	ID      uint64 `json:"id,string"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	OwnerID uint64 `json:"owner_id,string"`
}

// Repo is the config store contract. All operations are guild-scoped unless
// noted; results are always copies, never live references. Implementations
// are safe for concurrent use and serialize writes touching the same
// (guildID, script name) key.
type Repo interface {
	GetScript(ctx context.Context, guildID uint64, name string) (*Script, error)
	CreateScript(ctx context.Context, guildID uint64, script CreateScript) (*Script, error)
	UpdateScript(ctx context.Context, guildID uint64, script Script) (*Script, error)
	// DelScript removes the script and cascades to every link referencing it.
	DelScript(ctx context.Context, guildID uint64, name string) error
	ListScripts(ctx context.Context, guildID uint64) ([]Script, error)

	LinkScript(ctx context.Context, guildID uint64, name string, scriptCtx ScriptContext) (*ScriptLink, error)
	UnlinkScript(ctx context.Context, guildID uint64, name string, scriptCtx ScriptContext) error
	// UnlinkAllScript removes every link for the script and reports how many
	// were removed.
	UnlinkAllScript(ctx context.Context, guildID uint64, name string) (int64, error)
	ListScriptLinks(ctx context.Context, guildID uint64, name string) ([]ScriptLink, error)
	ListLinks(ctx context.Context, guildID uint64) ([]ScriptLink, error)
	// ListContextScripts resolves which scripts are active for a scope; this
	// is the read path script execution uses to decide what to run.
	ListContextScripts(ctx context.Context, guildID uint64, scriptCtx ScriptContext) ([]Script, error)

	// GetGuildMetaConfig returns (nil, nil) when the guild has no stored
	// config.
	GetGuildMetaConfig(ctx context.Context, guildID uint64) (*GuildMetaConfig, error)
	UpdateGuildMetaConfig(ctx context.Context, conf GuildMetaConfig) (*GuildMetaConfig, error)

	AddUpdateJoinedGuild(ctx context.Context, guild JoinedGuild) (*JoinedGuild, error)
	RemoveJoinedGuild(ctx context.Context, guildID uint64) (bool, error)
	// GetJoinedGuilds is a batched lookup; absent ids are omitted, not errors.
	GetJoinedGuilds(ctx context.Context, ids []uint64) ([]JoinedGuild, error)
}

// GetGuildMetaConfigOrDefault returns the stored config or a zero-valued one
// keyed to guildID; absence is never an error.
func GetGuildMetaConfigOrDefault(ctx context.Context, repo Repo, guildID uint64) (*GuildMetaConfig, error) {
	conf, err := repo.GetGuildMetaConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return &GuildMetaConfig{GuildID: guildID}, nil
	}
	return conf, nil
}
