package configstore

import (
	"context"
	"sync"
)

type linkKey struct {
	name string
	kind ContextKind
	id   uint64
}

type guildData struct {
	scripts map[string]Script
	links   map[linkKey]struct{}
}

// InMemoryRepo is a mutex-guarded config store for tests and single-instance
// deployments. A single lock serializes all writes, which trivially satisfies
// the per-(guild, script) serialization requirement.
type InMemoryRepo struct {
	mu           sync.RWMutex
	guilds       map[uint64]*guildData
	metaConfigs  map[uint64]GuildMetaConfig
	joinedGuilds map[uint64]JoinedGuild
	nextScriptID uint64
}

func NewInMemory() *InMemoryRepo {
	return &InMemoryRepo{
		guilds:       make(map[uint64]*guildData),
		metaConfigs:  make(map[uint64]GuildMetaConfig),
		joinedGuilds: make(map[uint64]JoinedGuild),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) guild(guildID uint64) *guildData {
	g, ok := r.guilds[guildID]
	if !ok {
		g = &guildData{
			scripts: make(map[string]Script),
			links:   make(map[linkKey]struct{}),
		}
		r.guilds[guildID] = g
	}
	return g
}

func (r *InMemoryRepo) GetScript(_ context.Context, guildID uint64, name string) (*Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return nil, ScriptNotFoundErr
	}
	script, ok := g.scripts[name]
	if !ok {
		return nil, ScriptNotFoundErr
	}
	return &script, nil
}

func (r *InMemoryRepo) CreateScript(_ context.Context, guildID uint64, create CreateScript) (*Script, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := r.guild(guildID)
	if _, exists := g.scripts[create.Name]; exists {
		return nil, ScriptExistsErr
	}

	r.nextScriptID++
	script := Script{
		ID:             r.nextScriptID,
		Name:           create.Name,
		OriginalSource: create.OriginalSource,
		CompiledJS:     create.CompiledJS,
	}
	g.scripts[script.Name] = script

	return &script, nil
}

func (r *InMemoryRepo) UpdateScript(_ context.Context, guildID uint64, script Script) (*Script, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return nil, ScriptNotFoundErr
	}
	current, ok := g.scripts[script.Name]
	if !ok {
		return nil, ScriptNotFoundErr
	}

	script.ID = current.ID
	g.scripts[script.Name] = script

	return &script, nil
}

func (r *InMemoryRepo) DelScript(_ context.Context, guildID uint64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return ScriptNotFoundErr
	}
	if _, ok := g.scripts[name]; !ok {
		return ScriptNotFoundErr
	}

	delete(g.scripts, name)
	r.unlinkAllLocked(g, name)

	return nil
}

func (r *InMemoryRepo) ListScripts(_ context.Context, guildID uint64) ([]Script, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return []Script{}, nil
	}

	scripts := make([]Script, 0, len(g.scripts))
	for _, s := range g.scripts {
		scripts = append(scripts, s)
	}
	return scripts, nil
}

func (r *InMemoryRepo) LinkScript(_ context.Context, guildID uint64, name string, scriptCtx ScriptContext) (*ScriptLink, error) {
	if err := scriptCtx.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return nil, ScriptNotFoundErr
	}
	if _, ok := g.scripts[name]; !ok {
		return nil, ScriptNotFoundErr
	}

	key := linkKey{name: name, kind: scriptCtx.Kind, id: scriptCtx.ID}
	if _, exists := g.links[key]; exists {
		return nil, LinkExistsErr
	}
	g.links[key] = struct{}{}

	return &ScriptLink{ScriptName: name, Context: scriptCtx}, nil
}

func (r *InMemoryRepo) UnlinkScript(_ context.Context, guildID uint64, name string, scriptCtx ScriptContext) error {
	if err := scriptCtx.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return LinkNotFoundErr
	}

	key := linkKey{name: name, kind: scriptCtx.Kind, id: scriptCtx.ID}
	if _, exists := g.links[key]; !exists {
		return LinkNotFoundErr
	}
	delete(g.links, key)

	return nil
}

func (r *InMemoryRepo) UnlinkAllScript(_ context.Context, guildID uint64, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[guildID]
	if !ok {
		return 0, nil
	}
	return r.unlinkAllLocked(g, name), nil
}

func (r *InMemoryRepo) unlinkAllLocked(g *guildData, name string) int64 {
	var removed int64
	for key := range g.links {
		if key.name == name {
			delete(g.links, key)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) ListScriptLinks(_ context.Context, guildID uint64, name string) ([]ScriptLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := []ScriptLink{}
	g, ok := r.guilds[guildID]
	if !ok {
		return links, nil
	}

	for key := range g.links {
		if key.name == name {
			links = append(links, linkFromKey(key))
		}
	}
	return links, nil
}

func (r *InMemoryRepo) ListLinks(_ context.Context, guildID uint64) ([]ScriptLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := []ScriptLink{}
	g, ok := r.guilds[guildID]
	if !ok {
		return links, nil
	}

	for key := range g.links {
		links = append(links, linkFromKey(key))
	}
	return links, nil
}

func (r *InMemoryRepo) ListContextScripts(_ context.Context, guildID uint64, scriptCtx ScriptContext) ([]Script, error) {
	if err := scriptCtx.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	scripts := []Script{}
	g, ok := r.guilds[guildID]
	if !ok {
		return scripts, nil
	}

	for key := range g.links {
		if key.kind != scriptCtx.Kind || key.id != scriptCtx.ID {
			continue
		}
		if script, ok := g.scripts[key.name]; ok {
			scripts = append(scripts, script)
		}
	}
	return scripts, nil
}

func (r *InMemoryRepo) GetGuildMetaConfig(_ context.Context, guildID uint64) (*GuildMetaConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conf, ok := r.metaConfigs[guildID]
	if !ok {
		return nil, nil
	}

	out := conf
	if conf.ErrorChannelID != nil {
		channelID := *conf.ErrorChannelID
		out.ErrorChannelID = &channelID
	}
	return &out, nil
}

func (r *InMemoryRepo) UpdateGuildMetaConfig(_ context.Context, conf GuildMetaConfig) (*GuildMetaConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := conf
	if conf.ErrorChannelID != nil {
		channelID := *conf.ErrorChannelID
		stored.ErrorChannelID = &channelID
	}
	r.metaConfigs[conf.GuildID] = stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepo) AddUpdateJoinedGuild(_ context.Context, guild JoinedGuild) (*JoinedGuild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.joinedGuilds[guild.ID] = guild
	return &guild, nil
}

func (r *InMemoryRepo) RemoveJoinedGuild(_ context.Context, guildID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.joinedGuilds[guildID]
	delete(r.joinedGuilds, guildID)
	return ok, nil
}

func (r *InMemoryRepo) GetJoinedGuilds(_ context.Context, ids []uint64) ([]JoinedGuild, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	guilds := make([]JoinedGuild, 0, len(ids))
	for _, id := range ids {
		if g, ok := r.joinedGuilds[id]; ok {
			guilds = append(guilds, g)
		}
	}
	return guilds, nil
}

func linkFromKey(key linkKey) ScriptLink {
	var scriptCtx ScriptContext
	switch key.kind {
	case ContextGuild:
		scriptCtx = GuildContext()
	case ContextChannel:
		scriptCtx = ChannelContext(key.id)
	case ContextRole:
		scriptCtx = RoleContext(key.id)
	}
	return ScriptLink{ScriptName: key.name, Context: scriptCtx}
}
