package configstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type scriptRow struct {
	bun.BaseModel `bun:"table:scripts,alias:s"`

	ID             uint64 `bun:"id,pk,autoincrement"`
	GuildID        uint64 `bun:"guild_id,notnull"`
	Name           string `bun:"name,notnull"`
	OriginalSource string `bun:"original_source,notnull"`
	CompiledJS     string `bun:"compiled_js,notnull"`
}

type scriptLinkRow struct {
	bun.BaseModel `bun:"table:script_links,alias:l"`

	ID          uint64      `bun:"id,pk,autoincrement"`
	GuildID     uint64      `bun:"guild_id,notnull"`
	ScriptName  string      `bun:"script_name,notnull"`
	ContextKind ContextKind `bun:"context_kind,notnull"`
	ContextID   uint64      `bun:"context_id,notnull"`
}

type guildMetaRow struct {
	bun.BaseModel `bun:"table:guild_meta_configs,alias:gm"`

	GuildID        uint64  `bun:"guild_id,pk"`
	ErrorChannelID *uint64 `bun:"error_channel_id"`
}

type joinedGuildRow struct {
	bun.BaseModel `bun:"table:joined_guilds,alias:jg"`

	ID      uint64 `bun:"id,pk"`
	Name    string `bun:"name,notnull"`
	Icon    string `bun:"icon,notnull,default:''"`
	OwnerID uint64 `bun:"owner_id,notnull"`
}

// PostgresRepo implements Repo on Postgres via bun. Unique indexes enforce
// the (guild_id, name) and (guild_id, script_name, context) invariants and
// transactions serialize the script-delete cascade.
type PostgresRepo struct {
	db     *bun.DB
	logger zerolog.Logger
}

func NewPostgres(db *bun.DB, logger zerolog.Logger) *PostgresRepo {
	return &PostgresRepo{
		db:     db,
		logger: logger.With().Str("component", "configstore").Logger(),
	}
}

var _ Repo = (*PostgresRepo)(nil)

// CreateSchema creates the backing tables and unique indexes if they do not
// exist yet.
func (r *PostgresRepo) CreateSchema(ctx context.Context) error {
	models := []any{
		(*scriptRow)(nil),
		(*scriptLinkRow)(nil),
		(*guildMetaRow)(nil),
		(*joinedGuildRow)(nil),
	}
	for _, model := range models {
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, "[PostgresRepo.CreateSchema] create table")
		}
	}

	indexes := []*bun.CreateIndexQuery{
		r.db.NewCreateIndex().Model((*scriptRow)(nil)).
			Index("scripts_guild_name_idx").Unique().IfNotExists().
			Column("guild_id", "name"),
		r.db.NewCreateIndex().Model((*scriptLinkRow)(nil)).
			Index("script_links_target_idx").Unique().IfNotExists().
			Column("guild_id", "script_name", "context_kind", "context_id"),
	}
	for _, idx := range indexes {
		if _, err := idx.Exec(ctx); err != nil {
			return errors.Wrap(err, "[PostgresRepo.CreateSchema] create index")
		}
	}

	return nil
}

func (r *PostgresRepo) GetScript(ctx context.Context, guildID uint64, name string) (*Script, error) {
	row := new(scriptRow)
	err := r.db.NewSelect().Model(row).
		Where("guild_id = ?", guildID).
		Where("name = ?", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ScriptNotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetScript] select")
	}

	return scriptFromRow(row), nil
}

func (r *PostgresRepo) CreateScript(ctx context.Context, guildID uint64, create CreateScript) (*Script, error) {
	row := &scriptRow{
		GuildID:        guildID,
		Name:           create.Name,
		OriginalSource: create.OriginalSource,
		CompiledJS:     create.CompiledJS,
	}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isIntegrityViolation(err) {
			return nil, ScriptExistsErr
		}
		return nil, errors.Wrap(err, "[PostgresRepo.CreateScript] insert")
	}

	return scriptFromRow(row), nil
}

func (r *PostgresRepo) UpdateScript(ctx context.Context, guildID uint64, script Script) (*Script, error) {
	var updated *Script
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := new(scriptRow)
		err := tx.NewSelect().Model(row).
			Where("guild_id = ?", guildID).
			Where("name = ?", script.Name).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ScriptNotFoundErr
		}
		if err != nil {
			return errors.Wrap(err, "[PostgresRepo.UpdateScript] select")
		}

		row.OriginalSource = script.OriginalSource
		row.CompiledJS = script.CompiledJS
		if _, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
			return errors.Wrap(err, "[PostgresRepo.UpdateScript] update")
		}

		updated = scriptFromRow(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PostgresRepo) DelScript(ctx context.Context, guildID uint64, name string) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*scriptRow)(nil)).
			Where("guild_id = ?", guildID).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "[PostgresRepo.DelScript] delete script")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "[PostgresRepo.DelScript] rows affected")
		}
		if affected == 0 {
			return ScriptNotFoundErr
		}

		// Cascade: a deleted script leaves no dangling links.
		if _, err := tx.NewDelete().Model((*scriptLinkRow)(nil)).
			Where("guild_id = ?", guildID).
			Where("script_name = ?", name).
			Exec(ctx); err != nil {
			return errors.Wrap(err, "[PostgresRepo.DelScript] delete links")
		}

		return nil
	})
}

func (r *PostgresRepo) ListScripts(ctx context.Context, guildID uint64) ([]Script, error) {
	var rows []scriptRow
	err := r.db.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListScripts] select")
	}

	scripts := make([]Script, 0, len(rows))
	for i := range rows {
		scripts = append(scripts, *scriptFromRow(&rows[i]))
	}
	return scripts, nil
}

func (r *PostgresRepo) LinkScript(ctx context.Context, guildID uint64, name string, scriptCtx ScriptContext) (*ScriptLink, error) {
	if err := scriptCtx.Validate(); err != nil {
		return nil, err
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*scriptRow)(nil)).
			Where("guild_id = ?", guildID).
			Where("name = ?", name).
			Exists(ctx)
		if err != nil {
			return errors.Wrap(err, "[PostgresRepo.LinkScript] script exists")
		}
		if !exists {
			return ScriptNotFoundErr
		}

		row := &scriptLinkRow{
			GuildID:     guildID,
			ScriptName:  name,
			ContextKind: scriptCtx.Kind,
			ContextID:   scriptCtx.ID,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			if isIntegrityViolation(err) {
				return LinkExistsErr
			}
			return errors.Wrap(err, "[PostgresRepo.LinkScript] insert")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ScriptLink{ScriptName: name, Context: scriptCtx}, nil
}

func (r *PostgresRepo) UnlinkScript(ctx context.Context, guildID uint64, name string, scriptCtx ScriptContext) error {
	if err := scriptCtx.Validate(); err != nil {
		return err
	}

	res, err := r.db.NewDelete().Model((*scriptLinkRow)(nil)).
		Where("guild_id = ?", guildID).
		Where("script_name = ?", name).
		Where("context_kind = ?", scriptCtx.Kind).
		Where("context_id = ?", scriptCtx.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.UnlinkScript] delete")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.UnlinkScript] rows affected")
	}
	if affected == 0 {
		return LinkNotFoundErr
	}
	return nil
}

func (r *PostgresRepo) UnlinkAllScript(ctx context.Context, guildID uint64, name string) (int64, error) {
	res, err := r.db.NewDelete().Model((*scriptLinkRow)(nil)).
		Where("guild_id = ?", guildID).
		Where("script_name = ?", name).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresRepo.UnlinkAllScript] delete")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresRepo.UnlinkAllScript] rows affected")
	}
	return affected, nil
}

func (r *PostgresRepo) ListScriptLinks(ctx context.Context, guildID uint64, name string) ([]ScriptLink, error) {
	var rows []scriptLinkRow
	err := r.db.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Where("script_name = ?", name).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListScriptLinks] select")
	}
	return linksFromRows(rows), nil
}

func (r *PostgresRepo) ListLinks(ctx context.Context, guildID uint64) ([]ScriptLink, error) {
	var rows []scriptLinkRow
	err := r.db.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListLinks] select")
	}
	return linksFromRows(rows), nil
}

func (r *PostgresRepo) ListContextScripts(ctx context.Context, guildID uint64, scriptCtx ScriptContext) ([]Script, error) {
	if err := scriptCtx.Validate(); err != nil {
		return nil, err
	}

	var rows []scriptRow
	err := r.db.NewSelect().Model(&rows).
		Join("JOIN script_links AS l ON l.guild_id = s.guild_id AND l.script_name = s.name").
		Where("s.guild_id = ?", guildID).
		Where("l.context_kind = ?", scriptCtx.Kind).
		Where("l.context_id = ?", scriptCtx.ID).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListContextScripts] select")
	}

	scripts := make([]Script, 0, len(rows))
	for i := range rows {
		scripts = append(scripts, *scriptFromRow(&rows[i]))
	}
	return scripts, nil
}

func (r *PostgresRepo) GetGuildMetaConfig(ctx context.Context, guildID uint64) (*GuildMetaConfig, error) {
	row := new(guildMetaRow)
	err := r.db.NewSelect().Model(row).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetGuildMetaConfig] select")
	}

	return &GuildMetaConfig{GuildID: row.GuildID, ErrorChannelID: row.ErrorChannelID}, nil
}

func (r *PostgresRepo) UpdateGuildMetaConfig(ctx context.Context, conf GuildMetaConfig) (*GuildMetaConfig, error) {
	row := &guildMetaRow{GuildID: conf.GuildID, ErrorChannelID: conf.ErrorChannelID}

	_, err := r.db.NewInsert().Model(row).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("error_channel_id = EXCLUDED.error_channel_id").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.UpdateGuildMetaConfig] upsert")
	}

	return &GuildMetaConfig{GuildID: row.GuildID, ErrorChannelID: row.ErrorChannelID}, nil
}

func (r *PostgresRepo) AddUpdateJoinedGuild(ctx context.Context, guild JoinedGuild) (*JoinedGuild, error) {
	row := &joinedGuildRow{
		ID:      guild.ID,
		Name:    guild.Name,
		Icon:    guild.Icon,
		OwnerID: guild.OwnerID,
	}

	_, err := r.db.NewInsert().Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("icon = EXCLUDED.icon").
		Set("owner_id = EXCLUDED.owner_id").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.AddUpdateJoinedGuild] upsert")
	}

	r.logger.Debug().Uint64("guild_id", guild.ID).Msg("upserted joined guild")

	return &guild, nil
}

func (r *PostgresRepo) RemoveJoinedGuild(ctx context.Context, guildID uint64) (bool, error) {
	res, err := r.db.NewDelete().Model((*joinedGuildRow)(nil)).
		Where("id = ?", guildID).
		Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, "[PostgresRepo.RemoveJoinedGuild] delete")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "[PostgresRepo.RemoveJoinedGuild] rows affected")
	}
	return affected > 0, nil
}

func (r *PostgresRepo) GetJoinedGuilds(ctx context.Context, ids []uint64) ([]JoinedGuild, error) {
	if len(ids) == 0 {
		return []JoinedGuild{}, nil
	}

	var rows []joinedGuildRow
	err := r.db.NewSelect().Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetJoinedGuilds] select")
	}

	guilds := make([]JoinedGuild, 0, len(rows))
	for _, row := range rows {
		guilds = append(guilds, JoinedGuild{
			ID:      row.ID,
			Name:    row.Name,
			Icon:    row.Icon,
			OwnerID: row.OwnerID,
		})
	}
	return guilds, nil
}

func scriptFromRow(row *scriptRow) *Script {
	return &Script{
		ID:             row.ID,
		Name:           row.Name,
		OriginalSource: row.OriginalSource,
		CompiledJS:     row.CompiledJS,
	}
}

func linksFromRows(rows []scriptLinkRow) []ScriptLink {
	links := make([]ScriptLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, ScriptLink{
			ScriptName: row.ScriptName,
			Context:    ScriptContext{Kind: row.ContextKind, ID: row.ContextID},
		})
	}
	return links
}

func isIntegrityViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.IntegrityViolation()
}
