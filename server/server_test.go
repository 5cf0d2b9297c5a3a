package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guildscript/webapi/auth"
	"github.com/guildscript/webapi/auth/csrf"
	"github.com/guildscript/webapi/configstore"
	"github.com/guildscript/webapi/identity"
	"github.com/guildscript/webapi/identity/identityfakes"
	"github.com/guildscript/webapi/internal/config"
	"github.com/guildscript/webapi/server"
	"github.com/guildscript/webapi/sessions"
)

const goodCode = "auth-code-1"

var testUser = identity.User{ID: 42, Username: "astro"}

type serverFixture struct {
	server      *server.Server
	provider    *identityfakes.FakeProvider
	configStore *configstore.InMemoryRepo
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	provider := identityfakes.New(goodCode, testUser)
	sessionRepo := sessions.NewInMemory(time.Hour)
	configStore := configstore.NewInMemory()

	authService, err := auth.NewService(auth.Repos{
		CSRFTokens: csrf.NewInMemory(time.Minute),
		Sessions:   sessionRepo,
	}, provider)
	require.NoError(t, err)

	srv, err := server.New(config.New(), authService, sessionRepo, configStore, provider)
	require.NoError(t, err)

	return &serverFixture{server: srv, provider: provider, configStore: configStore}
}

func (f *serverFixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

// login walks the full flow and returns the issued session token.
func (f *serverFixture) login(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodGet, "/login", "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	rec = f.do(t, http.MethodGet, "/login/confirm?code="+goodCode+"&state="+state, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	start := strings.Index(body, "Token: ")
	require.GreaterOrEqual(t, start, 0)
	token := body[start+len("Token: "):]
	token = token[:strings.Index(token, "<")]
	require.NotEmpty(t, token)
	return token
}

func TestLoginFlow(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	rec := fixture.do(t, http.MethodGet, "/api/current_user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user identity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, testUser.ID, user.ID)
	require.Equal(t, testUser.Username, user.Username)
}

func TestConfirmLoginRejectsForgedState(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/login/confirm?code="+goodCode+"&state=forged", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, fixture.provider.ExchangeCallCount())
}

func TestConfirmLoginRequiresCodeAndState(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/login/confirm?code="+goodCode, "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireSession(t *testing.T) {
	fixture := newServerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/api/current_user", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fixture.do(t, http.MethodGet, "/api/current_user", "not-a-session", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	rec := fixture.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), testUser.Username)

	rec = fixture.do(t, http.MethodGet, "/api/current_user", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScriptEndpoints(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	create := configstore.CreateScript{Name: "greeter", OriginalSource: "reply('hi')", CompiledJS: "reply(\"hi\");"}

	rec := fixture.do(t, http.MethodPost, "/api/guilds/100/scripts", token, create)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created configstore.Script
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec = fixture.do(t, http.MethodPost, "/api/guilds/100/scripts", token, create)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = fixture.do(t, http.MethodGet, "/api/guilds/100/scripts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scripts []configstore.Script
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scripts))
	require.Len(t, scripts, 1)

	update := configstore.Script{OriginalSource: "reply('bye')", CompiledJS: "reply(\"bye\");"}
	rec = fixture.do(t, http.MethodPut, "/api/guilds/100/scripts/greeter", token, update)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fixture.do(t, http.MethodGet, "/api/guilds/100/scripts/greeter", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got configstore.Script
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "reply('bye')", got.OriginalSource)

	rec = fixture.do(t, http.MethodDelete, "/api/guilds/100/scripts/greeter", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = fixture.do(t, http.MethodGet, "/api/guilds/100/scripts/greeter", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScriptEndpointsValidateInput(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	rec := fixture.do(t, http.MethodGet, "/api/guilds/not-a-number/scripts", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fixture.do(t, http.MethodPost, "/api/guilds/100/scripts", token, configstore.CreateScript{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinkEndpoints(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	create := configstore.CreateScript{Name: "s", OriginalSource: "x", CompiledJS: "x;"}
	rec := fixture.do(t, http.MethodPost, "/api/guilds/100/scripts", token, create)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fixture.do(t, http.MethodPost, "/api/guilds/100/scripts/s/links", token, configstore.GuildContext())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fixture.do(t, http.MethodPost, "/api/guilds/100/scripts/s/links", token, configstore.GuildContext())
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = fixture.do(t, http.MethodGet, "/api/guilds/100/links", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var links []configstore.ScriptLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.Len(t, links, 1)

	rec = fixture.do(t, http.MethodDelete, "/api/guilds/100/scripts/s/links", token, configstore.GuildContext())
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = fixture.do(t, http.MethodDelete, "/api/guilds/100/scripts/s/links", token, configstore.GuildContext())
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuildSettingsEndpoints(t *testing.T) {
	fixture := newServerFixture(t)
	token := fixture.login(t)

	rec := fixture.do(t, http.MethodGet, "/api/guilds/100/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conf configstore.GuildMetaConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	require.EqualValues(t, 100, conf.GuildID)
	require.Nil(t, conf.ErrorChannelID)

	rec = fixture.do(t, http.MethodPut, "/api/guilds/100/settings", token, map[string]string{"error_channel_id": "555"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	require.NotNil(t, conf.ErrorChannelID)
	require.EqualValues(t, 555, *conf.ErrorChannelID)
}

func TestListGuildsIntersectsJoinedSet(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.provider.Guilds = []identity.UserGuild{
		{ID: 100, Name: "joined", Owner: true},
		{ID: 200, Name: "not joined"},
	}

	_, err := fixture.configStore.AddUpdateJoinedGuild(context.Background(), configstore.JoinedGuild{ID: 100, Name: "joined"})
	require.NoError(t, err)

	token := fixture.login(t)

	rec := fixture.do(t, http.MethodGet, "/api/guilds", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []server.GuildListEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.EqualValues(t, 100, entries[0].Guild.ID)
	require.True(t, entries[0].Owner)
}
