package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vibe-music/vibe-music-server/internal/domain"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

type fakeSessions struct {
	mu    sync.Mutex
	live  map[string]bool
	err   error
	calls int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: map[string]bool{}}
}

func (f *fakeSessions) IsLive(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.live[token], nil
}

func (f *fakeSessions) put(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[token] = true
}

func (f *fakeSessions) revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, token)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordAuthDecision(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

type gatekeeperFixture struct {
	app      *fiber.App
	sessions *fakeSessions
	tokens   *TokenManager
	recorder *countingRecorder
	logs     *observer.ObservedLogs
}

func newGatekeeperFixture(t *testing.T) *gatekeeperFixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &gatekeeperFixture{
		sessions: newFakeSessions(),
		tokens:   NewTokenManager(testSecret, 6*time.Hour),
		recorder: &countingRecorder{},
		logs:     logs,
	}
	gk := NewGatekeeper(DefaultAllowList(), f.sessions, f.tokens, zap.New(core), f.recorder)

	f.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	f.app.Use(gk.Handle)
	f.app.Get("/user/login", func(c *fiber.Ctx) error {
		_, hasIdentity := IdentityFromContext(c)
		if hasIdentity {
			return c.SendString("identity attached")
		}
		return c.SendString("public")
	})
	f.app.Get("/protected", func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return errors.New("identity missing")
		}
		token, _ := TokenFromContext(c)
		return c.JSON(fiber.Map{"identity": identity, "token": token})
	})
	f.app.Get("/admin/only", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	return f
}

func (f *gatekeeperFixture) login(t *testing.T, identity domain.Identity) string {
	t.Helper()
	session, err := f.tokens.Issue(identity)
	require.NoError(t, err)
	f.sessions.put(session.Token)
	return session.Token
}

func (f *gatekeeperFixture) get(t *testing.T, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGatekeeperAllowsPublicPathWithoutToken(t *testing.T) {
	f := newGatekeeperFixture(t)

	status, body := f.get(t, "/user/login", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "public", body)
	assert.Zero(t, f.sessions.calls, "public paths never consult the registry")
	assert.Equal(t, 1, f.recorder.counts[OutcomePublic])
}

func TestGatekeeperPublicPathIgnoresToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	token := f.login(t, userIdentity())

	status, body := f.get(t, "/user/login", "Bearer "+token)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "public", body)
}

func TestGatekeeperAllowsLiveToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	token := f.login(t, userIdentity())

	status, body := f.get(t, "/protected", "Bearer "+token)

	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"identity":{"role":"ROLE_USER","subjectId":42,"username":"alice","email":"alice@example.com"},"token":"`+token+`"}`, body)
	assert.Equal(t, 1, f.recorder.counts[OutcomeAllowed])
}

func TestGatekeeperAcceptsTokenWithoutPrefix(t *testing.T) {
	f := newGatekeeperFixture(t)
	token := f.login(t, userIdentity())

	status, _ := f.get(t, "/protected", token)

	assert.Equal(t, http.StatusOK, status)
}

func TestGatekeeperRejectsMissingToken(t *testing.T) {
	f := newGatekeeperFixture(t)

	for _, header := range []string{"", "Bearer ", "Bearer    "} {
		status, body := f.get(t, "/protected", header)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "not authenticated, please log in", body)
	}
	assert.Zero(t, f.sessions.calls)
}

func TestGatekeeperRejectsRevokedToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	token := f.login(t, userIdentity())

	status, _ := f.get(t, "/protected", "Bearer "+token)
	require.Equal(t, http.StatusOK, status)

	f.sessions.revoke(token)

	status, body := f.get(t, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "session expired, please log in again", body)
	assert.Equal(t, 1, f.recorder.counts[OutcomeSessionRevoked])
}

func TestGatekeeperRejectsUnregisteredValidToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	session, err := f.tokens.Issue(userIdentity())
	require.NoError(t, err)

	status, body := f.get(t, "/protected", "Bearer "+session.Token)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "session expired, please log in again", body)
}

func TestGatekeeperRejectsLiveButInvalidToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.sessions.put("forged-token")

	status, body := f.get(t, "/protected", "Bearer forged-token")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token invalid", body)
	assert.Equal(t, 1, f.recorder.counts[OutcomeTokenInvalid])
}

func TestGatekeeperRejectsLiveButExpiredToken(t *testing.T) {
	f := newGatekeeperFixture(t)
	stale := NewTokenManager(testSecret, 6*time.Hour)
	stale.now = func() time.Time { return time.Now().Add(-7 * time.Hour) }
	session, err := stale.Issue(userIdentity())
	require.NoError(t, err)
	f.sessions.put(session.Token)

	status, body := f.get(t, "/protected", "Bearer "+session.Token)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token invalid", body)
}

func TestGatekeeperFailsClosedWhenStoreUnavailable(t *testing.T) {
	f := newGatekeeperFixture(t)
	token := f.login(t, userIdentity())
	f.sessions.err = errors.New("dial tcp: connection refused")

	status, body := f.get(t, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "session expired, please log in again", body)
	assert.Equal(t, 1, f.recorder.counts[OutcomeStoreUnavailable])

	errs := f.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	assert.Equal(t, "session registry unavailable", errs[0].Message)
}

func TestGatekeeperRoleTagging(t *testing.T) {
	f := newGatekeeperFixture(t)
	userToken := f.login(t, userIdentity())
	adminToken := f.login(t, domain.Identity{Role: domain.RoleAdmin, SubjectID: 1, Username: "root"})

	status, _ := f.get(t, "/admin/only", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := f.get(t, "/admin/only", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body)
}

func TestAuthenticateDecision(t *testing.T) {
	sessions := newFakeSessions()
	tokens := NewTokenManager(testSecret, time.Hour)
	gk := NewGatekeeper(DefaultAllowList(), sessions, tokens, nil, nil)
	ctx := context.Background()

	decision, err := gk.Authenticate(ctx, "/", "")
	require.NoError(t, err)
	assert.True(t, decision.Public)
	assert.Nil(t, decision.Identity)

	session, err := tokens.Issue(userIdentity())
	require.NoError(t, err)
	sessions.put(session.Token)

	decision, err = gk.Authenticate(ctx, "/favorite/getFavoriteSongs", "Bearer "+session.Token)
	require.NoError(t, err)
	assert.False(t, decision.Public)
	assert.Equal(t, session.Token, decision.Token)
	assert.Equal(t, userIdentity(), *decision.Identity)

	_, err = gk.Authenticate(ctx, "/favorite/getFavoriteSongs", "")
	assert.ErrorIs(t, err, ErrMissingCredential)

	sessions.revoke(session.Token)
	_, err = gk.Authenticate(ctx, "/favorite/getFavoriteSongs", "Bearer "+session.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"BEARER  abc ":    "abc",
		"abc":             "abc",
		"Bearer":          "",
		"Bearerabc":       "Bearerabc",
		"  Bearer x.y.z ": "x.y.z",
	}
	for header, want := range cases {
		assert.Equal(t, want, BearerToken(header), header)
	}
}
