package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vibe-music/vibe-music-server/internal/domain"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

const (
	identityKey = "auth_identity"
	tokenKey    = "auth_token"

	bearerScheme = "Bearer"
)

// Gatekeeper outcomes, used as metric labels.
const (
	OutcomePublic            = "public"
	OutcomeAllowed           = "allowed"
	OutcomeMissingCredential = "missing_credential"
	OutcomeSessionRevoked    = "session_revoked"
	OutcomeTokenInvalid      = "token_invalid"
	OutcomeStoreUnavailable  = "store_unavailable"
)

// SessionChecker reports whether an issued token is still live.
type SessionChecker interface {
	IsLive(ctx context.Context, token string) (bool, error)
}

// DecisionRecorder counts gatekeeper outcomes.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// Decision is the outcome of authenticating a single request.
type Decision struct {
	Public   bool
	Identity *domain.Identity
	Token    string
}

// Gatekeeper classifies every inbound request as public, authenticated or
// rejected before any handler runs.
type Gatekeeper struct {
	allow    AllowList
	sessions SessionChecker
	tokens   *TokenManager
	logger   *zap.Logger
	metrics  DecisionRecorder
}

// NewGatekeeper constructs middleware. metrics may be nil.
func NewGatekeeper(allow AllowList, sessions SessionChecker, tokens *TokenManager, logger *zap.Logger, metrics DecisionRecorder) *Gatekeeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gatekeeper{allow: allow, sessions: sessions, tokens: tokens, logger: logger, metrics: metrics}
}

// Authenticate runs the allow-list, credential, registry and signature checks
// in that order. A registry failure is returned wrapped and never treated as
// live.
func (g *Gatekeeper) Authenticate(ctx context.Context, path, authHeader string) (Decision, error) {
	if g.allow.IsPublic(path) {
		return Decision{Public: true}, nil
	}

	token := BearerToken(authHeader)
	if token == "" {
		return Decision{}, ErrMissingCredential
	}

	live, err := g.sessions.IsLive(ctx, token)
	if err != nil {
		return Decision{}, fmt.Errorf("check session: %w", err)
	}
	if !live {
		return Decision{}, ErrSessionRevoked
	}

	identity, err := g.tokens.Verify(token)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Identity: identity, Token: token}, nil
}

// Handle enforces authentication for every route registered after it.
func (g *Gatekeeper) Handle(c *fiber.Ctx) error {
	decision, err := g.Authenticate(c.UserContext(), c.Path(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		outcome, message := classifyRejection(err)
		g.record(outcome)
		if outcome == OutcomeStoreUnavailable {
			g.logger.Error("session registry unavailable",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		} else {
			g.logger.Debug("request rejected",
				zap.String("path", c.Path()),
				zap.String("outcome", outcome),
			)
		}
		return apperrors.NewUnauthorized(message)
	}

	if decision.Public {
		g.record(OutcomePublic)
		return c.Next()
	}

	g.record(OutcomeAllowed)
	c.Locals(identityKey, decision.Identity)
	c.Locals(tokenKey, decision.Token)
	return c.Next()
}

func (g *Gatekeeper) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordAuthDecision(outcome)
	}
}

func classifyRejection(err error) (string, string) {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return OutcomeMissingCredential, "not authenticated, please log in"
	case errors.Is(err, ErrSessionRevoked):
		return OutcomeSessionRevoked, "session expired, please log in again"
	case errors.Is(err, ErrTokenInvalid):
		return OutcomeTokenInvalid, "token invalid"
	default:
		// Liveness could not be confirmed; reported like a revoked session.
		return OutcomeStoreUnavailable, "session expired, please log in again"
	}
}

// BearerToken extracts the credential from an Authorization header value.
// The "Bearer " prefix is optional.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	n := len(bearerScheme)
	if len(header) >= n && strings.EqualFold(header[:n], bearerScheme) && (len(header) == n || header[n] == ' ') {
		header = header[n:]
	}
	return strings.TrimSpace(header)
}

// IdentityFromContext retrieves the claims attached by the Gatekeeper.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

// TokenFromContext retrieves the raw token the request was authenticated with.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(tokenKey).(string)
	return token, ok && token != ""
}
