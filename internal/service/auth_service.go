package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vibe-music/vibe-music-server/internal/auth"
	"github.com/vibe-music/vibe-music-server/internal/config"
	"github.com/vibe-music/vibe-music-server/internal/domain"
	"github.com/vibe-music/vibe-music-server/internal/events"
	"github.com/vibe-music/vibe-music-server/internal/repository"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

// SessionRegistry records and revokes live tokens.
type SessionRegistry interface {
	Put(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error
	Revoke(ctx context.Context, token string) error
}

// AuthService coordinates registration, login and every operation that
// opens or closes a session.
type AuthService struct {
	users      repository.UserRepository
	admins     repository.AdminRepository
	codes      repository.VerificationCodeRepository
	sessions   SessionRegistry
	dispatcher events.Dispatcher
	logger     *zap.Logger
	tokenMgr   *auth.TokenManager
	bcryptCost int
	codeTTL    time.Duration
	newCode    func() (string, error)
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo             repository.UserRepository
	AdminRepo            repository.AdminRepository
	VerificationCodeRepo repository.VerificationCodeRepository
	Sessions             SessionRegistry
	Dispatcher           events.Dispatcher
	Logger               *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	codeTTL := cfg.VerificationCodeTTL
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	return &AuthService{
		users:      deps.UserRepo,
		admins:     deps.AdminRepo,
		codes:      deps.VerificationCodeRepo,
		sessions:   deps.Sessions,
		dispatcher: dispatcher,
		logger:     logger,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		bcryptCost: cfg.BcryptCost,
		codeTTL:    codeTTL,
		newCode:    randomCode,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterUserInput carries the registration form.
type RegisterUserInput struct {
	Username         string
	Email            string
	Password         string
	VerificationCode string
}

// ProfileUpdate carries editable profile fields. Empty strings leave the
// stored value unchanged.
type ProfileUpdate struct {
	Username     string
	Email        string
	Phone        *string
	Introduction *string
}

// SendVerificationCode mails a fresh code and stores it for the code TTL.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	err = s.dispatcher.Publish(ctx, events.Event{
		Type: events.EventVerificationCodeRequested,
		Payload: events.VerificationCodeRequestedPayload{
			Email:     email,
			Code:      code,
			ExpiresIn: s.codeTTL,
		},
	})
	if err != nil {
		return apperrors.NewServiceUnavailable("failed to send verification email", err)
	}

	if err := s.codes.Save(ctx, email, code, s.codeTTL); err != nil {
		return apperrors.NewServiceUnavailable("failed to store verification code", err)
	}
	return nil
}

// RegisterUser creates a new end-user account after checking the emailed code.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*domain.User, error) {
	if err := s.checkCode(ctx, in.Email, in.VerificationCode); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.NewConflict("username already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Status:       domain.UserStatusEnabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username or email already exists", nil)
		}
		return nil, err
	}

	s.discardCode(ctx, in.Email)
	return user, nil
}

// LoginUser authenticates an end-user and opens a session.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, nil, err
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, apperrors.NewUnauthorized("invalid email or password")
	}
	if !user.Enabled() {
		return nil, nil, apperrors.NewForbidden("account is locked")
	}

	session, err := s.openSession(ctx, domain.Identity{
		Role:      domain.RoleUser,
		SubjectID: user.ID,
		Username:  user.Username,
		Email:     user.Email,
	})
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// LoginAdmin authenticates an administrator and opens a session.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*domain.Admin, *domain.Session, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, nil, err
	}
	if !auth.VerifyPassword(password, admin.PasswordHash) {
		return nil, nil, apperrors.NewUnauthorized("invalid username or password")
	}

	session, err := s.openSession(ctx, domain.Identity{
		Role:      domain.RoleAdmin,
		SubjectID: admin.ID,
		Username:  admin.Username,
	})
	if err != nil {
		return nil, nil, err
	}
	return admin, session, nil
}

// RegisterAdmin creates another administrator account.
func (s *AuthService) RegisterAdmin(ctx context.Context, username, password string) (*domain.Admin, error) {
	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	admin := &domain.Admin{Username: username, PasswordHash: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username already exists", nil)
		}
		return nil, err
	}
	return admin, nil
}

// Logout revokes the token the request was authenticated with. Other
// sessions of the same subject stay live.
func (s *AuthService) Logout(ctx context.Context, identity domain.Identity, token string) error {
	return s.closeSession(ctx, identity, token, events.ReasonLogout)
}

// GetUser loads the profile of an end-user.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserProfile applies profile edits. Claims in already issued tokens
// keep the values they were issued with.
func (s *AuthService) UpdateUserProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Username != "" {
		user.Username = update.Username
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if update.Phone != nil {
		user.Phone = update.Phone
	}
	if update.Introduction != nil {
		user.Introduction = update.Introduction
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict("username or email already exists", nil)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserAvatar points the profile picture of the user at avatarURL.
func (s *AuthService) UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) error {
	if err := s.users.UpdateAvatar(ctx, id, avatarURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// ChangePassword replaces the password of the calling user and revokes the
// session it was called with.
func (s *AuthService) ChangePassword(ctx context.Context, identity domain.Identity, token, oldPassword, newPassword, repeatPassword string) error {
	user, err := s.GetUser(ctx, identity.SubjectID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(oldPassword, user.PasswordHash) {
		return apperrors.NewValidationError("old password is incorrect", nil)
	}
	if auth.VerifyPassword(newPassword, user.PasswordHash) {
		return apperrors.NewValidationError("new password must differ from the old one", nil)
	}
	if newPassword != repeatPassword {
		return apperrors.NewValidationError("new passwords do not match", nil)
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.closeSession(ctx, identity, token, events.ReasonPasswordChanged)
}

// ResetPassword sets a new password for the account that owns email once the
// emailed code checks out. The caller is anonymous, so no session is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword, repeatPassword string) error {
	if err := s.checkCode(ctx, email, code); err != nil {
		return err
	}
	if newPassword != repeatPassword {
		return apperrors.NewValidationError("new passwords do not match", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("email", nil)
		}
		return err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordByEmail(ctx, email, hash); err != nil {
		return err
	}
	s.discardCode(ctx, email)
	return nil
}

// DeleteAccount revokes the session it was called with, then removes the
// calling user. A store outage leaves the row in place.
func (s *AuthService) DeleteAccount(ctx context.Context, identity domain.Identity, token string) error {
	if err := s.revoke(ctx, identity, token, events.ReasonAccountDeleted); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, identity.SubjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	s.publishRevoked(ctx, identity, events.ReasonAccountDeleted)
	return nil
}

func (s *AuthService) openSession(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	session, err := s.tokenMgr.Issue(identity)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Put(ctx, session.Token, identity, s.tokenMgr.TTL()); err != nil {
		s.logger.Error("failed to register session",
			zap.String("role", string(identity.Role)),
			zap.Int64("subject_id", identity.SubjectID),
			zap.Error(err),
		)
		return nil, apperrors.NewServiceUnavailable("session store unavailable", err)
	}

	s.publish(ctx, events.EventSessionOpened, events.SessionOpenedPayload{
		Role:      identity.Role,
		SubjectID: identity.SubjectID,
		ExpiresAt: session.ExpiresAt,
	})
	return session, nil
}

func (s *AuthService) closeSession(ctx context.Context, identity domain.Identity, token string, reason events.RevocationReason) error {
	if err := s.revoke(ctx, identity, token, reason); err != nil {
		return err
	}
	s.publishRevoked(ctx, identity, reason)
	return nil
}

func (s *AuthService) revoke(ctx context.Context, identity domain.Identity, token string, reason events.RevocationReason) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Error("failed to revoke session",
			zap.String("reason", string(reason)),
			zap.Int64("subject_id", identity.SubjectID),
			zap.Error(err),
		)
		return apperrors.NewServiceUnavailable("session store unavailable", err)
	}
	return nil
}

func (s *AuthService) publishRevoked(ctx context.Context, identity domain.Identity, reason events.RevocationReason) {
	s.publish(ctx, events.EventSessionRevoked, events.SessionRevokedPayload{
		Role:      identity.Role,
		SubjectID: identity.SubjectID,
		Reason:    reason,
	})
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	err := s.dispatcher.Publish(ctx, events.Event{Type: eventType, Payload: payload})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func (s *AuthService) checkCode(ctx context.Context, email, code string) error {
	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		return apperrors.NewServiceUnavailable("verification code store unavailable", err)
	}
	if stored == "" || code == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return apperrors.NewValidationError("invalid verification code", nil)
	}
	return nil
}

func (s *AuthService) discardCode(ctx context.Context, email string) {
	if err := s.codes.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to discard verification code", zap.String("email", email), zap.Error(err))
	}
}

func (s *AuthService) hash(password string) (string, error) {
	if len(password) > auth.MaxPasswordBytes {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes), nil)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
