package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/auth"
	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// ActorService provisions accounts and authenticates them.
type ActorService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
	clock      Clock
	logger     *zap.Logger
}

// ActorDependencies bundles actor collaborators.
type ActorDependencies struct {
	Store  repository.Store
	Clock  Clock
	Logger *zap.Logger
}

// ProvisionInput describes a new account.
type ProvisionInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Role      domain.ActorRole
	Bio       string
	AvatarURL *string
}

// ActorProfile pairs an account with its profile.
type ActorProfile struct {
	Actor   *domain.Actor
	Profile *domain.Profile
}

// LoginResult carries an issued token.
type LoginResult struct {
	Actor     *domain.Actor
	Token     string
	ExpiresAt time.Time
}

// NewActorService builds the service.
func NewActorService(cfg config.AuthConfig, deps ActorDependencies) *ActorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActorService{
		store:      deps.Store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		clock:      clockOrDefault(deps.Clock),
		logger:     logger,
	}
}

// ProvisionActor creates an account and its profile in one unit of work. It is the only place
// profiles come into existence.
func (s *ActorService) ProvisionActor(ctx context.Context, input ProvisionInput) (*ActorProfile, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, errorutil.NewValidationError("username is required", map[string]any{"field": "username"})
	}
	if len(input.Password) < 6 {
		return nil, errorutil.NewValidationError("password must be at least 6 characters", map[string]any{"field": "password"})
	}
	if input.Role == "" {
		input.Role = domain.ActorRoleMember
	}
	if !input.Role.IsValid() {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	actor := &domain.Actor{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    s.clock(),
	}
	profile := &domain.Profile{AvatarURL: input.AvatarURL, Bio: strings.TrimSpace(input.Bio)}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Actors.Create(ctx, actor); err != nil {
			return err
		}
		profile.ActorID = actor.ID
		return repos.Profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("actor provisioned", zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	return &ActorProfile{Actor: actor, Profile: profile}, nil
}

// Login verifies credentials and issues a bearer token.
func (s *ActorService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	actor, err := s.store.Repos().Actors.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errorutil.IsNotFound(err) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(actor.ID, actor.Role)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &LoginResult{Actor: actor, Token: token, ExpiresAt: exp}, nil
}

// Me returns the caller's account and profile.
func (s *ActorService) Me(ctx context.Context, actorID string) (*ActorProfile, error) {
	repos := s.store.Repos()
	actor, err := repos.Actors.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	profile, err := repos.Profiles.GetByActorID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &ActorProfile{Actor: actor, Profile: profile}, nil
}

// ListActors returns accounts by username.
func (s *ActorService) ListActors(ctx context.Context, limit, offset int) ([]domain.Actor, error) {
	return s.store.Repos().Actors.List(ctx, limit, offset)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *ActorService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
