package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"postbus/internal/apperrors"
	"postbus/internal/models"
	"postbus/internal/repository"
	"postbus/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher used during registration and login
	// Defaults to BcryptHasher when not set
	Hasher PasswordHasher
}

// Result of a successful registration or login
type AuthResult struct {
	User   models.User
	Tokens models.TokenPair
}

// AuthService orchestrates registration, login, refresh rotation and
// revocation over the token manager, the password hasher and the store
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo

	// Hash compared against when the login identifier is unknown, so the
	// two login failure modes cost roughly the same
	decoyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo, refreshRepo repository.RefreshTokenRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if token == nil || userRepo == nil || refreshRepo == nil {
		return nil, errors.New("token manager and repos must not be nil")
	}

	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing decoy hash. Err: %w", err)
	}

	return &AuthService{
		token:       token,
		hasher:      hasher,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		decoyHash:   decoyHash,
	}, nil
}

// Register creates a user and issues the first token pair.
// Duplicate email or username surfaces as apperrors.ErrUserAlreadyExists;
// the store's unique indexes are the authority, there is no check-then-create.
func (s *AuthService) Register(ctx context.Context, email string, password string, username *string) (AuthResult, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, username, hash)
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return AuthResult{User: user, Tokens: pair}, nil
}

// Login authenticates by email or username.
// Unknown identifier and wrong password both return
// apperrors.ErrInvalidCredentials, with a decoy hash comparison in the
// unknown case so response timing doesn't reveal which it was.
func (s *AuthService) Login(ctx context.Context, login string, password string) (AuthResult, error) {
	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			_ = s.hasher.Compare(s.decoyHash, password)
			return AuthResult{}, apperrors.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return AuthResult{User: user, Tokens: pair}, nil
}

// RefreshPair rotates the presented refresh token: consumes it exactly once
// and mints a successor pair for the same user
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	used, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, used.UserID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while loading token owner. Err: %w", err)
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Logout revokes the store record matching the exact token value.
// The signature is deliberately not checked: logout must still succeed
// against an already invalid looking token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.refreshRepo.Revoke(ctx, refresh)
}

// LogoutAll revokes every refresh token owned by the user.
// Best effort as of now: an in-flight refresh that started earlier may
// still complete
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.refreshRepo.RevokeAllForUser(ctx, userID)
}

// CleanupExpiredTokens deletes revoked and expired token records.
// Garbage collection only, safe to run concurrently with everything else
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshRepo.DeleteExpired(ctx, time.Now())
}

// Authenticate validates an access token and returns its claims.
// Stateless: the store is never consulted, access tokens are not revocable
func (s *AuthService) Authenticate(accessToken string) (*tokenmanager.Claims, error) {
	return s.token.ParseAccess(accessToken)
}
