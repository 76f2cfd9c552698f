package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"postbus/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If a user with the same email or username exists already
	// has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, username *string, hashedPassword string) (models.User, error)

	// Get user by its id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get user by login identifier: matches email or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Consume the token: revoke it and return it, in one conditional update.
	// The token is consumed only if it belongs to userID, is not revoked
	// and not expired as of `now`. Two concurrent calls with the same token
	// must not both succeed.
	// If no active token matched must return apperrors.ErrRefreshTokenInvalid
	Consume(ctx context.Context, tokenString string, userID uuid.UUID, now time.Time) (models.RefreshToken, error)

	// Revoke token by exact value. Idempotent: revoking an already revoked
	// or unknown token is not an error
	Revoke(ctx context.Context, tokenString string) error

	// Revoke every token owned by the user regardless of state
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	// Delete revoked or expired tokens, returns the number deleted.
	// Garbage collection only, must never delete an active token
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Mail repository interface
type MailRepo interface {
	Create(ctx context.Context, mail models.Mail) (models.Mail, error)

	// Get mail by id
	// If mail not found must return apperrors.ErrMailNotFound
	Get(ctx context.Context, mailID uuid.UUID) (models.Mail, error)

	// List user mails ordered by creation time, newest first
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Mail, error)

	CountForUser(ctx context.Context, userID uuid.UUID) (models.MailCount, error)

	// Mark mail read
	// If mail not found must return apperrors.ErrMailNotFound
	MarkRead(ctx context.Context, mailID uuid.UUID) (models.Mail, error)

	// Delete mail
	// If mail not found must return apperrors.ErrMailNotFound
	Delete(ctx context.Context, mailID uuid.UUID) error
}
