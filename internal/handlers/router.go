package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"postbus/internal/handlers/middleware"
	"postbus/internal/handlers/render"
	"postbus/internal/logger"
	"postbus/internal/models"
	"postbus/internal/service/auth"
	"postbus/internal/service/auth/tokenmanager"
	"postbus/internal/service/mail"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	mailService mailService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.BearerAuth(authService)
	withOwner := func(h http.Handler) http.Handler {
		return withAuth(middleware.RequireOwner(h))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", handleHealth())

	mux.Handle("POST /api/auth/register", handleRegister(authService, logger))
	mux.Handle("POST /api/auth/login", handleLogin(authService, logger))
	mux.Handle("POST /api/auth/refresh", handleTokenRefresh(authService, logger))
	mux.Handle("POST /api/auth/logout", handleLogout(authService, logger))
	mux.Handle("POST /api/auth/logout-all", withAuth(handleLogoutAll(authService, logger)))
	mux.Handle("GET /api/auth/me", withAuth(handleMe()))

	mux.Handle("GET /api/mails/user/{userID}", withOwner(handleListMails(mailService, logger)))
	mux.Handle("GET /api/mails/user/{userID}/count", withOwner(handleCountMails(mailService, logger)))
	mux.Handle("GET /api/mails/{id}", withAuth(handleGetMail(mailService, logger)))
	mux.Handle("POST /api/mails", withAuth(handleCreateMail(mailService, logger)))
	mux.Handle("PATCH /api/mails/{id}/read", withAuth(handleMarkMailRead(mailService, logger)))
	mux.Handle("DELETE /api/mails/{id}", withAuth(handleDeleteMail(mailService, logger)))

	return chain(mux,
		middleware.LoggerMiddleware(logger),
	)
}

func handleHealth() http.Handler {
	type HealthResponse struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, HealthResponse{Status: "ok", Service: "postbus"})
	})
}

type authService interface {
	// Register user with email, password and optional username
	// Has to return apperrors.ErrUserAlreadyExists on duplicate identifier
	Register(ctx context.Context, email string, password string, username *string) (auth.AuthResult, error)

	// Login by email or username
	// Has to return apperrors.ErrInvalidCredentials when either the
	// identifier is unknown or the password is wrong
	Login(ctx context.Context, identifier string, password string) (auth.AuthResult, error)

	// Rotate the refresh token: consume it and mint a successor pair
	// Has to return apperrors.ErrRefreshTokenInvalid on any failure
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the token record matching the exact value, idempotent
	Logout(ctx context.Context, refresh string) error

	// Revoke every refresh token owned by the user
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// Validate an access token, stateless
	Authenticate(accessToken string) (*tokenmanager.Claims, error)
}

type mailService interface {
	Create(ctx context.Context, params mail.CreateMailParams) (models.Mail, error)
	Get(ctx context.Context, mailID uuid.UUID) (models.Mail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Mail, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (models.MailCount, error)
	MarkRead(ctx context.Context, mailID uuid.UUID) (models.Mail, error)
	Delete(ctx context.Context, mailID uuid.UUID) error
}
