package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"postbus/internal/handlers"
	"postbus/internal/logger"
	"postbus/internal/repository/postgres"
	"postbus/internal/service/auth"
	"postbus/internal/service/auth/tokenmanager"
	"postbus/internal/service/mail"
	"postbus/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	MailService *mail.MailService
}

// Create db transaction and run the server with that connection (one connection cause one transaction)
// The whole production wiring is used: router, middlewares and services
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
		mailRepo := &postgres.MailRepo{DB: tx}

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access",
			RefreshSecret: "test-refresh",
		}, refreshRepo)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo, refreshRepo)
		require.NoError(t, err, "auth service starting error", err)

		ms := mail.NewService(mailRepo)

		// Complete all together as router
		router := handlers.NewRouter(as, ms, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			MailService: ms,
		})
	})
}
