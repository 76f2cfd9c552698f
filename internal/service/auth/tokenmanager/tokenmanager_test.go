package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postbus/internal/apperrors"
	"postbus/internal/models"
	"postbus/internal/repository/postgres"
	"postbus/internal/testutil"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction, create the token owner and a TokenManager
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, accessTTL time.Duration, refreshTTL time.Duration, fn func(m *TokenManager, user models.User)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			user, err := userRepo.CreateUser(t.Context(), "alice@x.com", nil, "hashed-password")
			require.NoError(t, err, "token owner should be created without errors")

			cfg := Config{
				AccessSecret:  testAccessSecret,
				RefreshSecret: testRefreshSecret,
				AccessTTL:     accessTTL,
				RefreshTTL:    refreshTTL,
			}

			tokenManager, err := New(cfg, &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err, "token manager should be created without errors")

			fn(tokenManager, user)
		})
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{AccessSecret: "access", RefreshSecret: "refresh"}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "access", m.accessKey)
		require.Equal(t, "refresh", m.refreshKey)
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fails without secrets", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  Config
		}{
			{name: "no access secret", cfg: Config{RefreshSecret: "refresh"}},
			{name: "no refresh secret", cfg: Config{AccessSecret: "access"}},
			{name: "equal secrets", cfg: Config{AccessSecret: "same", RefreshSecret: "same"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.cfg, nil)
				require.Error(t, err)
			})
		}
	})

	t.Run("GeneratePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)

					require.NoError(t, err)

					assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
					assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
					assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
				},
			)
		})

		t.Run("access claims", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					// Parse and verify the access token
					token, err := jwt.ParseWithClaims(pair.Access.Value, &Claims{}, func(token *jwt.Token) (any, error) {
						return []byte(testAccessSecret), nil
					})
					require.NoError(t, err)
					require.True(t, token.Valid, "access token should be valid")

					claims, ok := token.Claims.(*Claims)
					require.True(t, ok, "claims should be of type Claims")
					assert.Equal(t, user.ID, claims.UserID, "user ID in token should match")
					assert.Equal(t, user.Email, claims.Email, "email in token should match")
					assert.Equal(t, user.ID.String(), claims.Subject, "subject should carry the user id")
					assert.NotEmpty(t, claims.ID, "token has to has jti")
					assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second, "expires at should be 15 minutes from now")

					assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
				},
			)
		})

		t.Run("keys are independent", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					// Access token must fail verification under the refresh key and vice versa
					_, err = jwt.ParseWithClaims(pair.Access.Value, &Claims{}, func(token *jwt.Token) (any, error) {
						return []byte(testRefreshSecret), nil
					})
					require.Error(t, err, "access token must not verify under the refresh key")

					_, err = jwt.ParseWithClaims(pair.Refresh.Value, &Claims{}, func(token *jwt.Token) (any, error) {
						return []byte(testAccessSecret), nil
					})
					require.Error(t, err, "refresh token must not verify under the access key")
				},
			)
		})

		t.Run("generate different tokens", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair1, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					pair2, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
					assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
				},
			)
		})
	})

	t.Run("UseRefresh", func(t *testing.T) {
		t.Run("use token once", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					token, err := tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)

					require.NoError(t, err, "using refresh token should not return an error")
					assert.Equal(t, user.ID, token.UserID)
					assert.True(t, token.Revoked, "used token must be revoked")
				},
			)
		})

		t.Run("use token twice fails", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)

					require.Error(t, err)
					assert.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
				},
			)
		})

		t.Run("access token is not a refresh token", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Access.Value)

					require.Error(t, err, "access token must not pass as refresh token")
					assert.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
				},
			)
		})

		t.Run("embedded expiry is checked before the store", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, -time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)

					require.Error(t, err, "expired refresh token must fail")
					assert.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
				},
			)
		})

		t.Run("garbage fails", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					_, err := tokenManager.UseRefresh(t.Context(), "not-a-token")

					require.Error(t, err)
					assert.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
				},
			)
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					claims, err := tokenManager.ParseAccess(pair.Access.Value)

					require.NoError(t, err)
					assert.Equal(t, user.ID, claims.UserID)
					assert.Equal(t, user.Email, claims.Email)
				},
			)
		})

		t.Run("refresh token rejected", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					_, err = tokenManager.ParseAccess(pair.Refresh.Value)

					require.Error(t, err, "refresh token must not pass as access token")
				},
			)
		})

		t.Run("expired access token rejected", func(t *testing.T) {
			withTx(pg.Pool, t, -time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					_, err = tokenManager.ParseAccess(pair.Access.Value)

					require.Error(t, err, "expired access token must fail validation")
				},
			)
		})

		t.Run("tampered alg rejected", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 7*24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
						RegisteredClaims: jwt.RegisteredClaims{
							ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
						},
						UserID: uuid.New(),
					})
					tokenString, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
					require.NoError(t, err)

					_, err = tokenManager.ParseAccess(tokenString)

					require.Error(t, err, "'none' algorithm must be rejected")
				},
			)
		})
	})
}
