package handlers

import (
	"errors"
	"net/http"

	"postbus/internal/apperrors"
	"postbus/internal/handlers/render"
	"postbus/internal/handlers/userctx"
	"postbus/internal/logger"
	"postbus/internal/service/auth"
)

type userPayload struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// Response shape shared by register and login
type authResponse struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func newAuthResponse(result auth.AuthResult) authResponse {
	return authResponse{
		User: userPayload{
			ID:       result.User.ID.String(),
			Email:    result.User.Email,
			Username: result.User.Username,
		},
		AccessToken:  result.Tokens.Access.Value,
		RefreshToken: result.Tokens.Refresh.Value,
	}
}

func handleRegister(auth authService, logger logger.Logger) http.Handler {
	type RegisterRequest struct {
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"required,min=8"`
		Username *string `json:"username" validate:"omitempty,min=2,max=50"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RegisterRequest](w, r)
		if err != nil {
			return
		}

		result, err := auth.Register(r.Context(), data.Email, data.Password, data.Username)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User with this email or username already exists", http.StatusConflict)
			default:
				logger.Error("registration failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, newAuthResponse(result), http.StatusCreated)
	})
}

func handleLogin(auth authService, logger logger.Logger) http.Handler {
	type LoginRequest struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		result, err := auth.Login(r.Context(), data.Identifier, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
			default:
				logger.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newAuthResponse(result))
	})
}

func handleTokenRefresh(auth authService, logger logger.Logger) http.Handler {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RefreshRequest](w, r)
		if err != nil {
			return
		}

		pair, err := auth.RefreshPair(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenInvalid):
				render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
			default:
				logger.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, RefreshResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleLogout(auth authService, logger logger.Logger) http.Handler {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type LogoutResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LogoutRequest](w, r)
		if err != nil {
			return
		}

		if err := auth.Logout(r.Context(), data.RefreshToken); err != nil {
			logger.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, LogoutResponse{Message: "Logged out successfully"})
	})
}

func handleLogoutAll(auth authService, logger logger.Logger) http.Handler {
	type LogoutAllResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		if err := auth.LogoutAll(r.Context(), user.ID); err != nil {
			logger.Error("logout-all failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, LogoutAllResponse{Message: "Logged out from all devices successfully"})
	})
}

func handleMe() http.Handler {
	type MeUser struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	type MeResponse struct {
		User MeUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		render.JSON(w, MeResponse{User: MeUser{UserID: user.ID.String(), Email: user.Email}})
	})
}
