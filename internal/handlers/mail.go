package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"postbus/internal/apperrors"
	"postbus/internal/handlers/render"
	"postbus/internal/handlers/userctx"
	"postbus/internal/logger"
	"postbus/internal/models"
	"postbus/internal/service/mail"
)

type mailPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func newMailPayload(m models.Mail) mailPayload {
	return mailPayload{
		ID:        m.ID.String(),
		UserID:    m.UserID.String(),
		From:      m.From,
		To:        m.To,
		Subject:   m.Subject,
		Body:      m.Body,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func handleListMails(mails mailService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("userID"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		list, err := mails.ListForUser(r.Context(), userID)
		if err != nil {
			logger.Error("listing mails failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		payload := make([]mailPayload, 0, len(list))
		for _, m := range list {
			payload = append(payload, newMailPayload(m))
		}

		render.JSON(w, payload)
	})
}

func handleCountMails(mails mailService, logger logger.Logger) http.Handler {
	type CountResponse struct {
		UnreadCount int64 `json:"unreadCount"`
		TotalCount  int64 `json:"totalCount"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("userID"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		count, err := mails.CountForUser(r.Context(), userID)
		if err != nil {
			logger.Error("counting mails failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, CountResponse{UnreadCount: count.Unread, TotalCount: count.Total})
	})
}

func handleGetMail(mails mailService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mailID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Mail not found", http.StatusNotFound)
			return
		}

		m, err := mails.Get(r.Context(), mailID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrMailNotFound):
				render.ServiceError(w, "Mail not found", http.StatusNotFound)
			default:
				logger.Error("fetching mail failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		user, _ := userctx.FromContext(r.Context())
		if m.UserID != user.ID {
			render.ServiceError(w, "Access denied to this user's data", http.StatusForbidden)
			return
		}

		render.JSON(w, newMailPayload(m))
	})
}

func handleCreateMail(mails mailService, logger logger.Logger) http.Handler {
	type CreateMailRequest struct {
		UserID  string `json:"userId" validate:"required,uuid"`
		From    string `json:"from" validate:"required,email"`
		To      string `json:"to" validate:"required,email"`
		Subject string `json:"subject" validate:"required"`
		Body    string `json:"body" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[CreateMailRequest](w, r)
		if err != nil {
			return
		}

		// Only the mailbox owner may add mails to it
		user, _ := userctx.FromContext(r.Context())
		if data.UserID != user.ID.String() {
			render.ServiceError(w, "Access denied to this user's data", http.StatusForbidden)
			return
		}

		m, err := mails.Create(r.Context(), mail.CreateMailParams{
			UserID:  user.ID,
			From:    data.From,
			To:      data.To,
			Subject: data.Subject,
			Body:    data.Body,
		})
		if err != nil {
			logger.Error("creating mail failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, newMailPayload(m), http.StatusCreated)
	})
}

// requireMailOwner loads the mail and verifies the authenticated user owns it.
// Writes the error response and returns false when they don't.
func requireMailOwner(w http.ResponseWriter, r *http.Request, mails mailService, logger logger.Logger, mailID uuid.UUID) bool {
	m, err := mails.Get(r.Context(), mailID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMailNotFound):
			render.ServiceError(w, "Mail not found", http.StatusNotFound)
		default:
			logger.Error("fetching mail failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return false
	}

	user, _ := userctx.FromContext(r.Context())
	if m.UserID != user.ID {
		render.ServiceError(w, "Access denied to this user's data", http.StatusForbidden)
		return false
	}

	return true
}

func handleMarkMailRead(mails mailService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mailID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Mail not found", http.StatusNotFound)
			return
		}

		if !requireMailOwner(w, r, mails, logger, mailID) {
			return
		}

		m, err := mails.MarkRead(r.Context(), mailID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrMailNotFound):
				render.ServiceError(w, "Mail not found", http.StatusNotFound)
			default:
				logger.Error("marking mail read failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newMailPayload(m))
	})
}

func handleDeleteMail(mails mailService, logger logger.Logger) http.Handler {
	type DeleteResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mailID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Mail not found", http.StatusNotFound)
			return
		}

		if !requireMailOwner(w, r, mails, logger, mailID) {
			return
		}

		if err := mails.Delete(r.Context(), mailID); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrMailNotFound):
				render.ServiceError(w, "Mail not found", http.StatusNotFound)
			default:
				logger.Error("deleting mail failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, DeleteResponse{Message: "Mail deleted successfully"})
	})
}
