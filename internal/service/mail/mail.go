package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"postbus/internal/models"
	"postbus/internal/repository"
)

type MailService struct {
	mailRepo repository.MailRepo
}

func NewService(mailRepo repository.MailRepo) *MailService {
	return &MailService{mailRepo: mailRepo}
}

type CreateMailParams struct {
	UserID  uuid.UUID
	From    string
	To      string
	Subject string
	Body    string
}

func (s *MailService) Create(ctx context.Context, params CreateMailParams) (models.Mail, error) {
	mail, err := s.mailRepo.Create(ctx, models.Mail{
		ID:        uuid.New(),
		UserID:    params.UserID,
		From:      params.From,
		To:        params.To,
		Subject:   params.Subject,
		Body:      params.Body,
		IsRead:    false,
		CreatedAt: time.Now().Truncate(time.Second),
	})
	if err != nil {
		return mail, fmt.Errorf("can't create mail. Err: %w", err)
	}

	return mail, nil
}

func (s *MailService) Get(ctx context.Context, mailID uuid.UUID) (models.Mail, error) {
	return s.mailRepo.Get(ctx, mailID)
}

// ListForUser returns the user's mails, newest first
func (s *MailService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Mail, error) {
	return s.mailRepo.ListForUser(ctx, userID)
}

func (s *MailService) CountForUser(ctx context.Context, userID uuid.UUID) (models.MailCount, error) {
	return s.mailRepo.CountForUser(ctx, userID)
}

func (s *MailService) MarkRead(ctx context.Context, mailID uuid.UUID) (models.Mail, error) {
	return s.mailRepo.MarkRead(ctx, mailID)
}

func (s *MailService) Delete(ctx context.Context, mailID uuid.UUID) error {
	return s.mailRepo.Delete(ctx, mailID)
}
