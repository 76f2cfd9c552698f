package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"postbus/internal/apperrors"
	"postbus/internal/models"
)

type MailRepo struct {
	DB DBTX
}

const createMail = `-- name: CreateMail
INSERT INTO mails (id, user_id, mail_from, mail_to, subject, body, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, mail_from, mail_to, subject, body, is_read, created_at
`

func (r *MailRepo) Create(ctx context.Context, mail models.Mail) (models.Mail, error) {
	rows, _ := r.DB.Query(ctx, createMail,
		mail.ID, mail.UserID, mail.From, mail.To, mail.Subject, mail.Body, mail.IsRead, mail.CreatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToMail)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

const getMail = `-- name: GetMail
SELECT id, user_id, mail_from, mail_to, subject, body, is_read, created_at
FROM mails
WHERE id = $1
`

func (r *MailRepo) Get(ctx context.Context, mailID uuid.UUID) (models.Mail, error) {
	rows, _ := r.DB.Query(ctx, getMail, mailID)
	mail, err := pgx.CollectOneRow(rows, rowToMail)

	switch {
	case err == nil:
		return mail, nil
	case errors.Is(err, pgx.ErrNoRows):
		return mail, apperrors.ErrMailNotFound
	default:
		return mail, fmt.Errorf("db error: %w", err)
	}
}

const listMailsForUser = `-- name: ListMailsForUser
SELECT id, user_id, mail_from, mail_to, subject, body, is_read, created_at
FROM mails
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *MailRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Mail, error) {
	rows, _ := r.DB.Query(ctx, listMailsForUser, userID)
	mails, err := pgx.CollectRows(rows, rowToMail)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return mails, nil
}

const countMailsForUser = `-- name: CountMailsForUser
SELECT count(*) FILTER (WHERE is_read = false) AS unread, count(*) AS total
FROM mails
WHERE user_id = $1
`

func (r *MailRepo) CountForUser(ctx context.Context, userID uuid.UUID) (models.MailCount, error) {
	var count models.MailCount
	err := r.DB.QueryRow(ctx, countMailsForUser, userID).Scan(&count.Unread, &count.Total)
	if err != nil {
		return count, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

const markMailRead = `-- name: MarkMailRead
UPDATE mails
SET is_read = true
WHERE id = $1
RETURNING id, user_id, mail_from, mail_to, subject, body, is_read, created_at
`

func (r *MailRepo) MarkRead(ctx context.Context, mailID uuid.UUID) (models.Mail, error) {
	rows, _ := r.DB.Query(ctx, markMailRead, mailID)
	mail, err := pgx.CollectOneRow(rows, rowToMail)

	switch {
	case err == nil:
		return mail, nil
	case errors.Is(err, pgx.ErrNoRows):
		return mail, apperrors.ErrMailNotFound
	default:
		return mail, fmt.Errorf("db error: %w", err)
	}
}

const deleteMail = `-- name: DeleteMail
DELETE FROM mails
WHERE id = $1
`

func (r *MailRepo) Delete(ctx context.Context, mailID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteMail, mailID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMailNotFound
	}
	return nil
}

func rowToMail(row pgx.CollectableRow) (models.Mail, error) {
	var m models.Mail
	err := row.Scan(&m.ID, &m.UserID, &m.From, &m.To, &m.Subject, &m.Body, &m.IsRead, &m.CreatedAt)
	return m, err
}
