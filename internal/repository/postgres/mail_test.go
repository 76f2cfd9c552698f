package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postbus/internal/apperrors"
	"postbus/internal/models"
	"postbus/internal/testutil"
)

func Test_MailRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newMail := func(userID uuid.UUID, createdAt time.Time) models.Mail {
		return models.Mail{
			ID:        uuid.New(),
			UserID:    userID,
			From:      "doctor@hospital.example.com",
			To:        "owner@x.com",
			Subject:   "Appointment confirmation",
			Body:      "Your appointment is confirmed.",
			IsRead:    false,
			CreatedAt: createdAt,
		}
	}

	t.Run("create and get mail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}
			mail := newMail(createTokenOwner(t, tx).ID, mustParseTime("2024-01-01 19:00:01Z"))

			created, err := repo.Create(t.Context(), mail)
			require.NoError(t, err)
			require.Equal(t, mail.ID, created.ID)

			got, err := repo.Get(t.Context(), mail.ID)
			require.NoError(t, err)
			require.Equal(t, mail.Subject, got.Subject)
			require.Equal(t, mail.UserID, got.UserID)
			require.False(t, got.IsRead)
		})
	})

	t.Run("get mail not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}

			_, err := repo.Get(t.Context(), uuid.New())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMailNotFound)
		})
	})

	t.Run("list returns newest first", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}
			owner := createTokenOwner(t, tx)

			older := newMail(owner.ID, mustParseTime("2024-01-01 19:00:01Z"))
			newer := newMail(owner.ID, mustParseTime("2024-02-01 19:00:01Z"))
			for _, m := range []models.Mail{older, newer} {
				_, err := repo.Create(t.Context(), m)
				require.NoError(t, err)
			}

			got, err := repo.ListForUser(t.Context(), owner.ID)

			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, newer.ID, got[0].ID, "newest mail should come first")
			require.Equal(t, older.ID, got[1].ID)
		})
	})

	t.Run("list for user without mails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}

			got, err := repo.ListForUser(t.Context(), uuid.New())

			require.NoError(t, err)
			require.Empty(t, got)
		})
	})

	t.Run("count unread and total", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}
			owner := createTokenOwner(t, tx)

			read := newMail(owner.ID, mustParseTime("2024-01-01 19:00:01Z"))
			read.IsRead = true
			unread := newMail(owner.ID, mustParseTime("2024-01-02 19:00:01Z"))
			for _, m := range []models.Mail{read, unread} {
				_, err := repo.Create(t.Context(), m)
				require.NoError(t, err)
			}

			count, err := repo.CountForUser(t.Context(), owner.ID)

			require.NoError(t, err)
			require.Equal(t, int64(1), count.Unread)
			require.Equal(t, int64(2), count.Total)
		})
	})

	t.Run("mark read", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}
			mail := newMail(createTokenOwner(t, tx).ID, mustParseTime("2024-01-01 19:00:01Z"))
			_, err := repo.Create(t.Context(), mail)
			require.NoError(t, err)

			got, err := repo.MarkRead(t.Context(), mail.ID)

			require.NoError(t, err)
			require.True(t, got.IsRead)
		})
	})

	t.Run("mark read not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}

			_, err := repo.MarkRead(t.Context(), uuid.New())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMailNotFound)
		})
	})

	t.Run("delete mail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}
			mail := newMail(createTokenOwner(t, tx).ID, mustParseTime("2024-01-01 19:00:01Z"))
			_, err := repo.Create(t.Context(), mail)
			require.NoError(t, err)

			err = repo.Delete(t.Context(), mail.ID)
			require.NoError(t, err)

			_, err = repo.Get(t.Context(), mail.ID)
			assert.ErrorIs(t, err, apperrors.ErrMailNotFound)
		})
	})

	t.Run("delete mail not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := MailRepo{DB: tx}

			err := repo.Delete(t.Context(), uuid.New())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMailNotFound)
		})
	})
}
