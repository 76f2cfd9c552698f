// Seed the database with demo users and mails for local development.
// Reads the target DSN from DATABASE_URI or the --database flag.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"postbus/internal/db"
	"postbus/internal/repository/postgres"
	"postbus/internal/service/auth"
	"postbus/internal/service/mail"
)

const demoPassword = "password123"

func main() {
	dsn := os.Getenv("DATABASE_URI")

	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	fs.StringVarP(&dsn, "database", "d", dsn, "Database connection string")
	_ = fs.Parse(os.Args[1:])

	if err := run(context.Background(), dsn); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("database DSN must be set")
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	userRepo := &postgres.UserRepo{DB: pool}
	mailRepo := &postgres.MailRepo{DB: pool}
	mails := mail.NewService(mailRepo)

	hash, err := auth.DefaultHasher.Hash(demoPassword)
	if err != nil {
		return err
	}

	users := []struct {
		email    string
		username string
	}{
		{"jan.jansen@example.com", "janjansen"},
		{"marie.bakker@example.com", "mariebakker"},
		{"peter.smit@example.com", "petersmit"},
	}

	for _, u := range users {
		username := u.username
		user, err := userRepo.CreateUser(ctx, u.email, &username, hash)
		if err != nil {
			return fmt.Errorf("can't create user %s. Err: %w", u.email, err)
		}

		_, err = mails.Create(ctx, mail.CreateMailParams{
			UserID:  user.ID,
			From:    "no-reply@postbus.example.com",
			To:      user.Email,
			Subject: "Welcome to your inbox",
			Body:    "Your mailbox is ready. Messages from your care providers will appear here.",
		})
		if err != nil {
			return fmt.Errorf("can't create mail for %s. Err: %w", u.email, err)
		}

		fmt.Printf("created %s (%s) with password %q\n", u.email, u.username, demoPassword)
	}

	return nil
}
