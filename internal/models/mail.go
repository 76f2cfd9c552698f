package models

import (
	"time"

	"github.com/google/uuid"
)

type Mail struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	From      string
	To        string
	Subject   string
	Body      string
	IsRead    bool
	CreatedAt time.Time
}

type MailCount struct {
	Unread int64
	Total  int64
}
