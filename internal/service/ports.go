package service

import (
	"context"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

// Platform opens connections to the messaging platform.
// A nil or empty session starts from scratch; otherwise the connection
// resumes the serialized session.
type Platform interface {
	Connect(ctx context.Context, session []byte) (Conn, error)
}

// Conn is a live connection to the messaging platform.
// A one-time code is only valid on the connection that requested it.
type Conn interface {
	// SendCode requests a login code and returns the challenge token.
	SendCode(ctx context.Context, phone string) (codeHash string, err error)
	// SignIn submits a login code. passwordNeeded is set when the account
	// has two-step verification enabled and CheckPassword must follow.
	SignIn(ctx context.Context, phone, codeHash, code string) (passwordNeeded bool, err error)
	CheckPassword(ctx context.Context, password string) error
	Authorized(ctx context.Context) (bool, error)
	LogOut(ctx context.Context) error

	Dialogs(ctx context.Context) ([]models.Dialog, error)
	// Messages returns a newest-first iterator over at most limit messages.
	Messages(peer models.PeerRef, limit int) MessageIterator

	// Session serializes the connection state so it can be resumed later.
	Session(ctx context.Context) ([]byte, error)
	Close() error
}

// MessageIterator is a lazy, finite, non-restartable pull over a history.
type MessageIterator interface {
	Next(ctx context.Context) bool
	Value() models.Message
	Err() error
}

// Classifier scores the sentiment of a text. Positive is good, negative bad.
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
}

// SessionStore persists the authenticated session between restarts.
// Load returns an empty blob when nothing is stored.
type SessionStore interface {
	Save(ctx context.Context, phone string, data []byte) error
	Load(ctx context.Context) (phone string, data []byte, err error)
	Delete(ctx context.Context) error
}
