package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/crypto"
)

// The process has a single session, so it always lives in this row.
const sessionRowID = 1

// SessionRepository persists the encrypted MTProto session blob.
type SessionRepository struct {
	db     *sqlx.DB
	keys   *crypto.KeyManager
	logger *zap.Logger
}

type sessionRow struct {
	Phone string `db:"phone"`
	Data  string `db:"data"`
}

// NewSessionRepository creates a session repository on an initialized database.
func NewSessionRepository(db *sqlx.DB, keys *crypto.KeyManager, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{db: db, keys: keys, logger: logger}
}

// Open connects the database selected by cfg, prepares its schema and
// returns a repository using it.
func Open(cfg config.SessionStoreConfig, logger *zap.Logger) (*SessionRepository, error) {
	keys, err := crypto.NewKeyManager(cfg.Secret)
	if err != nil {
		return nil, err
	}

	var db *sqlx.DB
	switch cfg.Type {
	case "postgres":
		db, err = NewPostgresDB(cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		if err := MigrateDB(db, cfg.MigrationsPath, logger); err != nil {
			db.Close()
			return nil, err
		}
	case "sqlite", "":
		db, err = NewSQLiteDB(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown session store type %q", cfg.Type)
	}

	return NewSessionRepository(db, keys, logger), nil
}

// Save encrypts data and stores it, replacing any previous session.
func (r *SessionRepository) Save(ctx context.Context, phone string, data []byte) error {
	sealed, err := r.keys.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO telegram_sessions (id, phone, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			phone = excluded.phone,
			data = excluded.data,
			updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, sessionRowID, phone, sealed, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.logger.Debug("Session saved", zap.String("phone", phone))
	return nil
}

// Load returns the stored session. data is empty when none is stored.
func (r *SessionRepository) Load(ctx context.Context) (string, []byte, error) {
	var row sessionRow
	query := r.db.Rebind(`SELECT phone, data FROM telegram_sessions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, sessionRowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to load session: %w", err)
	}

	data, err := r.keys.Open(row.Data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	return row.Phone, data, nil
}

// Delete removes the stored session.
func (r *SessionRepository) Delete(ctx context.Context) error {
	query := r.db.Rebind(`DELETE FROM telegram_sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, sessionRowID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SessionRepository) Close() error {
	return r.db.Close()
}
