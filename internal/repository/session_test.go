package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/crypto"
)

type SessionRepositorySuite struct {
	suite.Suite
	repo *SessionRepository
	ctx  context.Context
}

func (s *SessionRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	repo, err := Open(config.SessionStoreConfig{
		Type:   "sqlite",
		Path:   filepath.Join(s.T().TempDir(), "nested", "session.db"),
		Secret: "test-secret",
	}, zap.NewNop())
	s.Require().NoError(err)
	s.repo = repo
}

func (s *SessionRepositorySuite) TearDownTest() {
	s.repo.Close()
}

func (s *SessionRepositorySuite) TestLoadEmpty() {
	phone, data, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(phone)
	s.Empty(data)
}

func (s *SessionRepositorySuite) TestSaveLoad() {
	s.Require().NoError(s.repo.Save(s.ctx, "+911234567890", []byte(`{"Version":1}`)))

	phone, data, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal("+911234567890", phone)
	s.Equal(`{"Version":1}`, string(data))
}

func (s *SessionRepositorySuite) TestSaveReplaces() {
	s.Require().NoError(s.repo.Save(s.ctx, "+1", []byte("first")))
	s.Require().NoError(s.repo.Save(s.ctx, "+2", []byte("second")))

	phone, data, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal("+2", phone)
	s.Equal("second", string(data))

	var count int
	s.Require().NoError(s.repo.db.Get(&count, `SELECT COUNT(*) FROM telegram_sessions`))
	s.Equal(1, count)
}

func (s *SessionRepositorySuite) TestStoredEncrypted() {
	s.Require().NoError(s.repo.Save(s.ctx, "+1", []byte("plain-session")))

	var raw string
	s.Require().NoError(s.repo.db.Get(&raw, `SELECT data FROM telegram_sessions`))
	s.NotContains(raw, "plain-session")
}

func (s *SessionRepositorySuite) TestDelete() {
	s.Require().NoError(s.repo.Save(s.ctx, "+1", []byte("x")))
	s.Require().NoError(s.repo.Delete(s.ctx))

	_, data, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(data)

	s.NoError(s.repo.Delete(s.ctx))
}

func (s *SessionRepositorySuite) TestWrongSecret() {
	s.Require().NoError(s.repo.Save(s.ctx, "+1", []byte("x")))

	keys, err := crypto.NewKeyManager("other-secret")
	s.Require().NoError(err)
	other := NewSessionRepository(s.repo.db, keys, zap.NewNop())

	_, _, err = other.Load(s.ctx)
	s.ErrorIs(err, crypto.ErrDecryptionFailed)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}

func TestOpenValidation(t *testing.T) {
	_, err := Open(config.SessionStoreConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")}, zap.NewNop())
	assert.ErrorIs(t, err, crypto.ErrSecretNotSet)

	_, err = Open(config.SessionStoreConfig{Type: "redis", Secret: "x"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session store type")
}
