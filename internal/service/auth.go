package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const passwordNeededMessage = "SESSION_PASSWORD_NEEDED"

// PendingChallenge is a code request waiting for confirmation.
// The code hash is only valid on Conn, so both are kept together.
type PendingChallenge struct {
	Phone            string
	CodeHash         string
	Conn             Conn
	PasswordRequired bool
	RequestedAt      time.Time
}

// Session is the authenticated connection shared by the whole process.
type Session struct {
	Conn            Conn
	Phone           string
	AuthenticatedAt time.Time
}

// SessionStatus is a read-only snapshot of the session.
type SessionStatus struct {
	Authenticated   bool
	Phone           string
	AuthenticatedAt time.Time
}

// AuthService drives the two-phase login and owns the process session.
type AuthService struct {
	platform      Platform
	store         SessionStore
	defaultPrefix string
	logger        *zap.Logger

	mu      sync.RWMutex
	pending map[string]*PendingChallenge
	session *Session
}

// NewAuthService creates an AuthService. store may be nil to keep the
// session in memory only.
func NewAuthService(platform Platform, store SessionStore, defaultPrefix string, logger *zap.Logger) *AuthService {
	return &AuthService{
		platform:      platform,
		store:         store,
		defaultPrefix: defaultPrefix,
		logger:        logger,
		pending:       make(map[string]*PendingChallenge),
	}
}

// NormalizePhone prefixes phone with defaultPrefix unless it already
// starts with a "+".
func NormalizePhone(phone, defaultPrefix string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return defaultPrefix + phone
}

// RequestCode opens a fresh connection and asks the platform to send a login
// code to phone. A previous pending request for the same phone is replaced.
func (s *AuthService) RequestCode(ctx context.Context, phone string) error {
	if strings.TrimSpace(phone) == "" {
		return ErrPhoneRequired
	}
	phone = NormalizePhone(phone, s.defaultPrefix)

	conn, err := s.platform.Connect(ctx, nil)
	if err != nil {
		return upstream("connect", err)
	}
	s.logger.Info("Client connected", zap.String("phone", phone))

	codeHash, err := conn.SendCode(ctx, phone)
	if err != nil {
		s.closeConn(conn)
		return upstream("send code", err)
	}

	s.mu.Lock()
	prev := s.pending[phone]
	s.pending[phone] = &PendingChallenge{
		Phone:       phone,
		CodeHash:    codeHash,
		Conn:        conn,
		RequestedAt: time.Now(),
	}
	s.mu.Unlock()

	if prev != nil {
		s.logger.Info("Replacing pending code request", zap.String("phone", phone))
		go s.closeConn(prev.Conn)
	}

	s.logger.Info("Login code sent", zap.String("phone", phone))
	return nil
}

// ConfirmCode submits the code for the pending request of phone. On success the
// pending connection becomes the process session. password is only used when
// the account has two-step verification enabled.
func (s *AuthService) ConfirmCode(ctx context.Context, phone, code, password string) error {
	if strings.TrimSpace(phone) == "" {
		return ErrPhoneRequired
	}
	if strings.TrimSpace(code) == "" {
		return ErrCodeRequired
	}
	phone = NormalizePhone(phone, s.defaultPrefix)
	code = strings.TrimSpace(code)

	s.mu.RLock()
	challenge, ok := s.pending[phone]
	var passwordRequired bool
	if ok {
		passwordRequired = challenge.PasswordRequired
	}
	s.mu.RUnlock()
	if !ok {
		return ErrNoPendingChallenge
	}

	if !passwordRequired {
		needed, err := challenge.Conn.SignIn(ctx, phone, challenge.CodeHash, code)
		if err != nil {
			return upstream("sign in", err)
		}
		if needed {
			s.mu.Lock()
			challenge.PasswordRequired = true
			s.mu.Unlock()
			passwordRequired = true
		}
	}

	if passwordRequired {
		if password == "" {
			return &UpstreamError{Op: "sign in", Message: passwordNeededMessage}
		}
		if err := challenge.Conn.CheckPassword(ctx, password); err != nil {
			return upstream("check password", err)
		}
	}

	return s.promote(ctx, challenge)
}

// promote makes the confirmed challenge's connection the process session.
// A challenge replaced by a newer code request while it was being confirmed
// is rejected; its connection is already being closed.
func (s *AuthService) promote(ctx context.Context, challenge *PendingChallenge) error {
	s.mu.Lock()
	if s.pending[challenge.Phone] != challenge {
		s.mu.Unlock()
		s.logger.Info("Code request was replaced during confirmation", zap.String("phone", challenge.Phone))
		return ErrNoPendingChallenge
	}
	delete(s.pending, challenge.Phone)
	prev := s.session
	s.session = &Session{
		Conn:            challenge.Conn,
		Phone:           challenge.Phone,
		AuthenticatedAt: time.Now(),
	}
	s.mu.Unlock()

	if prev != nil && prev.Conn != challenge.Conn {
		go s.closeConn(prev.Conn)
	}

	s.logger.Info("Telegram session authenticated", zap.String("phone", challenge.Phone))
	s.persist(ctx, challenge.Phone, challenge.Conn)
	return nil
}

func (s *AuthService) persist(ctx context.Context, phone string, conn Conn) {
	if s.store == nil {
		return
	}
	data, err := conn.Session(ctx)
	if err != nil {
		s.logger.Error("Failed to dump session", zap.Error(err))
		return
	}
	if err := s.store.Save(ctx, phone, data); err != nil {
		s.logger.Error("Failed to persist session", zap.Error(err))
	}
}

// Restore resumes a persisted session, if any. A stored session that the
// platform no longer accepts is discarded.
func (s *AuthService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	phone, data, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		s.logger.Info("No stored session to restore")
		return nil
	}

	conn, err := s.platform.Connect(ctx, data)
	if err != nil {
		return upstream("connect", err)
	}

	authorized, err := conn.Authorized(ctx)
	if err != nil {
		s.closeConn(conn)
		return upstream("auth status", err)
	}
	if !authorized {
		s.logger.Warn("Stored session is no longer authorized, discarding", zap.String("phone", phone))
		s.closeConn(conn)
		return s.store.Delete(ctx)
	}

	s.mu.Lock()
	prev := s.session
	s.session = &Session{Conn: conn, Phone: phone, AuthenticatedAt: time.Now()}
	s.mu.Unlock()
	if prev != nil {
		go s.closeConn(prev.Conn)
	}

	s.logger.Info("Restored Telegram session", zap.String("phone", phone))
	return nil
}

// Logout terminates the session and forgets any persisted copy.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()

	if sess == nil {
		return ErrNotAuthenticated
	}

	if err := sess.Conn.LogOut(ctx); err != nil {
		s.logger.Warn("Platform logout failed", zap.Error(err))
	}
	s.closeConn(sess.Conn)

	if s.store != nil {
		if err := s.store.Delete(ctx); err != nil {
			s.logger.Error("Failed to delete stored session", zap.Error(err))
		}
	}

	s.logger.Info("Telegram session logged out", zap.String("phone", sess.Phone))
	return nil
}

// Conn returns the authenticated connection.
func (s *AuthService) Conn() (Conn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, ErrNotAuthenticated
	}
	return s.session.Conn, nil
}

// Status reports whether a session is established.
func (s *AuthService) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return SessionStatus{}
	}
	return SessionStatus{
		Authenticated:   true,
		Phone:           s.session.Phone,
		AuthenticatedAt: s.session.AuthenticatedAt,
	}
}

// PendingCount returns the number of outstanding code requests.
func (s *AuthService) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Close releases every connection held by the service.
func (s *AuthService) Close() {
	s.mu.Lock()
	pending := s.pending
	sess := s.session
	s.pending = make(map[string]*PendingChallenge)
	s.session = nil
	s.mu.Unlock()

	for _, p := range pending {
		s.closeConn(p.Conn)
	}
	if sess != nil {
		s.closeConn(sess.Conn)
	}
}

func (s *AuthService) closeConn(conn Conn) {
	if err := conn.Close(); err != nil {
		s.logger.Debug("Error closing connection", zap.Error(err))
	}
}
