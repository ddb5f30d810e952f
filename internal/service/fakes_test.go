package service

import (
	"context"
	"errors"
	"sync"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

// platformErr mimics an RPC error carrying a platform message.
type platformErr string

func (e platformErr) Error() string           { return "rpc error: " + string(e) }
func (e platformErr) PlatformMessage() string { return string(e) }

type fakePlatform struct {
	mu         sync.Mutex
	connectErr error
	newConn    func() *fakeConn
	conns      []*fakeConn
	sessions   [][]byte
}

func (p *fakePlatform) Connect(_ context.Context, session []byte) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, session)
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	c := &fakeConn{codeHash: "hash"}
	if p.newConn != nil {
		c = p.newConn()
	}
	p.conns = append(p.conns, c)
	return c, nil
}

func (p *fakePlatform) connCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *fakePlatform) conn(i int) *fakeConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[i]
}

type fakeConn struct {
	mu sync.Mutex

	codeHash       string
	sendCodeErr    error
	signInErr      error
	passwordNeeded bool
	passwordErr    error
	authorized     bool
	authorizedErr  error
	session        []byte

	// signInEntered and signInRelease, when set, hold SignIn until released.
	signInEntered chan struct{}
	signInRelease chan struct{}

	dialogs    []models.Dialog
	dialogsErr error
	history    []models.Message
	historyErr error

	signInCalls   int
	passwordCalls int
	loggedOut     bool
	closed        bool
	iterators     []*sliceIterator
}

func (c *fakeConn) SendCode(context.Context, string) (string, error) {
	return c.codeHash, c.sendCodeErr
}

func (c *fakeConn) SignIn(_ context.Context, _, _, _ string) (bool, error) {
	if c.signInEntered != nil {
		close(c.signInEntered)
		<-c.signInRelease
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signInCalls++
	if c.signInErr != nil {
		return false, c.signInErr
	}
	return c.passwordNeeded, nil
}

func (c *fakeConn) CheckPassword(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passwordCalls++
	return c.passwordErr
}

func (c *fakeConn) Authorized(context.Context) (bool, error) {
	return c.authorized, c.authorizedErr
}

func (c *fakeConn) LogOut(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return nil
}

func (c *fakeConn) Dialogs(context.Context) ([]models.Dialog, error) {
	return c.dialogs, c.dialogsErr
}

func (c *fakeConn) Messages(_ models.PeerRef, limit int) MessageIterator {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := &sliceIterator{msgs: c.history, limit: limit, err: c.historyErr}
	c.iterators = append(c.iterators, it)
	return it
}

func (c *fakeConn) Session(context.Context) ([]byte, error) {
	return c.session, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sliceIterator serves msgs in order and records how many were pulled.
// err, if set, is reported once the slice is exhausted.
type sliceIterator struct {
	msgs     []models.Message
	limit    int
	err      error
	examined int
	cur      models.Message
	failed   error
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		it.failed = err
		return false
	}
	if it.examined >= it.limit {
		return false
	}
	if it.examined >= len(it.msgs) {
		it.failed = it.err
		return false
	}
	it.cur = it.msgs[it.examined]
	it.examined++
	return true
}

func (it *sliceIterator) Value() models.Message { return it.cur }

func (it *sliceIterator) Err() error { return it.failed }

type fakeStore struct {
	mu      sync.Mutex
	phone   string
	data    []byte
	loadErr error
	saves   int
	deletes int
}

func (s *fakeStore) Save(_ context.Context, phone string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone, s.data = phone, data
	s.saves++
	return nil
}

func (s *fakeStore) Load(context.Context) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phone, s.data, s.loadErr
}

func (s *fakeStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone, s.data = "", nil
	s.deletes++
	return nil
}

// fakeClassifier scores by exact text; unknown texts are neutral.
type fakeClassifier struct {
	mu     sync.Mutex
	scores map[string]float64
	fail   map[string]bool
	calls  int
}

var errClassify = errors.New("classifier unavailable")

func (f *fakeClassifier) Score(_ context.Context, text string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[text] {
		return 0, errClassify
	}
	return f.scores[text], nil
}

// staticSessions hands out a fixed connection.
type staticSessions struct {
	conn Conn
}

func (s staticSessions) Conn() (Conn, error) {
	if s.conn == nil {
		return nil, ErrNotAuthenticated
	}
	return s.conn, nil
}
