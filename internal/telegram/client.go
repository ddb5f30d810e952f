package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

// Client opens MTProto connections to Telegram.
type Client struct {
	cfg       config.TelegramConfig
	batchSize int
	logger    *zap.Logger
}

// NewClient creates a new Telegram connection factory. batchSize bounds each
// history page and is capped at historyBatchSize.
func NewClient(cfg config.TelegramConfig, batchSize int, logger *zap.Logger) *Client {
	if batchSize <= 0 || batchSize > historyBatchSize {
		batchSize = historyBatchSize
	}
	return &Client{cfg: cfg, batchSize: batchSize, logger: logger}
}

// Connect starts a new MTProto connection backed by an in-memory session,
// optionally seeded with a previously dumped session.
func (c *Client) Connect(ctx context.Context, data []byte) (service.Conn, error) {
	storage := &session.StorageMemory{}
	if len(data) > 0 {
		if err := storage.StoreSession(ctx, data); err != nil {
			return nil, fmt.Errorf("failed to seed session: %w", err)
		}
	}

	client := telegram.NewClient(c.cfg.APIID, c.cfg.APIHash, telegram.Options{
		Logger:         c.logger.Named("mtproto"),
		SessionStorage: storage,
		MaxRetries:     c.cfg.ConnectionRetries,
		RetryInterval:  c.cfg.RetryInterval,
		DialTimeout:    c.cfg.DialTimeout,
		NoUpdates:      true,
	})

	// The connection must outlive the request that opened it.
	runCtx, cancel := context.WithCancel(context.Background())
	conn := &Conn{
		client:    client,
		storage:   storage,
		batchSize: c.batchSize,
		cancel:    cancel,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		logger:    c.logger,
	}

	go func() {
		defer close(conn.done)
		conn.runErr = client.Run(runCtx, func(ctx context.Context) error {
			close(conn.ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-conn.ready:
		return conn, nil
	case <-conn.done:
		cancel()
		return nil, wrapErr(fmt.Errorf("telegram client stopped: %w", conn.runErr))
	case <-ctx.Done():
		cancel()
		<-conn.done
		return nil, ctx.Err()
	}
}

// Conn is a running Telegram client.
type Conn struct {
	client    *telegram.Client
	storage   *session.StorageMemory
	batchSize int
	logger    *zap.Logger

	cancel    context.CancelFunc
	ready     chan struct{}
	done      chan struct{}
	runErr    error
	closeOnce sync.Once
}

// SendCode requests a login code for phone and returns its phone code hash.
func (c *Conn) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", wrapErr(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code type %T", sent)
	}
	return code.PhoneCodeHash, nil
}

// SignIn submits the login code.
func (c *Conn) SignIn(ctx context.Context, phone, codeHash, code string) (bool, error) {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return true, nil
	}
	if err != nil {
		return false, wrapErr(err)
	}
	return false, nil
}

// CheckPassword completes two-step verification.
func (c *Conn) CheckPassword(ctx context.Context, password string) error {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Authorized reports whether the connection is logged in.
func (c *Conn) Authorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, wrapErr(err)
	}
	return status.Authorized, nil
}

// LogOut terminates the authorization on Telegram's side.
func (c *Conn) LogOut(ctx context.Context) error {
	if _, err := c.client.API().AuthLogOut(ctx); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Dialogs lists every dialog of the account.
func (c *Conn) Dialogs(ctx context.Context) ([]models.Dialog, error) {
	api := c.client.API()
	pager := newDialogPager(func(ctx context.Context, req *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
		return api.MessagesGetDialogs(ctx, req)
	})
	dialogs, err := pager.All(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	return dialogs, nil
}

// Messages returns a lazy newest-first iterator over the history of peer.
func (c *Conn) Messages(peer models.PeerRef, limit int) service.MessageIterator {
	api := c.client.API()
	input := inputPeer(peer)
	return newHistoryIterator(func(ctx context.Context, offsetID, batch int) (tg.MessagesMessagesClass, error) {
		return api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     input,
			OffsetID: offsetID,
			Limit:    batch,
		})
	}, c.batchSize, limit)
}

// Session dumps the current session so it can be resumed with Connect.
func (c *Conn) Session(ctx context.Context) ([]byte, error) {
	return c.storage.LoadSession(ctx)
}

// Close stops the client and waits for it to exit.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
		if c.runErr != nil && !errors.Is(c.runErr, context.Canceled) {
			err = c.runErr
		}
	})
	return err
}

func inputPeer(peer models.PeerRef) tg.InputPeerClass {
	switch peer.Kind {
	case models.KindChat:
		return &tg.InputPeerChat{ChatID: peer.ID}
	case models.KindMegagroup, models.KindChannel:
		return &tg.InputPeerChannel{ChannelID: peer.ID, AccessHash: peer.AccessHash}
	case models.KindUser:
		return &tg.InputPeerUser{UserID: peer.ID, AccessHash: peer.AccessHash}
	default:
		return &tg.InputPeerEmpty{}
	}
}
