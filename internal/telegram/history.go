package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

// historyBatchSize is the largest page messages.getHistory returns.
const historyBatchSize = 100

type historyFetcher func(ctx context.Context, offsetID, limit int) (tg.MessagesMessagesClass, error)

// historyIterator pages through a chat history newest-first. A page is only
// requested once the previous one is consumed.
type historyIterator struct {
	fetch     historyFetcher
	batchSize int
	remaining int

	offsetID int
	buf      []models.Message
	cur      models.Message
	last     bool
	err      error
}

func newHistoryIterator(fetch historyFetcher, batchSize, limit int) *historyIterator {
	return &historyIterator{
		fetch:     fetch,
		batchSize: batchSize,
		remaining: limit,
	}
}

// Next advances to the next message. It returns false at the end of the
// history, once limit messages were returned, on error or on cancellation.
func (it *historyIterator) Next(ctx context.Context) bool {
	if it.err != nil || it.remaining <= 0 {
		return false
	}

	if len(it.buf) == 0 {
		if it.last {
			return false
		}
		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}
		if err := it.fetchPage(ctx); err != nil {
			it.err = err
			return false
		}
		if len(it.buf) == 0 {
			return false
		}
	}

	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	it.remaining--
	return true
}

func (it *historyIterator) Value() models.Message { return it.cur }

func (it *historyIterator) Err() error { return it.err }

func (it *historyIterator) fetchPage(ctx context.Context) error {
	limit := it.batchSize
	if it.remaining < limit {
		limit = it.remaining
	}

	resp, err := it.fetch(ctx, it.offsetID, limit)
	if err != nil {
		return wrapErr(err)
	}

	var msgs []tg.MessageClass
	switch r := resp.(type) {
	case *tg.MessagesMessages:
		msgs = r.Messages
		it.last = true
	case *tg.MessagesMessagesSlice:
		msgs = r.Messages
	case *tg.MessagesChannelMessages:
		msgs = r.Messages
	case *tg.MessagesMessagesNotModified:
		it.last = true
	default:
		return fmt.Errorf("unexpected history type %T", resp)
	}

	if len(msgs) < limit {
		it.last = true
	}

	for _, m := range msgs {
		msg := convertMessage(m)
		it.buf = append(it.buf, msg)
		it.offsetID = msg.ID
	}
	return nil
}

func convertMessage(m tg.MessageClass) models.Message {
	switch msg := m.(type) {
	case *tg.Message:
		return models.Message{
			ID:       msg.ID,
			Text:     msg.Message,
			Date:     int64(msg.Date),
			AuthorID: userID(msg.FromID),
		}
	case *tg.MessageService:
		return models.Message{
			ID:       msg.ID,
			Date:     int64(msg.Date),
			AuthorID: userID(msg.FromID),
		}
	default:
		return models.Message{ID: m.GetID()}
	}
}

// userID returns the sender's user id, or 0 when the sender is not a user.
func userID(from tg.PeerClass) int64 {
	if p, ok := from.(*tg.PeerUser); ok {
		return p.UserID
	}
	return 0
}
