package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotd/td/tg"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

const dialogBatchSize = 100

type dialogFetcher func(ctx context.Context, req *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)

// dialogPager walks messages.getDialogs using the date, id and peer of the
// last dialog of each page as the next offset.
type dialogPager struct {
	fetch dialogFetcher
}

func newDialogPager(fetch dialogFetcher) *dialogPager {
	return &dialogPager{fetch: fetch}
}

type dialogPage struct {
	dialogs  []tg.DialogClass
	messages []tg.MessageClass
	chats    []tg.ChatClass
	users    []tg.UserClass
	count    int // total reported by the server, 0 if unknown
	last     bool
}

func (p *dialogPager) page(ctx context.Context, req *tg.MessagesGetDialogsRequest) (dialogPage, error) {
	resp, err := p.fetch(ctx, req)
	if err != nil {
		return dialogPage{}, err
	}

	switch d := resp.(type) {
	case *tg.MessagesDialogs:
		return dialogPage{dialogs: d.Dialogs, messages: d.Messages, chats: d.Chats, users: d.Users, last: true}, nil
	case *tg.MessagesDialogsSlice:
		return dialogPage{dialogs: d.Dialogs, messages: d.Messages, chats: d.Chats, users: d.Users, count: d.Count}, nil
	case *tg.MessagesDialogsNotModified:
		return dialogPage{last: true}, nil
	default:
		return dialogPage{}, fmt.Errorf("unexpected dialogs type %T", resp)
	}
}

// All fetches every dialog in server order.
func (p *dialogPager) All(ctx context.Context) ([]models.Dialog, error) {
	req := &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogBatchSize,
	}

	var (
		result  []models.Dialog
		fetched int
		seen    = make(map[string]struct{})
	)

	for {
		page, err := p.page(ctx, req)
		if err != nil {
			return nil, err
		}
		ent := newEntities(page.chats, page.users)

		var lastDialog *tg.Dialog
		for _, dc := range page.dialogs {
			dlg, ok := dc.(*tg.Dialog)
			if !ok {
				continue
			}
			lastDialog = dlg

			key := peerKey(dlg.Peer)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if d, ok := ent.dialog(dlg.Peer); ok {
				result = append(result, d)
			}
		}

		fetched += len(page.dialogs)
		if page.last || lastDialog == nil || len(page.dialogs) < req.Limit || (page.count > 0 && fetched >= page.count) {
			return result, nil
		}

		req = &tg.MessagesGetDialogsRequest{
			OffsetDate: topMessageDate(page.messages, lastDialog),
			OffsetID:   lastDialog.TopMessage,
			OffsetPeer: ent.inputPeer(lastDialog.Peer),
			Limit:      dialogBatchSize,
		}
	}
}

func topMessageDate(msgs []tg.MessageClass, dlg *tg.Dialog) int {
	key := peerKey(dlg.Peer)
	for _, m := range msgs {
		switch msg := m.(type) {
		case *tg.Message:
			if msg.ID == dlg.TopMessage && peerKey(msg.PeerID) == key {
				return msg.Date
			}
		case *tg.MessageService:
			if msg.ID == dlg.TopMessage && peerKey(msg.PeerID) == key {
				return msg.Date
			}
		}
	}
	return 0
}

func peerKey(p tg.PeerClass) string {
	switch peer := p.(type) {
	case *tg.PeerUser:
		return fmt.Sprintf("user:%d", peer.UserID)
	case *tg.PeerChat:
		return fmt.Sprintf("chat:%d", peer.ChatID)
	case *tg.PeerChannel:
		return fmt.Sprintf("channel:%d", peer.ChannelID)
	default:
		return ""
	}
}

// entities indexes the chats and users attached to a dialogs page.
type entities struct {
	chats    map[int64]*tg.Chat
	channels map[int64]*tg.Channel
	users    map[int64]*tg.User
}

func newEntities(chats []tg.ChatClass, users []tg.UserClass) entities {
	e := entities{
		chats:    make(map[int64]*tg.Chat),
		channels: make(map[int64]*tg.Channel),
		users:    make(map[int64]*tg.User),
	}
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			e.chats[chat.ID] = chat
		case *tg.Channel:
			e.channels[chat.ID] = chat
		}
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			e.users[user.ID] = user
		}
	}
	return e
}

// dialog resolves a dialog peer. Forbidden chats and channels are skipped.
func (e entities) dialog(p tg.PeerClass) (models.Dialog, bool) {
	switch peer := p.(type) {
	case *tg.PeerChat:
		chat, ok := e.chats[peer.ChatID]
		if !ok {
			return models.Dialog{}, false
		}
		return models.Dialog{
			Name:    chat.Title,
			Peer:    models.PeerRef{Kind: models.KindChat, ID: chat.ID},
			IsGroup: true,
		}, true
	case *tg.PeerChannel:
		ch, ok := e.channels[peer.ChannelID]
		if !ok {
			return models.Dialog{}, false
		}
		kind := models.KindChannel
		if ch.Megagroup {
			kind = models.KindMegagroup
		}
		return models.Dialog{
			Name:    ch.Title,
			Peer:    models.PeerRef{Kind: kind, ID: ch.ID, AccessHash: ch.AccessHash},
			IsGroup: ch.Megagroup,
		}, true
	case *tg.PeerUser:
		user, ok := e.users[peer.UserID]
		if !ok {
			return models.Dialog{}, false
		}
		return models.Dialog{
			Name: strings.TrimSpace(user.FirstName + " " + user.LastName),
			Peer: models.PeerRef{Kind: models.KindUser, ID: user.ID, AccessHash: user.AccessHash},
		}, true
	default:
		return models.Dialog{}, false
	}
}

func (e entities) inputPeer(p tg.PeerClass) tg.InputPeerClass {
	switch peer := p.(type) {
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: peer.ChatID}
	case *tg.PeerChannel:
		var hash int64
		if ch, ok := e.channels[peer.ChannelID]; ok {
			hash = ch.AccessHash
		}
		return &tg.InputPeerChannel{ChannelID: peer.ChannelID, AccessHash: hash}
	case *tg.PeerUser:
		var hash int64
		if u, ok := e.users[peer.UserID]; ok {
			hash = u.AccessHash
		}
		return &tg.InputPeerUser{UserID: peer.UserID, AccessHash: hash}
	default:
		return &tg.InputPeerEmpty{}
	}
}
