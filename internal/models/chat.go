package models

// ConversationKind is the kind of a Telegram peer.
type ConversationKind string

const (
	KindChat      ConversationKind = "chat"      // basic group
	KindMegagroup ConversationKind = "megagroup" // supergroup (channel with megagroup flag)
)

// PeerRef is the opaque platform handle of a conversation.
// AccessHash is only meaningful for channels, megagroups and users.
type PeerRef struct {
	Kind       ConversationKind `json:"type"`
	ID         int64            `json:"id"`
	AccessHash int64            `json:"-"`
}

// Conversation is a group chat visible to the authenticated account.
// ID is a 1-based ordinal that is only stable within a single listing.
type Conversation struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Peer PeerRef `json:"entity"`
}
