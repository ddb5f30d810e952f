package models

const (
	KindUser    ConversationKind = "user"
	KindChannel ConversationKind = "channel" // broadcast channel
)

// Dialog is one entry of the account's dialog list, before group filtering.
type Dialog struct {
	Name    string
	Peer    PeerRef
	IsGroup bool
}
