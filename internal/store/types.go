package store

// Peer is a roster entry: a conversation partner plus the denormalized
// preview fields the sidebar renders.
type Peer struct {
	ID              string `json:"_id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime string `json:"lastMessageTime"`
	Unread          int    `json:"unreadCount"`
}

// Bus event kinds published by the store.
const (
	EventRoster  = "store.roster"  // roster replaced or a peer created
	EventOpen    = "store.open"    // active conversation changed
	EventMessage = "store.message" // open conversation's log changed
	EventPreview = "store.preview" // a peer's preview/unread changed
)
