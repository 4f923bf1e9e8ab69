package domain

// Event websocket envelope event
type Event string

const (
	// EventJoin client asks to subscribe to a room
	EventJoin Event = "join"
	// EventTrack client publishes its presence entry
	EventTrack Event = "track"
	// EventLeave client unsubscribes without dropping the socket
	EventLeave Event = "leave"

	// EventSubscribed server confirms the join
	EventSubscribed Event = "subscribed"
	// EventPresenceSync server sends the full presence snapshot
	EventPresenceSync Event = "presence_sync"
	// EventMessageInserted server forwards a committed message
	EventMessageInserted Event = "message_inserted"
	// EventError server rejects a request; Ref names the request event
	EventError Event = "error"
)

// Envelope is the single frame type of the realtime protocol, both directions
type Envelope struct {
	Event    Event         `json:"event"`
	Room     string        `json:"room,omitempty"`
	Ref      string        `json:"ref,omitempty"`
	Message  *ChatMessage  `json:"message,omitempty"`
	Presence PresenceState `json:"presence,omitempty"`
	Meta     *PresenceMeta `json:"meta,omitempty"`
	Error    string        `json:"error,omitempty"`
}
