package collab

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	MapID    string          `json:"mapId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is one peer's live state. The cursor is in world space so
// peers with different viewports agree on where it points.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Color       string     `json:"color,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	Color    string `json:"color"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeDocRequest = "doc.request"
	TypeDocUpdate  = "doc.update"
	TypeDocAck     = "doc.ack"
	TypeDocNack    = "doc.nack"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// --- Document sync ---

// DocSyncPayload carries the authoritative document at a version.
type DocSyncPayload struct {
	Version  int64           `json:"version"`
	Document json.RawMessage `json:"document"`
}

// DocUpdatePayload replaces the whole document. BaseVersion must match the
// room's current version or the update is rejected.
type DocUpdatePayload struct {
	BaseVersion int64           `json:"baseVersion"`
	Document    json.RawMessage `json:"document"`
}

type DocAckPayload struct {
	Version int64 `json:"version"`
}

// DocNackPayload tells the sender its base was stale; it should rebase on
// Version (sent along in a doc.sync) and retry.
type DocNackPayload struct {
	Reason  string `json:"reason"`
	Version int64  `json:"version"`
}

// --- Operation Types ---

const (
	OpNodeMove   = "node.move"
	OpNodeLabel  = "node.label"
	OpNodeColor  = "node.color"
	OpNodeLocked = "node.locked"
	OpMapRename  = "map.rename"
)

// Operation is a small mutation that does not need a full document round
// trip. Which fields are read depends on Type.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	NodeID    string `json:"nodeId,omitempty"`

	// For node.move
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// For node.label / node.color / map.rename
	Text *string `json:"text,omitempty"`

	// For node.locked
	Locked *bool `json:"locked,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// newMessage marshals payload into a message of type typ.
func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}
