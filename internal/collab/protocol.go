package collab

import (
	"encoding/json"

	"github.com/boothmap/boothmap/internal/aggregate"
	"github.com/boothmap/boothmap/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	LayoutID string          `json:"layoutId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
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
	TypeDocSync     = "doc.sync"
	TypeDocRequest  = "doc.request"
	TypeStateUpdate = "state.update"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	Role      string `json:"role"`
	Version   uint64 `json:"version"`
	ServerSeq int64  `json:"serverSeq"`
}

// DocSyncPayload carries the whole document. Booth maps hold tens of
// shapes, so every change resends it.
type DocSyncPayload struct {
	Document json.RawMessage `json:"document"`
	Version  uint64          `json:"version"`
}

// StatePayload is one client's view after an operation: its own
// selection, the shared totals and a display list to draw.
type StatePayload struct {
	Version   uint64             `json:"version"`
	ServerSeq int64              `json:"serverSeq"`
	Layer     string             `json:"layer"`
	Selection engine.Selection   `json:"selection"`
	Info      *engine.Info       `json:"info,omitempty"`
	CanUndo   bool               `json:"canUndo"`
	Report    aggregate.Report   `json:"report"`
	Scene     *engine.SceneGraph `json:"scene"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	OperationID string    `json:"operationId"`
	ClientSeq   int64     `json:"clientSeq"`
	Op          engine.Op `json:"op"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
	Changed         bool   `json:"changed"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type PresencePayload struct {
	Cursor      *CursorPos        `json:"cursor,omitempty"`
	Selection   *engine.Selection `json:"selection,omitempty"`
	DisplayName string            `json:"displayName,omitempty"`
	Role        string            `json:"role,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(ErrorPayload{Message: err.Error()})
		typ = TypeError
	}
	return &Message{Type: typ, Payload: data}
}
