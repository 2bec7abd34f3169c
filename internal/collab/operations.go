package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/engine"
)

var ErrReadOnly = errors.New("read-only access")

// Room holds the authoritative document of one layout and one editing
// session per connected client over it.
type Room struct {
	layoutID  string
	doc       *document.Document
	clients   map[string]*Client
	sessions  map[string]*engine.Session
	presence  *PresenceManager
	serverSeq int64
	version   uint64
	dirty     bool
}

func NewRoom(layoutID string, doc *document.Document) *Room {
	return &Room{
		layoutID: layoutID,
		doc:      doc,
		clients:  make(map[string]*Client),
		sessions: make(map[string]*engine.Session),
		presence: NewPresenceManager(),
	}
}

// applyOperation runs op in the sender's session. When the document
// changed every other session revalidates its selection against it.
func (r *Room) applyOperation(sender *Client, op engine.Op) (changed bool, err error) {
	if !sender.CanEdit() && op.Mutates() {
		return false, ErrReadOnly
	}
	sess, ok := r.sessions[sender.ClientID]
	if !ok {
		return false, fmt.Errorf("no session for client %s", sender.ClientID)
	}

	before := sess.Version()
	if err := sess.Apply(op); err != nil {
		return false, err
	}
	if sess.Version() == before {
		return false, nil
	}

	r.serverSeq++
	r.version++
	r.dirty = true
	for id, other := range r.sessions {
		if id != sender.ClientID {
			other.Revalidate()
		}
	}
	return true, nil
}

func (r *Room) docSyncMessage() *Message {
	data, err := json.Marshal(r.doc)
	if err != nil {
		slog.Error("marshal document", "error", err, "layout", r.layoutID)
		return newMessage(TypeError, ErrorPayload{Message: "document unavailable"})
	}
	return newMessage(TypeDocSync, DocSyncPayload{Document: data, Version: r.version})
}

func (r *Room) stateMessage(clientID string) *Message {
	sess := r.sessions[clientID]
	st := StatePayload{
		Version:   r.version,
		ServerSeq: r.serverSeq,
		Layer:     sess.Layer().String(),
		Selection: sess.Selection(),
		CanUndo:   sess.CanUndo(),
		Report:    sess.Report(),
		Scene:     engine.BuildSceneGraph(sess),
	}
	if info, ok := sess.Describe(); ok {
		st.Info = &info
	}
	return newMessage(TypeStateUpdate, st)
}

func (r *Room) ackMessage(opID string, changed bool) *Message {
	return newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     opID,
		ServerSeq:       r.serverSeq,
		ServerTimestamp: time.Now().UnixMilli(),
		Changed:         changed,
	})
}
