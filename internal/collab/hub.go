// Package collab hosts live editing rooms over websockets. One hub
// goroutine owns every room and applies every operation, so sessions over
// a shared document never run concurrently.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/engine"
)

var errNoDocument = errors.New("loader returned no document")

// Loader fetches a layout's document when its room opens.
type Loader func(ctx context.Context, layoutID string) (*document.Document, error)

// Saver persists a room's document.
type Saver func(ctx context.Context, layoutID string, doc *document.Document) error

type Options struct {
	Settings engine.Settings
	Measurer document.TextMeasurer
	// Autosave is how often dirty rooms are saved. Zero disables the timer;
	// rooms still save when they empty and on Stop.
	Autosave time.Duration
	Logger   *slog.Logger
}

type eventKind int

const (
	eventRegister eventKind = iota
	eventUnregister
	eventMessage
)

type event struct {
	kind   eventKind
	client *Client
	msg    *Message
}

type Hub struct {
	rooms  map[string]*Room // layoutID -> room, owned by Run
	events chan event
	stop   chan struct{}
	done   chan struct{}

	load   Loader
	save   Saver
	opts   Options
	logger *slog.Logger
}

func NewHub(load Loader, save Saver, opts Options) *Hub {
	if opts.Measurer == nil {
		opts.Measurer = document.ApproxMeasurer{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]*Room),
		events: make(chan event, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		load:   load,
		save:   save,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Run processes events until Stop. Registration, messages and departures
// go through one channel, so each client's events apply in order.
func (h *Hub) Run() {
	defer close(h.done)

	var tick <-chan time.Time
	if h.opts.Autosave > 0 {
		ticker := time.NewTicker(h.opts.Autosave)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev := <-h.events:
			switch ev.kind {
			case eventRegister:
				h.addClient(ev.client)
			case eventUnregister:
				h.removeClient(ev.client)
			case eventMessage:
				h.handleMessage(ev.client, ev.msg)
			}
		case <-tick:
			h.saveDirty()
		case <-h.stop:
			h.saveDirty()
			for _, room := range h.rooms {
				for _, c := range room.clients {
					c.close()
				}
			}
			h.rooms = make(map[string]*Room)
			return
		}
	}
}

// Stop saves every dirty room, disconnects all clients and waits for Run
// to return.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) post(ev event) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

func (h *Hub) Register(client *Client) { h.post(event{kind: eventRegister, client: client}) }

func (h *Hub) Unregister(client *Client) { h.post(event{kind: eventUnregister, client: client}) }

// Submit queues a message from client.
func (h *Hub) Submit(client *Client, msg *Message) {
	msg.ClientID = client.ClientID
	msg.LayoutID = client.LayoutID
	h.post(event{kind: eventMessage, client: client, msg: msg})
}

func (h *Hub) addClient(client *Client) {
	room, ok := h.rooms[client.LayoutID]
	if !ok {
		doc, err := h.load(context.Background(), client.LayoutID)
		if err == nil && doc == nil {
			err = errNoDocument
		}
		if err != nil {
			h.logger.Error("load layout document", "error", err, "layout", client.LayoutID)
			client.Send(newMessage(TypeError, ErrorPayload{Message: "layout unavailable"}))
			client.close()
			return
		}
		room = NewRoom(client.LayoutID, doc)
		h.rooms[client.LayoutID] = room
	}

	sess := engine.NewSession(room.doc)
	sess.SetSettings(h.opts.Settings)
	sess.SetMeasurer(h.opts.Measurer)
	sess.SetLogger(h.logger.With("layout", client.LayoutID, "client", client.ClientID))
	room.sessions[client.ClientID] = sess
	room.clients[client.ClientID] = client
	room.presence.Update(client.ClientID, &PresencePayload{DisplayName: client.DisplayName, Role: string(client.Role)})

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		Role:      string(client.Role),
		Version:   room.version,
		ServerSeq: room.serverSeq,
	}))
	client.Send(room.docSyncMessage())
	client.Send(room.stateMessage(client.ClientID))
	client.Send(room.presence.StateMessage())

	h.broadcastToRoom(room, newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
		Role:        string(client.Role),
	}), client.ClientID)

	h.logger.Info("client joined", "client", client.ClientID, "layout", client.LayoutID, "role", client.Role)
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.LayoutID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	delete(room.sessions, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		h.saveRoom(room)
		delete(h.rooms, client.LayoutID)
	} else {
		h.broadcastToRoom(room, newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}), "")
	}

	h.logger.Info("client left", "client", client.ClientID, "layout", client.LayoutID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.LayoutID]
	if !ok || room.clients[sender.ClientID] != sender {
		return
	}

	switch msg.Type {
	case TypeOpSubmit:
		h.handleOperation(room, sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypeDocRequest:
		sender.Send(room.docSyncMessage())
		sender.Send(room.stateMessage(sender.ClientID))
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (h *Hub) handleOperation(room *Room, sender *Client, msg *Message) {
	var sub OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{Reason: "invalid operation payload"}))
		return
	}

	changed, err := room.applyOperation(sender, sub.Op)
	if err != nil {
		h.logger.Info("operation rejected", "op", sub.Op.Type, "client", sender.ClientID, "error", err)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{OperationID: sub.OperationID, Reason: err.Error()}))
		return
	}

	sender.Send(room.ackMessage(sub.OperationID, changed))

	if !changed {
		sender.Send(room.stateMessage(sender.ClientID))
		h.broadcastSelection(room, sender)
		return
	}

	docSync := room.docSyncMessage()
	for id, c := range room.clients {
		c.Send(docSync)
		c.Send(room.stateMessage(id))
	}
	h.broadcastSelection(room, sender)
}

// broadcastSelection mirrors the sender's selection into its presence.
func (h *Hub) broadcastSelection(room *Room, sender *Client) {
	sel := room.sessions[sender.ClientID].Selection()
	p := room.presence.Merge(sender.ClientID, &PresencePayload{Selection: &sel})
	out := newMessage(TypePresenceUpdate, p)
	out.ClientID = sender.ClientID
	h.broadcastToRoom(room, out, sender.ClientID)
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.logger.Warn("invalid presence payload", "error", err)
		return
	}

	// Identity fields are the server's to set.
	presence.DisplayName = ""
	presence.Role = ""
	presence.Selection = nil

	merged := room.presence.Merge(sender.ClientID, &presence)
	out := newMessage(TypePresenceUpdate, merged)
	out.ClientID = sender.ClientID
	h.broadcastToRoom(room, out, sender.ClientID)
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	for id, c := range room.clients {
		if id != excludeClientID {
			c.Send(msg)
		}
	}
}

func (h *Hub) saveDirty() {
	for _, room := range h.rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) saveRoom(room *Room) {
	if !room.dirty {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.save(ctx, room.layoutID, room.doc); err != nil {
		h.logger.Error("save layout document", "error", err, "layout", room.layoutID)
		return
	}
	room.dirty = false
	h.logger.Info("layout saved", "layout", room.layoutID, "version", room.version)
}
