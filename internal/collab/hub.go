package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/store"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

// saveCheckInterval is how often Run looks for rooms whose debounce expired.
const saveCheckInterval = 250 * time.Millisecond

type Room struct {
	mapID    string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *DocumentState

	mu       sync.Mutex
	debounce *store.Debouncer
}

func NewRoom(mapID string, doc *document.Document, saveDelay time.Duration) *Room {
	return &Room{
		mapID:    mapID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewDocumentState(doc),
		debounce: store.NewDebouncer(saveDelay),
	}
}

func (r *Room) touch(now time.Time) {
	r.mu.Lock()
	r.debounce.Mark(now)
	r.mu.Unlock()
}

func (r *Room) due(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.debounce.Due(now)
}

type HubOptions struct {
	// SaveDelay is the trailing delay between the last edit and a save.
	SaveDelay time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// Hub keeps one room per open map. Rooms are created and dropped on the Run
// goroutine; messages are handled on each client's read goroutine.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // mapID -> room
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	store     store.Store
	saveDelay time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewHub(st store.Store, opts HubOptions) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		store:      st,
		saveDelay:  opts.SaveDelay,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if h.saveDelay <= 0 {
		h.saveDelay = store.DefaultSaveDelay
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Run serves registrations and debounced saves until ctx is done, then
// saves every room with pending changes.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(saveCheckInterval)
	defer ticker.Stop()
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case <-ticker.C:
			h.saveDue(ctx, h.now())
		case <-ctx.Done():
			h.log.Info("saving all maps")
			h.SaveAll(context.WithoutCancel(ctx))
			return
		}
	}
}

// Register hands client to the Run loop. It reports false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

func (h *Hub) room(mapID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[mapID]
	return room, ok
}

// load fetches the stored map, starting a fresh one for unknown ids.
func (h *Hub) load(ctx context.Context, mapID string) (*document.Document, error) {
	doc, err := h.store.Load(ctx, mapID)
	if errors.Is(err, store.ErrNotFound) {
		h.log.Info("starting new map", "map", mapID)
		return document.NewEmptyDocument(mapID, "Untitled map", typeid.NewNodeID()), nil
	}
	return doc, err
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	room, ok := h.room(client.MapID)
	if !ok {
		doc, err := h.load(ctx, client.MapID)
		if err != nil {
			h.log.Error("load map", "map", client.MapID, "error", err)
			client.Send(newMessage(TypeError, ErrorPayload{Message: "map could not be loaded"}))
			client.close()
			return
		}
		room = NewRoom(client.MapID, doc, h.saveDelay)
	}

	h.mu.Lock()
	h.rooms[client.MapID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Color:    client.Color,
	}))
	h.sendSync(client, room)
	client.Send(room.presence.StateMessage())

	// Broadcast join to other clients
	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
		Color:       client.Color,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.MapID, joinMsg, client.ClientID)

	h.log.Info("client joined", "user", client.UserID, "map", client.MapID)
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.MapID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.MapID)
	}
	h.mu.Unlock()

	if empty {
		h.flushRoom(ctx, room)
	} else {
		leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
		leaveMsg.UserID = client.UserID
		h.broadcastToRoom(client.MapID, leaveMsg, "")
	}

	h.log.Info("client left", "user", client.UserID, "map", client.MapID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeDocRequest:
		if room, ok := h.room(sender.MapID); ok {
			h.sendSync(sender, room)
		}
	case TypeDocUpdate:
		h.handleDocUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		h.log.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "unknown message type " + msg.Type}))
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.log.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	presence.Color = sender.Color

	room, ok := h.room(sender.MapID)
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.MapID, outMsg, sender.ClientID)
}

func (h *Hub) handleDocUpdate(sender *Client, msg *Message) {
	room, ok := h.room(sender.MapID)
	if !ok {
		return
	}
	var update DocUpdatePayload
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		sender.Send(newMessage(TypeDocNack, DocNackPayload{Reason: "invalid payload", Version: room.state.Version()}))
		return
	}

	version, err := room.state.Replace(update.BaseVersion, update.Document)
	if err != nil {
		h.log.Debug("document update rejected", "map", sender.MapID, "user", sender.UserID, "error", err)
		sender.Send(newMessage(TypeDocNack, DocNackPayload{Reason: err.Error(), Version: room.state.Version()}))
		if errors.Is(err, ErrStaleVersion) {
			h.sendSync(sender, room)
		}
		return
	}
	room.touch(h.now())

	doc := room.state.Document()
	room.presence.Prune(func(id string) bool { return doc.Graph.Has(graph.NodeID(id)) })

	ack := newMessage(TypeDocAck, DocAckPayload{Version: version})
	ack.Seq = version
	sender.Send(ack)
	h.broadcastSync(room, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	room, ok := h.room(sender.MapID)
	if !ok {
		return
	}
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{Reason: "invalid payload"}))
		return
	}
	op := submit.Operation

	version, err := room.state.ApplyOperation(op)
	if err != nil {
		h.log.Debug("operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()}))
		return
	}
	room.touch(h.now())

	ack := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       version,
		ServerTimestamp: GetServerTimestamp(),
	})
	ack.Seq = version
	sender.Send(ack)

	out := newMessage(TypeOpBroadcast, OperationBroadcastPayload{Operation: op, UserID: sender.UserID, ServerSeq: version})
	out.UserID = sender.UserID
	out.Seq = version
	h.broadcastToRoom(sender.MapID, out, sender.ClientID)
}

func (h *Hub) syncMessage(room *Room) (*Message, bool) {
	payload, err := room.state.SyncPayload()
	if err != nil {
		h.log.Error("encode sync", "map", room.mapID, "error", err)
		return nil, false
	}
	msg := newMessage(TypeDocSync, payload)
	msg.MapID = room.mapID
	msg.Seq = payload.Version
	return msg, true
}

func (h *Hub) sendSync(client *Client, room *Room) {
	if msg, ok := h.syncMessage(room); ok {
		client.Send(msg)
	}
}

func (h *Hub) broadcastSync(room *Room, excludeClientID string) {
	if msg, ok := h.syncMessage(room); ok {
		h.broadcastToRoom(room.mapID, msg, excludeClientID)
	}
}

func (h *Hub) broadcastToRoom(mapID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[mapID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveDue(ctx context.Context, now time.Time) {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		if r.due(now) {
			h.flushRoom(ctx, r)
		}
	}
}

// SaveAll persists every room with unsaved changes.
func (h *Hub) SaveAll(ctx context.Context) {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.flushRoom(ctx, r)
	}
}

func (h *Hub) flushRoom(ctx context.Context, room *Room) {
	doc, dirty := room.state.TakeDirty()
	if !dirty {
		return
	}
	if err := h.store.Save(ctx, doc); err != nil {
		h.log.Error("save map", "map", room.mapID, "error", err)
		room.state.MarkDirty()
		room.touch(h.now())
		return
	}
	h.log.Debug("saved map", "map", room.mapID)
}
