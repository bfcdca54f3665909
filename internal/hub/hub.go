package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/event"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/repo"
)

const lookupTimeout = 3 * time.Second

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// ReadMarker applies the durable side-effect of a seen receipt: all unread
// messages from senderID to viewerID transition read=false -> read=true.
type ReadMarker interface {
	MarkConversationRead(ctx context.Context, senderID, viewerID string) (int64, error)
}

// Hub owns every live connection and the presence registry, and routes
// typed events between specific connections or broadcasts to all. Delivery
// is best effort while a connection is open; there is no queuing for
// offline recipients - the message store is the durable fallback.
type Hub struct {
	presence *PresenceRegistry

	clients   map[string]*Client // connection id -> client
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	users  repo.UserRepository
	reads  ReadMarker
	logger *zap.Logger

	allowedOrigins map[string]bool

	// delivery counters, exposed through the monitor endpoint
	pushed  atomic.Int64 // targeted sends that reached an egress buffer
	relayed atomic.Int64 // client-to-client receipt/typing relays
	dropped atomic.Int64 // targeted sends lost to offline or full targets

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewHub(users repo.UserRepository, logger *zap.Logger, origins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence:       NewPresenceRegistry(),
		clients:        make(map[string]*Client),
		register:       make(chan *Client, 1024),
		unregister:     make(chan *Client, 1024),
		inbound:        make(chan inboundEvent, 4096), // buffer for burst handling
		users:          users,
		logger:         logger,
		allowedOrigins: make(map[string]bool),
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, origin := range origins {
		h.allowedOrigins[origin] = true
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetReadMarker wires the durable mark-as-read path. Must be called before
// the hub starts accepting connections; nil leaves seen receipts relay-only.
func (h *Hub) SetReadMarker(rm ReadMarker) {
	h.reads = rm
}

// Presence exposes read access to the registry for the REST layer.
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()

	// Registration must precede any presence-dependent event for this
	// connection. A reconnect overwrites the prior entry; the superseded
	// connection's late disconnect is no-opped by the generation guard.
	c.generation = h.presence.Register(c.userID, c.ID)

	h.logger.Info("client connected",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)

	// DB lookups stay off the manager loop
	go h.announcePresence(c.userID, true)
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	if _, exists := h.clients[c.ID]; exists {
		delete(h.clients, c.ID)
	}
	h.clientsMu.Unlock()

	removed := h.presence.Unregister(c.userID, c.generation)
	c.Close()

	h.logger.Info("client disconnected",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
		zap.Bool("presence_removed", removed),
	)

	// A superseded connection going away does not change who is online.
	if removed {
		go h.announcePresence(c.userID, false)
	}
}

// announcePresence updates lastSeen and broadcasts the full online-user list
// plus a targeted presence-changed event carrying display metadata.
func (h *Hub) announcePresence(userID string, online bool) {
	ctx, cancel := context.WithTimeout(h.ctx, lookupTimeout)
	defer cancel()

	if err := h.users.TouchLastSeen(ctx, userID); err != nil {
		h.logger.Warn("failed to update last seen",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	h.broadcastOnlineUsers()

	name := event.EventUserOnline
	if !online {
		name = event.EventUserOffline
	}

	update := model.PresenceUpdate{
		UserID:     userID,
		FullName:   model.DefaultSenderName,
		ProfilePic: model.DefaultProfilePic,
	}
	if user, err := h.users.GetUser(ctx, userID); err == nil {
		update.FullName = user.FullName
		update.ProfilePic = user.ProfilePic
	}

	ev, err := event.New(name, update)
	if err != nil {
		h.logger.Error("failed to build presence event", zap.Error(err))
		return
	}
	h.Broadcast(ev)
}

func (h *Hub) broadcastOnlineUsers() {
	ev, err := event.New(event.EventOnlineUsers, h.presence.ListOnline())
	if err != nil {
		h.logger.Error("failed to build online users event", zap.Error(err))
		return
	}
	h.Broadcast(ev)
}

// handleEvent routes one inbound frame from a connection. Receipt and typing
// events are addressed with a fresh registry lookup each time; a missing
// target is a normal miss, never an error.
func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventTyping:
		h.relayTyping(ev, c)
	case event.EventDelivered:
		h.relayDelivered(ev, c)
	case event.EventSeen:
		h.relaySeen(ev, c)
	default:
		log.Printf("unknown event type: %s", ev.Event)
		h.sendError(c, "unknown_event", "unknown event type: "+ev.Event)
	}
}

// sendError replies to the offending connection only; protocol mistakes from
// one client never fan out.
func (h *Hub) sendError(c *Client, code, message string) {
	ev, err := event.New(event.EventError, model.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.SafeSend(ev, sendTimeout)
}

func (h *Hub) relayTyping(ev event.WsEvent, c *Client) {
	var ind model.TypingIndicator
	if err := json.Unmarshal(ev.Payload, &ind); err != nil {
		h.logger.Warn("failed to unmarshal typing indicator", zap.Error(err))
		h.sendError(c, "bad_payload", "malformed typing payload")
		return
	}
	if ind.To == "" {
		return
	}

	out := model.TypingIndicator{
		From:             c.userID,
		IsTyping:         ind.IsTyping,
		SenderName:       model.DefaultSenderName,
		SenderProfilePic: model.DefaultProfilePic,
	}

	ctx, cancel := context.WithTimeout(h.ctx, lookupTimeout)
	defer cancel()
	if user, err := h.users.GetUser(ctx, c.userID); err == nil {
		out.SenderName = user.FullName
		out.SenderProfilePic = user.ProfilePic
	}

	relay, err := event.New(event.EventTyping, out)
	if err != nil {
		h.logger.Error("failed to build typing event", zap.Error(err))
		return
	}
	if h.PushToUser(ind.To, relay) {
		h.relayed.Add(1)
	}
}

func (h *Hub) relayDelivered(ev event.WsEvent, c *Client) {
	var receipt model.DeliveredReceipt
	if err := json.Unmarshal(ev.Payload, &receipt); err != nil {
		h.logger.Warn("failed to unmarshal delivered receipt", zap.Error(err))
		h.sendError(c, "bad_payload", "malformed delivered receipt")
		return
	}
	if receipt.To == "" || receipt.MessageID == "" {
		return
	}

	relay, err := event.New(event.EventDelivered, model.DeliveredReceipt{MessageID: receipt.MessageID})
	if err != nil {
		h.logger.Error("failed to build delivered event", zap.Error(err))
		return
	}
	if h.PushToUser(receipt.To, relay) {
		h.relayed.Add(1)
	}
}

func (h *Hub) relaySeen(ev event.WsEvent, c *Client) {
	var receipt model.SeenReceipt
	if err := json.Unmarshal(ev.Payload, &receipt); err != nil {
		h.logger.Warn("failed to unmarshal seen receipt", zap.Error(err))
		h.sendError(c, "bad_payload", "malformed seen receipt")
		return
	}
	if receipt.To == "" || len(receipt.MessageIDs) == 0 {
		return
	}

	relay, err := event.New(event.EventSeen, model.SeenReceipt{MessageIDs: receipt.MessageIDs})
	if err != nil {
		h.logger.Error("failed to build seen event", zap.Error(err))
		return
	}
	if h.PushToUser(receipt.To, relay) {
		h.relayed.Add(1)
	}

	// Durable side-effect: everything the viewer has from this sender moves
	// to read=true, so a later history fetch agrees with the live receipts.
	if h.reads != nil {
		ctx, cancel := context.WithTimeout(h.ctx, lookupTimeout)
		defer cancel()
		if _, err := h.reads.MarkConversationRead(ctx, receipt.To, c.userID); err != nil {
			h.logger.Warn("failed to mark conversation read",
				zap.String("sender_id", receipt.To),
				zap.String("viewer_id", c.userID),
				zap.Error(err),
			)
		}
	}
}

// PushToUser sends an event to the user's live connection, if any.
// Fire-and-forget: returns false when the user is offline or the send was
// dropped, and the caller must not treat that as an error.
func (h *Hub) PushToUser(userID string, ev event.WsEvent) bool {
	clientID, ok := h.presence.Lookup(userID)
	if !ok {
		h.dropped.Add(1)
		return false
	}

	// The registry snapshot can be stale by now; the clients map is the
	// second check.
	h.clientsMu.RLock()
	c, ok := h.clients[clientID]
	h.clientsMu.RUnlock()
	if !ok {
		h.dropped.Add(1)
		return false
	}

	if !c.SafeSend(ev, sendTimeout) {
		h.dropped.Add(1)
		return false
	}
	h.pushed.Add(1)
	return true
}

// Broadcast fans an event out to every live connection.
func (h *Hub) Broadcast(ev event.WsEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	// deliver without holding the lock
	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			log.Printf("broadcast dropped for client %s", c.ID)
		}
	}
}

// Stop shuts the hub down. The inbound channel is never closed: a read pump
// can still be in its enqueue select during shutdown, and the workers exit
// on ctx.Done anyway. A frame enqueued after the workers are gone just sits
// in the buffer.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		h.clientsMu.RLock()
		for _, c := range h.clients {
			c.Close()
		}
		h.clientsMu.RUnlock()

		h.wg.Wait()
	})
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	return h.allowedOrigins[r.Header.Get("Origin")]
}

// ServeWS upgrades the connection and registers it for userID. Identity
// validation against the session token happens in the HTTP layer before
// this is called.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(userID, conn, h)
}
