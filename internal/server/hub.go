// Package server coordinates client registration, event dispatch into the
// relay core, and delivery of the resulting effects via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/relaychat/internal/chat"
)

// Hub owns every live WebSocket connection. A single goroutine (Run) applies
// registrations, inbound events and disconnects to the relay in arrival order
// and routes the effects the relay returns to the right connections.
type Hub struct {
	relay      *chat.Relay
	cfg        Config
	origins    originPolicy
	upgrader   websocket.Upgrader
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan clientEvent
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub that feeds relay and applies cfg to every connection it
// accepts. The returned Hub is ready once Run is started.
func NewHub(relay *chat.Relay, cfg *Config) *Hub {
	sanitized := sanitizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		relay:      relay,
		cfg:        sanitized,
		origins:    newOriginPolicy(sanitized.AllowedOrigins),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan clientEvent, 64),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.check,
	}
	return h
}

// Relay returns the state container this hub dispatches into.
func (h *Hub) Relay() *chat.Relay {
	return h.relay
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It should be called in its own
// goroutine and returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Warn().Msg("Received nil client registration; skipping")
				continue
			}
			h.addClient(client)
			h.execute(h.relay.Connect(client.id))

		case client := <-h.unregister:
			h.removeClient(client)
			h.execute(h.relay.Disconnect(client.id))

		case ev := <-h.inbound:
			h.execute(h.relay.Handle(ev.client.id, ev.event))
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Info().Str("conn", client.id).Str("addr", client.addr).Int("clients", clientCount).Msg("Client registered")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// removeClient drops client from the table and closes its send channel. The
// write pump flushes anything still queued and then closes the socket.
func (h *Hub) removeClient(client *Client) bool {
	h.mutex.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mutex.Unlock()
		return false
	}
	delete(h.clients, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	close(client.send)
	log.Info().Str("conn", client.id).Str("addr", client.addr).Int("clients", clientCount).Msg("Client unregistered")
	return true
}

// execute delivers effects in order. Delivery is best effort: closed
// connections and full buffers are skipped.
func (h *Hub) execute(effects []chat.Effect) {
	for _, effect := range effects {
		switch effect.Kind {
		case chat.EffectBroadcast:
			h.broadcastAll(effect.Event)
		case chat.EffectSend:
			h.sendTo(effect.Target, effect.Event)
		case chat.EffectClose:
			if client := h.lookup(effect.Target); client != nil {
				h.removeClient(client)
			}
		}
	}
}

func (h *Hub) broadcastAll(event chat.Outbound) {
	payload, ok := encodeOutbound(event)
	if !ok {
		return
	}

	clients := h.getClientSnapshot()
	log.Debug().Str("event", string(event.Event)).Int("clients", len(clients)).Msg("Broadcasting")

	var failed []*Client
	for _, client := range clients {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

func (h *Hub) sendTo(connID string, event chat.Outbound) {
	client := h.lookup(connID)
	if client == nil {
		return
	}
	payload, ok := encodeOutbound(event)
	if !ok {
		return
	}
	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

func (h *Hub) lookup(connID string) *Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients[connID]
}

func encodeOutbound(event chat.Outbound) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", string(event.Event)).Msg("Error encoding outbound event")
		return nil, false
	}
	return payload, true
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client.id]; !exists || client.closed {
		return true
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// removeFailedClients drops clients whose send buffer is full. Their relay
// session is released when the read pump notices the closed socket.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	for _, client := range clientsToRemove {
		if h.removeClient(client) {
			log.Warn().Str("conn", client.id).Str("addr", client.addr).Msg("Client removed due to full send buffer")
		}
	}
}

// shutdownClients closes all active client connections
func (h *Hub) shutdownClients() {
	log.Info().Msg("Shutting down all client connections...")

	clients := h.getClientSnapshot()
	for _, client := range clients {
		h.removeClient(client)
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Error().Err(err).Str("addr", client.addr).Msg("Error closing client connection")
		}
	}

	log.Info().Int("clients", len(clients)).Msg("Closed client connections")
}

// Shutdown stops Run and waits for every pump goroutine to finish, or for
// timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Msg("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// submit hands a frame's decoded event to Run. It gives up once the hub is
// shutting down.
func (h *Hub) submit(ev clientEvent) bool {
	select {
	case h.inbound <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}
