package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"counseling-platform/backend/conversation/models"
	"counseling-platform/backend/conversation/service"
	"counseling-platform/backend/pkg/jwt"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/pubsub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Frame is the envelope exchanged over a websocket connection
type Frame struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// chatFrame is the content of an inbound "chat" frame
type chatFrame struct {
	ReceiverID uint   `json:"receiver_id"`
	Content    string `json:"content"`
}

// Transport is the slice of the broker the hub needs: pattern
// subscriptions for fan-out and transient keys for presence
type Transport interface {
	pubsub.Subscriber
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

// Client is one websocket connection bound to a party channel. A party
// may hold several connections at once; each gets every delivery for
// its channel.
type Client struct {
	ID      string
	Channel string
	Kind    string
	PartyID uint
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
	log     *logger.Logger
}

// Hub fans broker deliveries out to the local websocket connections
// subscribed to each party channel. Cross-instance delivery happens
// through the broker, so a hub only tracks its own connections.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	transport  Transport
	router     *service.MessageRouter
	log        *logger.Logger
	mu         sync.Mutex
}

func NewHub(transport Transport, router *service.MessageRouter, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		transport:  transport,
		router:     router,
		log:        log.WithComponent("ws"),
	}
}

// Run subscribes to all party and error channels and dispatches until
// the context is cancelled. Closing done releases any pump blocked on
// register or unregister once dispatching has stopped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	deliveries, stop := h.transport.Subscribe(ctx, "user:*", "counselor:*", "errors:*")
	defer func() { _ = stop() }()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case delivery, ok := <-deliveries:
			if !ok {
				h.log.Warn("Broker subscription closed, hub stopping")
				return
			}
			h.dispatch(delivery)

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.Channel] == nil {
		h.clients[client.Channel] = make(map[*Client]bool)
	}
	h.clients[client.Channel][client] = true
	h.mu.Unlock()

	if err := h.transport.Set(context.Background(), "presence:"+client.Channel, client.ID, 2*pongWait); err != nil {
		h.log.Warn("Failed to record presence", "channel", client.Channel, "error", err.Error())
	}
	h.log.Info("Client registered", "client_id", client.ID, "channel", client.Channel)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	channelClients, ok := h.clients[client.Channel]
	if ok {
		if _, registered := channelClients[client]; registered {
			delete(channelClients, client)
			close(client.Send)
		}
		if len(channelClients) == 0 {
			delete(h.clients, client.Channel)
			if err := h.transport.Del(context.Background(), "presence:"+client.Channel); err != nil {
				h.log.Warn("Failed to clear presence", "channel", client.Channel, "error", err.Error())
			}
		}
	}
	h.mu.Unlock()
	h.log.Info("Client unregistered", "client_id", client.ID, "channel", client.Channel)
}

// dispatch forwards one broker delivery to every local connection on
// the target channel. Error-channel deliveries become "error" frames,
// everything else a "chat" frame.
func (h *Hub) dispatch(delivery pubsub.Delivery) {
	frameType := "chat"
	target := delivery.Channel
	if rest, isError := strings.CutPrefix(delivery.Channel, "errors:"); isError {
		frameType = "error"
		target = rest
	}

	frame, err := json.Marshal(Frame{Type: frameType, Content: delivery.Payload})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[target] {
		select {
		case client.Send <- frame:
		default:
			close(client.Send)
			delete(h.clients[target], client)
			h.log.Warn("Client removed due to blocked channel", "client_id", client.ID)
		}
	}
}

// leave hands the client back to the hub, or returns immediately when
// the hub has already stopped
func (c *Client) leave() {
	select {
	case c.Hub.unregister <- c:
	case <-c.Hub.done:
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.leave()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		_ = c.Hub.transport.Set(context.Background(), "presence:"+c.Channel, c.ID, 2*pongWait)
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected close", "client_id", c.ID, "error", err.Error())
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("Dropping malformed frame", "client_id", c.ID)
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame Frame) {
	switch frame.Type {
	case "chat":
		var chat chatFrame
		if err := json.Unmarshal(frame.Content, &chat); err != nil {
			c.log.Warn("Dropping malformed chat frame", "client_id", c.ID)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Sender identity comes from the authenticated connection, not
		// the frame
		err := c.Hub.router.Route(ctx, &service.InboundMessage{
			SenderID:   c.PartyID,
			ReceiverID: chat.ReceiverID,
			SenderType: c.Kind,
			Content:    chat.Content,
		})
		if err != nil {
			c.log.Warn("Routing failed", "client_id", c.ID, "error", err.Error())
		}

	case "ping":
		if pong, err := json.Marshal(Frame{Type: "pong"}); err == nil {
			select {
			case c.Send <- pong:
			default:
			}
		}

	default:
		c.log.Warn("Unknown frame type", "client_id", c.ID, "type", frame.Type)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush any queued frames as separate websocket frames
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs authenticates and upgrades a connection, binding it to the
// party channel derived from the token. The party id and kind come
// from the claims, never from the request.
func ServeWs(hub *Hub, tokens *jwt.Service, c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	kind := models.SenderUser
	if claims.Role == jwt.RoleCounselor {
		kind = models.SenderCounselor
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Error("Failed to upgrade connection", "error", err.Error())
		return
	}

	conn.EnableWriteCompression(true)

	client := &Client{
		ID:      uuid.New().String(),
		Channel: pubsub.PartyChannel(models.ChannelKind(kind), claims.UserID),
		Kind:    kind,
		PartyID: claims.UserID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Hub:     hub,
		log:     hub.log,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
