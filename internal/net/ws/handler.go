package ws

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"motion-arena/server"
	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/net/proto"
	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
	loggingNetwork "motion-arena/server/logging/network"
)

type HandlerConfig struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
}

// Handler bridges websocket controllers into a room's channel. Each peer
// sees every event on the channel except its own frames.
type Handler struct {
	hub       *server.Hub
	logger    telemetry.Logger
	publisher logging.Publisher
	upgrader  websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Nop()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:       hub,
		logger:    logger,
		publisher: publisher,
		upgrader:  upgrader,
	}
}

type peer struct {
	id    string
	conn  *websocket.Conn
	codec proto.Codec
	mu    sync.Mutex
}

func (p *peer) send(env proto.Envelope) error {
	data, err := p.codec.Encode(env)
	if err != nil {
		return err
	}
	messageType := websocket.TextMessage
	if p.codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(server.WriteWait()))
	return p.conn.WriteMessage(messageType, data)
}

// Handle serves GET /rooms/:code/ws?client=ID&codec=json|msgpack. The room
// code comes from the router params, or from ?room= when mounted bare.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	code := httprouter.ParamsFromContext(r.Context()).ByName("code")
	if code == "" {
		code = r.URL.Query().Get("room")
	}
	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		nethttp.Error(w, "missing client", nethttp.StatusBadRequest)
		return
	}
	room, ok := h.hub.Room(code)
	if !ok {
		nethttp.Error(w, "unknown room", nethttp.StatusNotFound)
		return
	}
	codec, err := proto.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
		return
	}
	bus := h.hub.Bus()
	if bus == nil {
		nethttp.Error(w, "channel unavailable", nethttp.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", clientID, err)
		return
	}
	defer conn.Close()

	p := &peer{id: clientID, conn: conn, codec: codec}
	unsubscribe := bus.Subscribe(room.Channel(), "", func(msg channel.Message) {
		if msg.ClientID == clientID {
			return
		}
		if err := p.send(proto.FromMessage(msg)); err != nil {
			h.logger.Printf("failed to forward %s to %s: %v", msg.Name, clientID, err)
			conn.Close()
		}
	})

	ctx := context.Background()
	loggingNetwork.PeerConnected(ctx, h.publisher, logging.PlayerRef(clientID), loggingNetwork.PeerPayload{
		Codec:  codec.Name(),
		Remote: r.RemoteAddr,
	}, map[string]any{"room": room.Code()})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			unsubscribe()
			h.disconnect(ctx, bus, room.Channel(), clientID)
			return
		}

		env, err := codec.Decode(payload)
		if err != nil {
			h.logger.Printf("discarding malformed frame from %s: %v", clientID, err)
			continue
		}
		if env.Name == "" {
			continue
		}
		msg := env.Message(room.Channel())
		msg.ClientID = clientID
		if _, err := bus.Publish(ctx, msg); err != nil {
			h.logger.Printf("failed to publish %s from %s: %v", env.Name, clientID, err)
		}
	}
}

func (h *Handler) disconnect(ctx context.Context, bus channel.Channel, channelName, clientID string) {
	data, err := json.Marshal(proto.PeerPayload{PlayerID: clientID})
	if err != nil {
		h.logger.Printf("failed to encode disconnect for %s: %v", clientID, err)
		return
	}
	if _, err := bus.Publish(ctx, channel.Message{
		Channel:  channelName,
		Name:     proto.EventPeerDisconnected,
		ClientID: clientID,
		Data:     data,
	}); err != nil {
		h.logger.Printf("failed to publish disconnect for %s: %v", clientID, err)
	}
}
