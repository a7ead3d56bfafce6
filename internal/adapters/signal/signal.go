package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/avolkov/pulse/internal/config"
	"github.com/avolkov/pulse/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// handlerFunc processes one inbound event for a connection. Handlers run
// on the connection's read goroutine and must not block.
type handlerFunc func(c *relay.Conn, data []byte)

// Controller owns the websocket endpoint: it upgrades requests, runs the
// read/write pumps and dispatches inbound events to the broker.
type Controller struct {
	Broker *relay.Broker

	cfg      *config.Config
	handlers map[string]handlerFunc
}

func NewController(broker *relay.Broker, cfg *config.Config) *Controller {
	ctl := &Controller{Broker: broker, cfg: cfg}
	ctl.handlers = map[string]handlerFunc{
		evJoinUserRoom:      ctl.handleJoinUserRoom,
		evJoinConversation:  ctl.handleJoinConversation,
		evLeaveConversation: ctl.handleLeaveConversation,
		evUserOnline:        ctl.handleUserOnline,
		evUserAway:          ctl.handleUserAway,
		evTypingStart:       ctl.handleTypingStart,
		evTypingStop:        ctl.handleTypingStop,
		evMessageReaction:   ctl.handleMessageReaction,
		evCallInitiate:      ctl.handleCallInitiate,
		evCallAnswer:        ctl.handleCallAnswer,
		evCallReject:        ctl.handleCallReject,
		evCallEnd:           ctl.handleCallEnd,
		evWebRTCOffer:       ctl.handleWebRTCOffer,
		evWebRTCAnswer:      ctl.handleWebRTCAnswer,
		evWebRTCCandidate:   ctl.handleWebRTCCandidate,
	}
	return ctl
}

type wsConn struct {
	conn *websocket.Conn
	send chan relay.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f relay.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSocket upgrades the request and runs the connection until the
// transport closes. Closing the transport is the only cancellation
// primitive: it leaves every room and, when an identity was registered,
// triggers the offline presence broadcast.
func (ctl *Controller) HandleSocket(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan relay.Frame, ctl.cfg.SendBuffer),
	}
	rc := ctl.Broker.Connect(conn)
	log.Info().Str("module", "signal").Str("conn", string(rc.ID)).Str("device", c.GetString("client_token")).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, rc, conn)
}
