// Package gateway implements Pandemonium, the WebSocket event fan-out
// service (§4.9, §6.3). Each connection runs a single-writer goroutine
// owning the socket's write half — outbound events (from the
// subscription the connection holds on the shared pubsub.Bus) and
// control frames (HELLO, PONG, RATE_LIMIT) are written only from that
// goroutine, fed by the connection's outbox channel and the bus
// subscription, so nothing ever calls Conn.WriteMessage concurrently from
// two goroutines, the redesign flag called out in the design notes. The
// close frame is sent with Conn.WriteControl, which gorilla/websocket
// allows concurrently with the other write methods.
package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/config"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/presence"
	"github.com/eludris-go/eludris/internal/pubsub"
	"github.com/eludris-go/eludris/internal/ratelimit"
	"github.com/eludris-go/eludris/internal/store"
)

// state is a connection's position in the Handshaking -> Unauthenticated
// -> Authenticated -> Closing lifecycle (§4.9).
type state int

const (
	stateHandshaking state = iota
	stateUnauthenticated
	stateAuthenticated
	stateClosing
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns every live connection's dependencies.
type Server struct {
	store     *store.Store
	signer    *cryptoutil.Signer
	presence  *presence.Tracker
	limiter   *ratelimit.Limiter
	bus       *pubsub.Bus[models.Envelope]
	cfg       config.PandemoniumConfig
	info      models.InstanceInfo
	log       zerolog.Logger
}

// NewServer wires a gateway server over its dependencies.
func NewServer(s *store.Store, signer *cryptoutil.Signer, pres *presence.Tracker, limiter *ratelimit.Limiter, bus *pubsub.Bus[models.Envelope], cfg config.PandemoniumConfig, info models.InstanceInfo, log zerolog.Logger) *Server {
	return &Server{store: s, signer: signer, presence: pres, limiter: limiter, bus: bus, cfg: cfg, info: info, log: log}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &connection{
		srv:    srv,
		conn:   conn,
		ip:     resolveIP(r),
		state:  stateHandshaking,
		outbox: make(chan models.Envelope, 64),
		done:   make(chan struct{}),
	}
	c.run()
}

// resolveIP extracts the client's real address, preferring proxy
// headers over the raw peer address (§4.9).
func resolveIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// connection is one gateway client's state machine.
type connection struct {
	srv   *Server
	conn  *websocket.Conn
	ip    string
	state state

	userID    uint64
	sessionID uint64

	outbox chan models.Envelope
	unsub  func()
	done   chan struct{}
	stopOnce sync.Once
}

// stop closes done at most once: readLoop, writeLoop and the inbound
// rate-limit/auth-failure paths can all race to tear the connection
// down, and a second close() on a closed channel panics.
func (c *connection) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// closeWithReason sends a standard WebSocket close frame carrying one
// of §4.9's reason strings before tearing the connection down.
func (c *connection) closeWithReason(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	c.stop()
}

const deadConnectionSlack = 3 * time.Second

func (c *connection) run() {
	defer c.close()

	heartbeat := time.Duration(c.srv.cfg.HeartbeatMs) * time.Millisecond
	if heartbeat == 0 {
		heartbeat = 45 * time.Second
	}
	deadline := heartbeat + deadConnectionSlack
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))

	c.send(models.Envelope{Op: models.OpHello, D: models.HelloPayload{
		HeartbeatInterval: heartbeat.Milliseconds(),
		InstanceInfo:      c.srv.info,
		RateLimit:         c.srv.info.Pandemonium.RateLimit,
	}})
	c.state = stateUnauthenticated

	go c.writeLoop(deadline)
	c.readLoop(deadline)
}

func (c *connection) send(env models.Envelope) {
	select {
	case c.outbox <- env:
	case <-c.done:
	default:
		// outbox full: the connection is too far behind, kill it rather
		// than block the bus publisher.
		c.stop()
	}
}

func (c *connection) writeLoop(deadline time.Duration) {
	// The connection only starts authenticated state after HELLO, so the
	// bus subscription is opened once up front rather than lazily: every
	// event arrives regardless of auth state, events reaching a socket that
	// has not authenticated yet are dropped here, and filter() rewrites the
	// rest (§4.9 fan-out task).
	eventsCh, unsub := c.srv.bus.Subscribe(context.Background())
	c.unsub = unsub
	for {
		select {
		case <-c.done:
			return
		case env, ok := <-c.outbox:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.stop()
				return
			}
		case env, ok := <-eventsCh:
			if !ok {
				return
			}
			if c.state != stateAuthenticated {
				continue
			}
			if c.filter(&env) {
				if err := c.conn.WriteJSON(env); err != nil {
					c.stop()
					return
				}
			}
		}
	}
}

// filter applies the per-socket rewrite §4.10 calls out: USER_UPDATE
// frames get email/verified stripped unless the socket belongs to that
// user, mutating env.D in place. It never drops a frame on its own;
// membership-aware scoping belongs to the REST/store layer.
func (c *connection) filter(env *models.Envelope) bool {
	if env.Op != models.OpUserUpdate {
		return true
	}
	user, ok := env.D.(models.User)
	if !ok {
		return true
	}
	self := c.state == stateAuthenticated && user.ID == c.userID
	online, _ := c.srv.presence.IsOnline(context.Background(), user.ID)
	env.D = user.Redacted(online, self)
	return true
}

func (c *connection) readLoop(deadline time.Duration) {
	consecutiveLimited := 0
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.closeWithReason(websocket.CloseGoingAway, "Client connection dead")
			} else {
				c.stop()
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		// a second consecutive rate-limit exceedance closes the socket
		// (§4.9 item 2); a frame handled without error resets the
		// counter.
		if err := c.handle(env, data); err != nil {
			apiErr, ok := apierror.As(err)
			if ok && apiErr.Kind == apierror.RateLimited {
				c.send(models.Envelope{Op: models.OpRateLimit, D: models.RateLimitPayload{WaitMs: apiErr.RetryMs}})
				consecutiveLimited++
				if consecutiveLimited >= 2 {
					c.closeWithReason(websocket.ClosePolicyViolation, "Client got ratelimited")
					return
				}
				continue
			}
			if ok && apiErr.Kind == apierror.Unauthorized {
				c.closeWithReason(websocket.ClosePolicyViolation, "Invalid credentials")
			} else {
				c.closeWithReason(websocket.CloseInternalServerErr, "Server Error")
			}
			return
		}
		consecutiveLimited = 0
	}
}

func (c *connection) handle(env models.Envelope, raw []byte) error {
	if _, err := c.srv.limiter.Check(context.Background(), "gateway", c.ip, c.srv.cfg.RateLimit); err != nil {
		return err
	}

	switch env.Op {
	case models.OpPing:
		c.send(models.Envelope{Op: models.OpPong})
		return nil
	case models.OpAuthenticate:
		var payload struct {
			D models.AuthenticatePayload `json:"d"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return apierror.Validationf("token", "malformed AUTHENTICATE payload")
		}
		return c.authenticate(payload.D.Token)
	default:
		return nil
	}
}

// authenticate validates an AUTHENTICATE token and loads the user and
// their sphere memberships, replying AUTHENTICATED{user, spheres}. A
// second AUTHENTICATE on an already-authenticated socket is a no-op
// (§4.9 item 2, §8 testable property 8).
func (c *connection) authenticate(token string) error {
	if c.state == stateAuthenticated {
		return nil
	}

	claims, err := c.srv.signer.Parse(token)
	if err != nil {
		return apierror.Unauthorizedf("invalid credentials")
	}
	ctx := context.Background()
	if _, err := c.srv.store.GetSession(ctx, claims.SessionID); err != nil {
		return apierror.Unauthorizedf("invalid credentials")
	}
	user, err := c.srv.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return apierror.Unauthorizedf("invalid credentials")
	}
	spheres, err := c.srv.store.ListSpheresForUser(ctx, claims.UserID)
	if err != nil {
		return apierror.Unauthorizedf("invalid credentials")
	}

	c.userID, c.sessionID = claims.UserID, claims.SessionID
	c.state = stateAuthenticated

	first, err := c.srv.presence.Connect(ctx, c.userID, c.sessionID)
	if err == nil && first {
		c.srv.bus.Publish(models.Envelope{Op: models.OpPresenceUpdate, D: models.PresenceUpdatePayload{
			UserID: c.userID, Status: user.Status,
		}})
	}

	c.send(models.Envelope{Op: models.OpAuthenticated, D: models.AuthenticatedPayload{User: user, Spheres: spheres}})
	return nil
}

func (c *connection) close() {
	c.state = stateClosing
	if c.unsub != nil {
		c.unsub()
	}
	if c.userID != 0 {
		ctx := context.Background()
		if offline, err := c.srv.presence.Disconnect(ctx, c.userID, c.sessionID); err == nil && offline {
			c.srv.bus.Publish(models.Envelope{Op: models.OpPresenceUpdate, D: models.PresenceUpdatePayload{
				UserID: c.userID, Status: models.Status{Type: models.StatusOffline},
			}})
		}
	}
	_ = c.conn.Close()
}
