package net

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/oredrift/server/internal/auth"
	"github.com/oredrift/server/internal/config"
	"github.com/oredrift/server/internal/sim"
)

// Server is the websocket gateway. It authenticates clients, marshals their
// requests into the simulation inbox, and broadcasts each tick's event batch.
// It never mutates simulation state: the inbox is the only path in.
type Server struct {
	cfg      config.NetworkConfig
	rlCfg    config.RateLimitConfig
	verifier *auth.Verifier // nil when auth is disabled (dev mode)
	inbox    *sim.Inbox
	log      *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client // actor id → connection
}

type client struct {
	actorID   string
	conn      *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	closed    chan struct{}
	closeOnce sync.Once
	dropOnce  sync.Once
}

func NewServer(cfg config.NetworkConfig, rlCfg config.RateLimitConfig, verifier *auth.Verifier, inbox *sim.Inbox, log *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		rlCfg:    rlCfg,
		verifier: verifier,
		inbox:    inbox,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin enforcement belongs to the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client, 128),
	}
}

// Handler returns the HTTP mux for the gateway.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.identify(r)
	if err != nil {
		s.log.Info("rejected connection", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		actorID: actorID,
		conn:    conn,
		send:    make(chan []byte, s.cfg.SendQueueSize),
		closed:  make(chan struct{}),
	}
	if s.rlCfg.Enabled {
		c.limiter = rate.NewLimiter(rate.Limit(s.rlCfg.MessagesPerSecond), s.rlCfg.Burst)
	}

	s.mu.Lock()
	if prev, ok := s.clients[actorID]; ok {
		prev.close()
	}
	s.clients[actorID] = c
	s.mu.Unlock()

	s.log.Info("client connected", zap.String("actor", actorID))
	s.inbox.Push(sim.Command{ActorID: actorID, Verb: "join", Reply: s.replyFunc(c)})

	go s.writeLoop(c)
	go s.readLoop(c)
}

// identify resolves the actor id for a connection. With auth enabled the
// token query parameter must validate; without it the client names itself.
func (s *Server) identify(r *http.Request) (string, error) {
	if s.verifier != nil {
		return s.verifier.ActorID(r.URL.Query().Get("token"))
	}
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		return "", fmt.Errorf("net: missing actor parameter")
	}
	return actor, nil
}

func (s *Server) replyFunc(c *client) func(any) {
	return func(msg any) {
		raw, err := json.Marshal(msg)
		if err != nil {
			s.log.Error("marshal reply", zap.Error(err))
			return
		}
		c.enqueue(raw)
	}
}

func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	c.conn.SetReadLimit(s.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			s.log.Warn("rate limited", zap.String("actor", c.actorID))
			continue
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			continue
		}
		s.inbox.Push(sim.Command{
			ActorID:   c.actorID,
			Verb:      msg.Type,
			SessionID: msg.SessionID,
			TargetID:  msg.TargetID,
			X:         msg.X,
			Y:         msg.Y,
			Reply:     s.replyFunc(c),
		})
	}
}

func (s *Server) writeLoop(c *client) {
	// Idle clients never trip the read deadline: pings go out well inside
	// the deadline window and each pong resets it.
	ping := time.NewTicker(s.cfg.ReadTimeout * 9 / 10)
	defer ping.Stop()

	for {
		select {
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.drop(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drop(c)
				return
			}
		case <-c.closed:
			return
		}
	}
}

// drop disconnects a client and tells the simulation, exactly once. A
// connection that was already replaced by a reconnect is no longer the
// actor's registered connection; pushing leave for it would tear down the
// freshly-rejoined player, so only the registered connection departs.
func (s *Server) drop(c *client) {
	c.dropOnce.Do(func() {
		c.close()
		s.mu.Lock()
		registered := s.clients[c.actorID] == c
		if registered {
			delete(s.clients, c.actorID)
		}
		s.mu.Unlock()
		s.log.Info("client disconnected",
			zap.String("actor", c.actorID),
			zap.Bool("replaced", !registered),
		)
		if registered {
			s.inbox.Push(sim.Command{ActorID: c.actorID, Verb: "leave"})
		}
	})
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// enqueue appends to the client's send queue; a full queue drops the
// connection rather than stalling the broadcast fan-out.
func (c *client) enqueue(raw []byte) bool {
	select {
	case c.send <- raw:
		return true
	default:
		c.close()
		return false
	}
}

// Broadcast sends one tick's batch to every connected client as a single
// frame, marshalled once.
func (s *Server) Broadcast(batch TickBatch) {
	raw, err := json.Marshal(batch)
	if err != nil {
		s.log.Error("marshal batch", zap.Error(err))
		return
	}
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		c.enqueue(raw)
	}
}

// Listen serves the gateway until the listener fails.
func (s *Server) Listen() error {
	s.log.Info("gateway listening", zap.String("addr", s.cfg.BindAddress))
	return http.ListenAndServe(s.cfg.BindAddress, s.Handler())
}
