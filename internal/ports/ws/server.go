package ws

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tictacchec/internal/app"
	"tictacchec/internal/config"
	"tictacchec/internal/lobby"
	"tictacchec/internal/protocol"
)

// Server exposes the lobby over HTTP and websockets.
type Server struct {
	cfg      config.GameConfig
	lobby    *lobby.Manager
	tokens   *app.SessionTokens
	log      zerolog.Logger
	upgrader websocket.Upgrader
	router   *gin.Engine

	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewServer(cfg config.GameConfig, manager *lobby.Manager, tokens *app.SessionTokens, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		lobby:  manager,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are checked by middleware before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*Connection),
	}
	s.router = s.routes()
	manager.Subscribe(s.dispatch)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(s.originCheck())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
		AllowHeaders:     []string{"Content-Type", "Origin"},
	}))

	r.GET("/api/presence", s.handlePresence)
	r.POST("/api/session", s.handleSession)
	r.GET("/ws", s.handleWebsocket)
	return r
}

// originCheck rejects browser requests from origins not in the allow list.
// Requests without an Origin header come from non-browser clients.
func (s *Server) originCheck() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin) {
			ctx.Next()
			return
		}
		s.log.Warn().Str("origin", origin).Str("path", ctx.Request.URL.Path).Msg("forbidden origin")
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden origin"})
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.log.Debug().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

func (s *Server) handlePresence(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.lobby.Stats())
}

// handleSession issues a session token for a fresh anonymous subject.
func (s *Server) handleSession(ctx *gin.Context) {
	if !s.tokens.Enabled() {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "sessions-disabled"})
		return
	}
	subject := uuid.NewString()
	token, err := s.tokens.Issue(subject)
	if err != nil {
		s.log.Error().Err(err).Msg("issue session token")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"token":      token,
		"subject":    subject,
		"expires_in": int64(s.cfg.SessionTTL() / time.Second),
	})
}

func (s *Server) handleWebsocket(ctx *gin.Context) {
	subject := ""
	if s.tokens.Enabled() {
		sub, err := s.tokens.Verify(ctx.Query("token"))
		if err != nil {
			s.log.Info().Err(err).Str("ip", ctx.ClientIP()).Msg("rejected websocket session")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": protocol.ReasonFor(err)})
			return
		}
		subject = sub
	}

	socket, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newConnection(uuid.NewString(), subject, socket, s)
	s.register(conn)
	go conn.writePump()
	go conn.readPump()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	s.log.Info().Str("conn", c.id).Str("subject", c.subject).Msg("connection opened")
	s.lobby.Connect(c.id)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	_, ok := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()
	if !ok {
		return
	}

	s.log.Info().Str("conn", c.id).Msg("connection closed")
	s.lobby.Disconnect(c.id)
}

// handle runs one decoded client message. The lobby delivers the resulting
// events through dispatch.
func (s *Server) handle(c *Connection, msg any) error {
	var err error
	switch m := msg.(type) {
	case protocol.FindOrJoin:
		_, err = s.lobby.FindOrJoin(c.id)
	case protocol.SubmitAction:
		action, actionErr := m.Action()
		if actionErr != nil {
			return actionErr
		}
		_, err = s.lobby.Submit(c.id, action)
	case protocol.RequestRematch:
		_, err = s.lobby.RequestRematch(c.id)
	case protocol.LeaveRoom:
		_, err = s.lobby.Leave(c.id)
	default:
		err = protocol.ErrUnknownType
	}
	return err
}

// dispatch delivers each event to its recipients, or to every connection
// when it names none. The lobby calls it with the room locked; it only
// queues frames.
func (s *Server) dispatch(events []app.Event) {
	for _, ev := range events {
		frame, err := protocol.EncodeEvent(ev)
		if err != nil {
			s.log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("encode event")
			continue
		}

		s.mu.RLock()
		if len(ev.Recipients) == 0 {
			for _, c := range s.conns {
				c.enqueue(frame)
			}
		} else {
			for _, id := range ev.Recipients {
				if c, ok := s.conns[id]; ok {
					c.enqueue(frame)
				}
			}
		}
		s.mu.RUnlock()
	}
}

// Shutdown closes every open connection.
func (s *Server) Shutdown(ctx context.Context) {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
	for _, c := range conns {
		select {
		case <-c.finished:
		case <-ctx.Done():
			return
		}
	}
}
