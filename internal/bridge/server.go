package bridge

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
)

type session struct {
	id        string
	conn      *websocket.Conn
	connected time.Time

	mu sync.Mutex
}

func (s *session) send(env *Envelope) error {
	data, err := env.Bytes()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Server drives one goal seeker from any number of websocket sessions. Every
// pose is answered with a command on the session that sent it; arrivals are
// announced to all sessions.
type Server struct {
	seeker *control.GoalSeeker
	log    logging.Logger
	app    *fiber.App

	mu       sync.RWMutex
	sessions map[string]*session

	received atomic.Uint64
	sent     atomic.Uint64
}

func NewServer(seeker *control.GoalSeeker, log logging.Logger) *Server {
	s := &Server{
		seeker:   seeker,
		log:      log,
		sessions: make(map[string]*session),
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
	}
	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) registerRoutes() {
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleSession))

	s.app.Post("/goal", s.handleGoal)
	s.app.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(s.Status())
	})
}

// Serve accepts connections on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	s.log.WithField("addr", ln.Addr().String()).Info("bridge listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleSession(c *websocket.Conn) {
	sess := &session{
		id:        uuid.NewString(),
		conn:      c,
		connected: time.Now(),
	}
	log := s.log.WithField("session", sess.id)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	log.WithField("sessions", count).Info("agent connected")

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		count := len(s.sessions)
		s.mu.Unlock()
		log.WithField("sessions", count).Info("agent disconnected")
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("read ended")
			return
		}
		s.received.Add(1)

		env, err := ParseEnvelope(data)
		if err != nil {
			log.WithError(err).Warn("message skipped")
			continue
		}

		switch env.Type {
		case TypeGoal:
			s.seeker.SetGoal(env.Goal.X, env.Goal.Y)
		case TypePose:
			d := s.seeker.Decide(*env.Pose)
			if err := sess.send(CmdMessage(d.Command)); err != nil {
				log.WithError(err).Warn("write failed")
				return
			}
			s.sent.Add(1)
			if d.Arrived {
				s.broadcast(ArrivedMessage(d.Goal))
			}
		}
	}
}

func (s *Server) broadcast(env *Envelope) {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		if err := sess.send(env); err != nil {
			s.log.WithField("session", sess.id).WithError(err).Warn("broadcast failed")
			continue
		}
		s.sent.Add(1)
	}
}

func (s *Server) handleGoal(c *fiber.Ctx) error {
	var g dynamo.Goal
	if err := c.BodyParser(&g); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.seeker.SetGoal(g.X, g.Y)
	return c.JSON(fiber.Map{"status": "armed", "goal": g})
}

type Status struct {
	Armed            bool         `json:"armed"`
	Goal             *dynamo.Goal `json:"goal,omitempty"`
	Pose             dynamo.Pose  `json:"pose"`
	Arrivals         int          `json:"arrivals"`
	Sessions         int          `json:"sessions"`
	MessagesReceived uint64       `json:"messages_received"`
	MessagesSent     uint64       `json:"messages_sent"`
}

func (s *Server) Status() Status {
	snap := s.seeker.Snapshot()

	s.mu.RLock()
	count := len(s.sessions)
	s.mu.RUnlock()

	st := Status{
		Armed:            snap.Armed,
		Pose:             snap.Pose,
		Arrivals:         snap.Arrivals,
		Sessions:         count,
		MessagesReceived: s.received.Load(),
		MessagesSent:     s.sent.Load(),
	}
	if snap.Armed {
		st.Goal = &snap.Goal
	}
	return st
}
