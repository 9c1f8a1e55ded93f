package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-moonboard/internal/app"
	"github.com/coreman2200/funtimes-moonboard/internal/problem"
	"github.com/coreman2200/funtimes-moonboard/internal/pubsub"
)

const writeWait = 200 * time.Millisecond

// StatsFunc reports controller counters; it must be safe for concurrent use.
type StatsFunc func() app.Stats

// Server streams published problems to websocket clients and reports health.
type Server struct {
	broker    *pubsub.Broker
	stats     StatsFunc
	log       zerolog.Logger
	startTime time.Time
	upgrader  websocket.Upgrader
}

func NewServer(b *pubsub.Broker, stats StatsFunc, log zerolog.Logger) *Server {
	return &Server{
		broker:    b,
		stats:     stats,
		log:       log,
		startTime: time.Now(),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/problems", s.HandleProblemsWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// HandleProblemsWS sends the current problem, if any, then every new one.
func (s *Server) HandleProblemsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id, ch, cur := s.broker.SubscribeCurrent()
	s.log.Debug().Str("sub", id).Str("remote", r.RemoteAddr).Msg("problems client connected")

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.broker.Unsubscribe(id)
		conn.Close()
		s.log.Debug().Str("sub", id).Msg("problems client gone")
	}()

	if cur != nil {
		if err := s.send(conn, *cur); err != nil {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case p, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.send(conn, p); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, p problem.Problem) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(p); err != nil {
		s.log.Debug().Err(err).Msg("write problem")
		return err
	}
	return nil
}

type health struct {
	UptimeS     float64          `json:"uptime_s"`
	Stats       app.Stats        `json:"stats"`
	Subscribers int              `json:"subscribers"`
	Dropped     uint64           `json:"dropped"`
	Current     *problem.Problem `json:"current,omitempty"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := health{
		UptimeS:     time.Since(s.startTime).Seconds(),
		Subscribers: s.broker.Subscribers(),
		Dropped:     s.broker.Dropped(),
	}
	if s.stats != nil {
		resp.Stats = s.stats()
	}
	if p, ok := s.broker.Last(); ok {
		resp.Current = &p
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
