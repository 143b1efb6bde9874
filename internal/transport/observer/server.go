// Package observer streams completed turn records to websocket spectators.
// The feed is one-way and fed only with immutable record copies, so it never
// touches live game state. Presentation of the feed is the spectator's
// problem.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drugwars.ai/internal/sim/game"
)

type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	lastTurn *game.TurnRecord
}

func NewServer(logger *log.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only anyway
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// StatusHandler serves the most recent turn record as JSON.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		last := s.lastTurn
		s.mu.Unlock()
		rw.Header().Set("Content-Type", "application/json")
		if last == nil {
			_, _ = rw.Write([]byte("{}"))
			return
		}
		_ = json.NewEncoder(rw).Encode(last)
	}
}

// WSHandler upgrades spectators onto the turn feed.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.log.Printf("observer joined (%s)", r.RemoteAddr)

		// Reader loop exists only to detect the close.
		go func() {
			defer s.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// WriteTurn broadcasts one record to every spectator. Implements
// game.TurnSink; slow or dead connections are dropped, never waited on.
func (s *Server) WriteTurn(rec game.TurnRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastTurn = &rec
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.drop(c)
		}
	}
	return nil
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.conns[conn]
	delete(s.conns, conn)
	s.mu.Unlock()
	if ok {
		_ = conn.Close()
		s.log.Printf("observer left")
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
