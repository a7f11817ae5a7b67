package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// handleWS upgrades the connection and registers the client for the
// periodic status broadcast. Reads are drained only to detect disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()

	s.metrics.DashboardClientsAdd(1)
	log.Info().Int("clients", n).Msg("dashboard client connected")

	// send an immediate snapshot so the client does not wait a full tick
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(s.engine.Status()); err != nil {
		s.dropClient(conn)
		return
	}

	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		s.metrics.DashboardClientsAdd(-1)
	}
	s.mu.Unlock()
	conn.Close()
}

// broadcastLoop pushes an engine status snapshot to every connected client
// once per second.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			status := s.engine.Status()

			s.mu.Lock()
			for conn := range s.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(status); err != nil {
					delete(s.clients, conn)
					s.metrics.DashboardClientsAdd(-1)
					conn.Close()
				}
			}
			s.mu.Unlock()
		}
	}
}
